// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/bridge"
	"github.com/jeranaias/chatwidget/internal/cloud"
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/dictation"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/speech"
	"github.com/jeranaias/chatwidget/internal/storage"
)

// Build assembles a widget from configuration: the storage backend, the
// endpoint client, the speech provider when dictation is enabled, and the
// store watcher when requested.
func Build(cfg *config.Config, logger zerolog.Logger) (*Widget, error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	store := storage.NewStore(backend, cfg.Chat.Greeting)

	model.TimestampLayout = cfg.Chat.TimestampLayout

	querier := cloud.NewClient(cloud.Options{
		URL:       cfg.Endpoint.URL,
		Timeout:   time.Duration(cfg.Endpoint.TimeoutSecs) * time.Second,
		UserAgent: cfg.Endpoint.UserAgent,
	}, logger)

	deps := Deps{
		Store:    store,
		Querier:  querier,
		Platform: dictation.ParsePlatform(cfg.Dictation.Platform),
		Language: cfg.Dictation.Language,
		Greeting: cfg.Chat.Greeting,
		Logger:   logger,
	}
	if cfg.Dictation.Enabled {
		mic := microphoneFor(cfg.Dictation)
		deps.Provider = speech.NewWSProvider(speech.WSOptions{
			URL:        cfg.Dictation.URL,
			SampleRate: cfg.Dictation.SampleRate,
		}, mic, logger)
		deps.Permission = speech.MicrophonePermission{Mic: mic}
	}

	w := New(deps)

	if fb, ok := backend.(*storage.FileBackend); ok && cfg.Storage.Watch {
		if err := w.attachWatcher(fb); err != nil {
			logger.Warn().Err(err).Msg("store watcher unavailable")
		}
	}
	return w, nil
}

func microphoneFor(cfg config.DictationConfig) speech.Microphone {
	if cfg.CaptureFile != "" {
		return &speech.FileMicrophone{Path: cfg.CaptureFile}
	}
	return &speech.CommandMicrophone{Command: cfg.CaptureCommand}
}

// attachWatcher reloads state written to fb by other instances.
func (w *Widget) attachWatcher(fb *storage.FileBackend) error {
	watcher, err := storage.NewWatcher(fb,
		[]string{storage.KeyMessages, storage.KeyMinimized},
		storage.DefaultWatchDebounce,
		w.onStoreChanged,
		w.logger)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()
	return nil
}

// onStoreChanged applies an external write of key.
func (w *Widget) onStoreChanged(key string) {
	switch key {
	case storage.KeyMessages:
		changed, err := w.conv.Reload(w.store.LoadLog)
		if err != nil {
			w.logger.Warn().Err(err).Msg("ignoring unreadable external history")
			return
		}
		if changed {
			w.logger.Info().Msg("history updated by another instance")
		}
	case storage.KeyMinimized:
		minimized, err := w.store.LoadMinimized()
		if err != nil {
			return
		}
		w.mu.Lock()
		changed := w.minimized != minimized
		w.minimized = minimized
		w.mu.Unlock()
		if changed {
			w.bus.Publish(bridge.Message{Action: bridge.ActionToggleMinimize, Payload: minimized})
		}
	}
}
