// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultWatchDebounce coalesces the burst of events one atomic write produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// =============================================================================
// WATCHER
// =============================================================================

// Watcher reports writes to FileBackend keys made by any process, so that
// several widget instances sharing one profile stay in sync.
type Watcher struct {
	fs       *fsnotify.Watcher
	backend  *FileBackend
	keys     map[string]bool
	debounce time.Duration
	onChange func(key string)
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewWatcher watches backend's directory and calls onChange (from a timer
// goroutine) after a debounced write to one of keys.
func NewWatcher(backend *FileBackend, keys []string, debounce time.Duration, onChange func(key string), logger zerolog.Logger) (*Watcher, error) {
	if backend == nil {
		return nil, errors.New("watcher requires a file backend")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(backend.BaseDir); err != nil {
		fsw.Close()
		return nil, err
	}

	watched := make(map[string]bool, len(keys))
	for _, k := range keys {
		watched[k] = true
	}

	return &Watcher{
		fs:       fsw,
		backend:  backend,
		keys:     watched,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With().Str("component", "storage-watcher").Logger(),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			key, ok := w.backend.KeyForPath(event.Name)
			if !ok || !w.keys[key] {
				continue
			}
			w.schedule(key)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("file watch error")
		}
	}
}

// Close stops watching and cancels pending notifications.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// schedule (re)arms the debounce timer for key.
func (w *Watcher) schedule(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[key]; ok {
		t.Stop()
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		closed := w.closed
		w.mu.Unlock()
		if !closed && w.onChange != nil {
			w.onChange(key)
		}
	})
}
