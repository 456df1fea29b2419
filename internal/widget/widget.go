// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/bridge"
	"github.com/jeranaias/chatwidget/internal/chat"
	"github.com/jeranaias/chatwidget/internal/dictation"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/storage"
)

// Deps are the collaborators a Widget is assembled from.
type Deps struct {
	Store   *storage.Store
	Querier chat.Querier

	// Dictation; a nil Provider means dictation is unsupported.
	Provider   dictation.Provider
	Permission dictation.PermissionRequester
	Platform   dictation.Platform
	Language   string

	Greeting string
	Logger   zerolog.Logger
}

// =============================================================================
// WIDGET
// =============================================================================

// Widget binds presentation intents to the chat core.
type Widget struct {
	store  *storage.Store
	conv   *session.Manager
	chat   *chat.Client
	dict   *dictation.Adapter
	bus    *bridge.Bus
	logger zerolog.Logger

	mu        sync.Mutex
	minimized bool
	alerts    map[int]func(string)
	nextAlert int

	watcher     *storage.Watcher
	stopWatcher context.CancelFunc
	closeOnce   sync.Once
}

// New assembles a widget and restores persisted state from deps.Store.
func New(deps Deps) *Widget {
	logger := deps.Logger.With().Str("component", "widget").Logger()
	w := &Widget{
		store:  deps.Store,
		bus:    bridge.New(deps.Logger),
		logger: logger,
		alerts: make(map[int]func(string)),
	}

	var persister session.Persister
	if deps.Store != nil {
		persister = deps.Store
	}
	w.conv = session.NewManager(persister, deps.Greeting, deps.Logger)
	w.chat = chat.NewClient(deps.Querier, w.conv, deps.Logger)

	var host dictation.HostPermission = bridge.MicrophoneRequester{Bus: w.bus}
	w.dict = dictation.New(dictation.Config{
		Provider:   deps.Provider,
		Permission: deps.Permission,
		Host:       host,
		Notifier:   dictation.NotifierFunc(w.alert),
		Messages:   w.conv,
		Send:       w.sendTranscript,
		Platform:   deps.Platform,
		Language:   deps.Language,
		Logger:     deps.Logger,
	})

	w.restore()
	return w
}

// restore loads the persisted log, conversation id and minimized flag.
func (w *Widget) restore() {
	if w.store == nil {
		return
	}
	log, err := w.store.LoadLog()
	if err != nil {
		w.logger.Warn().Err(err).Msg("chat history unreadable, starting fresh")
	}
	id, err := w.store.LoadConversationID()
	if err != nil {
		w.logger.Warn().Err(err).Msg("conversation id unreadable")
	}
	w.conv.Restore(log, id)

	minimized, err := w.store.LoadMinimized()
	if err != nil {
		w.logger.Warn().Err(err).Msg("minimized flag unreadable")
	}
	w.mu.Lock()
	w.minimized = minimized
	w.mu.Unlock()
}

// Start begins watching the store for changes made by other instances.
// It is a no-op when no watcher was attached.
func (w *Widget) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil || w.stopWatcher != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.stopWatcher = cancel
	go func() {
		if err := w.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn().Err(err).Msg("store watcher stopped")
		}
	}()
}

// Shutdown stops dictation and the watcher and closes the store.
func (w *Widget) Shutdown() error {
	var err error
	w.closeOnce.Do(func() {
		w.dict.Stop()

		w.mu.Lock()
		stop, watcher := w.stopWatcher, w.watcher
		w.mu.Unlock()
		if stop != nil {
			stop()
		}
		if watcher != nil {
			_ = watcher.Close()
		}
		if w.store != nil {
			err = w.store.Close()
		}
	})
	return err
}

// =============================================================================
// INTENTS
// =============================================================================

// SendText runs one chat turn. Blank text returns model.ErrEmptyText and
// changes nothing.
func (w *Widget) SendText(ctx context.Context, text string) (*model.Message, error) {
	return w.chat.Send(ctx, text)
}

// ClearConversation resets the log to the greeting and forgets the
// conversation id.
func (w *Widget) ClearConversation() {
	w.conv.Reset()
}

// StartDictation starts a capture, or stops the running one.
func (w *Widget) StartDictation(ctx context.Context) error {
	return w.dict.Start(ctx)
}

// StopDictation cancels the running capture.
func (w *Widget) StopDictation() {
	w.dict.Stop()
}

// ToggleDictation starts or stops a capture.
func (w *Widget) ToggleDictation(ctx context.Context) error {
	return w.dict.Toggle(ctx)
}

// Close asks the host to close the widget.
func (w *Widget) Close() {
	w.dict.Stop()
	w.bus.Publish(bridge.Message{Action: bridge.ActionCloseChatbot})
}

// SetMinimized persists and announces the minimized flag.
func (w *Widget) SetMinimized(minimized bool) {
	w.mu.Lock()
	changed := w.minimized != minimized
	w.minimized = minimized
	w.mu.Unlock()
	if !changed {
		return
	}

	if w.store != nil {
		if err := w.store.SaveMinimized(minimized); err != nil {
			w.logger.Warn().Err(err).Msg("failed to persist minimized flag")
		}
	}
	w.bus.Publish(bridge.Message{Action: bridge.ActionToggleMinimize, Payload: minimized})
}

// ToggleMinimized flips the minimized flag and returns the new value.
func (w *Widget) ToggleMinimized() bool {
	next := !w.Minimized()
	w.SetMinimized(next)
	return next
}

// sendTranscript is the dictation send pathway.
func (w *Widget) sendTranscript(ctx context.Context, text string) {
	if _, err := w.chat.Send(ctx, text); err != nil {
		w.logger.Debug().Err(err).Msg("transcript not sent")
	}
}

// alert fans a blocking notice out to OnAlert listeners.
func (w *Widget) alert(message string) {
	w.mu.Lock()
	fns := make([]func(string), 0, len(w.alerts))
	for _, fn := range w.alerts {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	if len(fns) == 0 {
		w.logger.Info().Str("alert", message).Msg("alert with no listener")
	}
	for _, fn := range fns {
		fn(message)
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// OnLogChanged registers fn for log snapshots.
func (w *Widget) OnLogChanged(fn func(model.Log)) (cancel func()) {
	return w.conv.Subscribe(fn)
}

// OnDictationStateChanged registers fn for dictation status changes.
func (w *Widget) OnDictationStateChanged(fn func(dictation.Status)) (cancel func()) {
	return w.dict.Subscribe(fn)
}

// OnAlert registers fn for blocking notices.
func (w *Widget) OnAlert(fn func(message string)) (cancel func()) {
	w.mu.Lock()
	id := w.nextAlert
	w.nextAlert++
	w.alerts[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.alerts, id)
		w.mu.Unlock()
	}
}

// OnClose registers fn to run when the widget asks to be closed.
func (w *Widget) OnClose(fn func()) (cancel func()) {
	return w.bus.Subscribe(bridge.ActionCloseChatbot, func(bridge.Message) { fn() })
}

// OnMinimizedChanged registers fn for minimized flag changes.
func (w *Widget) OnMinimizedChanged(fn func(minimized bool)) (cancel func()) {
	return w.bus.Subscribe(bridge.ActionToggleMinimize, func(msg bridge.Message) {
		if v, ok := msg.Payload.(bool); ok {
			fn(v)
		}
	})
}

// HandleMicrophoneRequest lets the host answer the widget's request to open
// a microphone permission prompt.
func (w *Widget) HandleMicrophoneRequest(fn bridge.Responder) {
	w.bus.Handle(bridge.ActionRequestMicrophone, fn)
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns a copy of the log.
func (w *Widget) Snapshot() model.Log {
	return w.conv.Snapshot()
}

// ConversationID returns the current conversation id.
func (w *Widget) ConversationID() string {
	return w.conv.ConversationID()
}

// InFlight reports how many sends await a reply.
func (w *Widget) InFlight() int {
	return w.chat.InFlight()
}

// Minimized returns the minimized flag.
func (w *Widget) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

// DictationStatus returns the dictation state.
func (w *Widget) DictationStatus() dictation.Status {
	return w.dict.Status()
}

// DictationSupported reports whether a speech provider is configured.
func (w *Widget) DictationSupported() bool {
	return w.dict.Supported()
}

// Bus exposes the host channel.
func (w *Widget) Bus() *bridge.Bus {
	return w.bus
}
