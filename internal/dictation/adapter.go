// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dictation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the adapter's machine state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRecording
	StateDenied
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Permission is the last known microphone permission.
type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Status is published on every state change.
type Status struct {
	State      State
	Permission Permission
}

// IsRecording reports whether a capture is running.
func (s Status) IsRecording() bool {
	return s.State == StateRecording
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Callbacks receive the events of one capture. A provider calls exactly one
// of OnResult or OnError, and may call OnEnd afterwards.
type Callbacks struct {
	OnResult func(transcript string)
	OnError  func(err *RecognitionError)
	OnEnd    func()
}

// CaptureOptions configures one capture.
type CaptureOptions struct {
	Language string
}

// Provider is a speech-to-text capability capturing a single utterance.
type Provider interface {
	Start(ctx context.Context, opts CaptureOptions, cb Callbacks) error
	Stop()
}

// PermissionRequester asks the host for the microphone. An error means the
// question could not be asked at all.
type PermissionRequester interface {
	RequestMicrophone(ctx context.Context) (granted bool, err error)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f.
func (f NotifierFunc) Alert(message string) { f(message) }

// MessageSink receives assistant messages the adapter adds to the log.
type MessageSink interface {
	Append(msg model.Message) error
}

// HostPermission is an optional second channel for asking the host to open
// its own permission prompt. Failures are logged only.
type HostPermission interface {
	RequestMicrophone(ctx context.Context) error
}

// SendFunc forwards a transcript to the send pathway. It runs on its own
// goroutine.
type SendFunc func(ctx context.Context, text string)

// Config wires an Adapter.
type Config struct {
	Provider   Provider            // nil: dictation unsupported
	Permission PermissionRequester // nil: always granted
	Host       HostPermission      // optional
	Notifier   Notifier
	Messages   MessageSink
	Send       SendFunc
	Platform   Platform
	Language   string
	Logger     zerolog.Logger
}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter runs the dictation state machine. It is safe for concurrent use;
// provider callbacks may arrive on any goroutine.
type Adapter struct {
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	permission Permission
	generation uint64
	stoppedGen uint64 // last generation ended by Stop

	listeners map[int]func(Status)
	nextSub   int
}

// New creates an idle adapter.
func New(cfg Config) *Adapter {
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(string) {})
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformGeneric
	}
	return &Adapter{
		cfg:        cfg,
		logger:     cfg.Logger.With().Str("component", "dictation").Logger(),
		state:      StateIdle,
		permission: PermissionUnknown,
		listeners:  make(map[int]func(Status)),
	}
}

// Supported reports whether a provider is configured.
func (a *Adapter) Supported() bool {
	return a.cfg.Provider != nil
}

// Status returns the current state.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{State: a.state, Permission: a.permission}
}

// IsRecording reports whether a capture is running.
func (a *Adapter) IsRecording() bool {
	return a.Status().IsRecording()
}

// Start begins a capture. While recording it stops the capture instead;
// while a permission request is pending it does nothing.
//
// It returns ErrUnsupported when no provider exists and ErrPermissionDenied
// when the microphone was refused. Both are already surfaced to the user.
func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.Provider == nil {
		a.cfg.Notifier.Alert(UnsupportedText)
		return ErrUnsupported
	}

	a.mu.Lock()
	switch a.state {
	case StateRecording:
		a.mu.Unlock()
		a.Stop()
		return nil
	case StateRequesting, StateDenied:
		a.mu.Unlock()
		return nil
	}
	a.generation++
	gen := a.generation
	a.state = StateRequesting
	a.mu.Unlock()
	a.emit()

	granted, err := a.requestPermission(ctx)

	a.mu.Lock()
	if a.generation != gen {
		// Stopped while waiting for the answer.
		a.mu.Unlock()
		return nil
	}
	if err != nil {
		a.state = StateIdle
		a.mu.Unlock()
		a.emit()
		a.logger.Warn().Err(err).Msg("microphone request failed")
		a.cfg.Notifier.Alert(AlertText(ErrorAudioCapture))
		return fmt.Errorf("request microphone: %w", err)
	}
	if !granted {
		a.permission = PermissionDenied
		a.state = StateDenied
		a.mu.Unlock()
		a.emit()

		a.appendGuidance()
		a.askHost(ctx)

		a.mu.Lock()
		if a.generation == gen {
			a.state = StateIdle
		}
		a.mu.Unlock()
		a.emit()
		return ErrPermissionDenied
	}
	a.permission = PermissionGranted
	a.state = StateRecording
	a.mu.Unlock()
	a.emit()

	err = a.cfg.Provider.Start(ctx, CaptureOptions{Language: a.cfg.Language}, a.callbacks(ctx, gen))

	a.mu.Lock()
	stopped := a.stoppedGen == gen
	a.mu.Unlock()
	if stopped {
		// Stop ran before the provider had anything to stop.
		if err == nil {
			a.cfg.Provider.Stop()
		}
		a.logger.Debug().Msg("capture stopped during start")
		return nil
	}
	if err != nil {
		a.fail(gen, AsRecognitionError(err))
		return err
	}
	a.logger.Debug().Msg("capture started")
	return nil
}

// Stop cancels the running capture or pending request. No message is added.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if a.state == StateIdle {
		a.mu.Unlock()
		return
	}
	wasRecording := a.state == StateRecording
	a.stoppedGen = a.generation
	a.generation++
	a.state = StateIdle
	a.mu.Unlock()

	if wasRecording {
		a.cfg.Provider.Stop()
	}
	a.logger.Debug().Msg("capture stopped")
	a.emit()
}

// Toggle stops a running capture or starts a new one.
func (a *Adapter) Toggle(ctx context.Context) error {
	if a.IsRecording() {
		a.Stop()
		return nil
	}
	return a.Start(ctx)
}

// Subscribe registers fn for status changes. The returned func removes it.
func (a *Adapter) Subscribe(fn func(Status)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// =============================================================================
// PROVIDER EVENTS
// =============================================================================

// callbacks binds provider events to capture generation gen.
func (a *Adapter) callbacks(ctx context.Context, gen uint64) Callbacks {
	sendCtx := context.WithoutCancel(ctx)
	return Callbacks{
		OnResult: func(transcript string) {
			if !a.finish(gen) {
				return
			}
			text := strings.TrimSpace(transcript)
			if text == "" || a.cfg.Send == nil {
				return
			}
			a.logger.Debug().Int("chars", len(text)).Msg("transcript received")
			// The send outlives the provider callback; the next capture may
			// start while the reply is pending.
			go a.cfg.Send(sendCtx, text)
		},
		OnError: func(err *RecognitionError) {
			a.fail(gen, err)
		},
		OnEnd: func() {
			a.finish(gen)
		},
	}
}

// finish returns the machine to Idle if gen is still the live capture.
func (a *Adapter) finish(gen uint64) bool {
	a.mu.Lock()
	if a.generation != gen || a.state != StateRecording {
		a.mu.Unlock()
		return false
	}
	a.generation++
	a.state = StateIdle
	a.mu.Unlock()
	a.emit()
	return true
}

// fail ends capture gen and surfaces err.
func (a *Adapter) fail(gen uint64, err *RecognitionError) {
	if !a.finish(gen) {
		return
	}
	a.logger.Warn().Str("kind", string(err.Kind)).Str("detail", err.Message).Msg("recognition failed")

	if err.Kind == ErrorNotAllowed {
		a.mu.Lock()
		a.permission = PermissionDenied
		a.mu.Unlock()
		a.emit()
		a.appendGuidance()
		return
	}
	a.cfg.Notifier.Alert(AlertText(err.Kind))
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *Adapter) requestPermission(ctx context.Context) (bool, error) {
	if a.cfg.Permission == nil {
		return true, nil
	}
	return a.cfg.Permission.RequestMicrophone(ctx)
}

func (a *Adapter) appendGuidance() {
	if a.cfg.Messages == nil {
		return
	}
	msg := model.NewAssistantMessage(PermissionGuidance(a.cfg.Platform))
	if err := a.cfg.Messages.Append(msg); err != nil {
		a.logger.Warn().Err(err).Msg("failed to add guidance message")
	}
}

func (a *Adapter) askHost(ctx context.Context) {
	if a.cfg.Host == nil {
		return
	}
	if err := a.cfg.Host.RequestMicrophone(ctx); err != nil {
		a.logger.Info().Err(err).Msg("host permission request unavailable")
	}
}

func (a *Adapter) emit() {
	a.mu.Lock()
	status := Status{State: a.state, Permission: a.permission}
	fns := make([]func(Status), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
}
