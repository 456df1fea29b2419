// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dictation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/session"
)

// singleProvider mimics a provider that runs one capture at a time and
// whose Stop only affects a capture that already started.
type singleProvider struct {
	mu      sync.Mutex
	running bool
	cb      Callbacks
}

func (p *singleProvider) Start(_ context.Context, _ CaptureOptions, cb Callbacks) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return &RecognitionError{Kind: ErrorAborted, Message: "capture already running"}
	}
	p.running = true
	p.cb = cb
	return nil
}

func (p *singleProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

// finish ends the capture and then delivers the transcript, the way a
// provider releases its session before calling back.
func (p *singleProvider) finish(transcript string) {
	p.mu.Lock()
	p.running = false
	cb := p.cb
	p.mu.Unlock()
	cb.OnResult(transcript)
	cb.OnEnd()
}

func (p *singleProvider) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// fakeProvider records calls and exposes the callbacks of the last capture.
type fakeProvider struct {
	mu       sync.Mutex
	starts   int
	stops    int
	cb       Callbacks
	opts     CaptureOptions
	startErr error
}

func (f *fakeProvider) Start(_ context.Context, opts CaptureOptions, cb Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.cb = cb
	f.opts = opts
	return f.startErr
}

func (f *fakeProvider) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeProvider) callbacks() Callbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

type fakePermission struct {
	granted bool
	err     error
	calls   int
}

func (f *fakePermission) RequestMicrophone(context.Context) (bool, error) {
	f.calls++
	return f.granted, f.err
}

type fakeHost struct{ calls int }

func (f *fakeHost) RequestMicrophone(context.Context) error {
	f.calls++
	return errors.New("no host window")
}

type harness struct {
	adapter  *Adapter
	provider *fakeProvider
	perm     *fakePermission
	host     *fakeHost
	conv     *session.Manager
	alerts   []string
	states   []State

	sentMu sync.Mutex
	sent   []string
}

func (h *harness) sentTexts() []string {
	h.sentMu.Lock()
	defer h.sentMu.Unlock()
	return append([]string(nil), h.sent...)
}

func newHarness(t *testing.T, granted bool) *harness {
	t.Helper()
	h := &harness{
		provider: &fakeProvider{},
		perm:     &fakePermission{granted: granted},
		host:     &fakeHost{},
		conv:     session.NewManager(nil, "", zerolog.Nop()),
	}
	h.adapter = New(Config{
		Provider:   h.provider,
		Permission: h.perm,
		Host:       h.host,
		Notifier:   NotifierFunc(func(msg string) { h.alerts = append(h.alerts, msg) }),
		Messages:   h.conv,
		Send: func(_ context.Context, text string) {
			h.sentMu.Lock()
			h.sent = append(h.sent, text)
			h.sentMu.Unlock()
		},
		Platform: PlatformChrome,
		Language: "en-US",
		Logger:   zerolog.Nop(),
	})
	cancel := h.adapter.Subscribe(func(s Status) { h.states = append(h.states, s.State) })
	t.Cleanup(cancel)
	return h
}

// =============================================================================
// START / RESULT TESTS
// =============================================================================

func TestStart_GrantedRecordsAndForwardsTranscript(t *testing.T) {
	h := newHarness(t, true)

	require.NoError(t, h.adapter.Start(context.Background()))
	assert.True(t, h.adapter.IsRecording())
	assert.Equal(t, PermissionGranted, h.adapter.Status().Permission)
	assert.Equal(t, "en-US", h.provider.opts.Language)

	h.provider.callbacks().OnResult("  what's the weather  ")
	h.provider.callbacks().OnEnd()

	assert.False(t, h.adapter.IsRecording())
	require.Eventually(t, func() bool { return len(h.sentTexts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"what's the weather"}, h.sentTexts())
	assert.Equal(t, []State{StateRequesting, StateRecording, StateIdle}, h.states)
	assert.Empty(t, h.alerts)
}

func TestStart_EmptyTranscriptNotSent(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.adapter.Start(context.Background()))

	h.provider.callbacks().OnResult("   ")
	assert.Empty(t, h.sentTexts())
	assert.False(t, h.adapter.IsRecording())
}

func TestStart_WhileRecordingToggles(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.adapter.Start(context.Background()))

	require.NoError(t, h.adapter.Start(context.Background()))
	assert.False(t, h.adapter.IsRecording())
	assert.Equal(t, 1, h.provider.starts)
	assert.Equal(t, 1, h.provider.stops)
}

func TestStart_Unsupported(t *testing.T) {
	var alerts []string
	a := New(Config{
		Notifier: NotifierFunc(func(msg string) { alerts = append(alerts, msg) }),
		Logger:   zerolog.Nop(),
	})

	err := a.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, []string{UnsupportedText}, alerts)
	assert.False(t, a.Supported())
	assert.Equal(t, StateIdle, a.Status().State)
}

func TestStart_PermissionDenied(t *testing.T) {
	h := newHarness(t, false)

	err := h.adapter.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	log := h.conv.Snapshot()
	require.Len(t, log, 2)
	assert.Equal(t, model.SenderAssistant, log[1].Sender)
	assert.Equal(t, PermissionGuidance(PlatformChrome), log[1].Text)

	assert.Equal(t, 1, h.host.calls, "host prompt is attempted")
	assert.Equal(t, 0, h.provider.starts)
	assert.Equal(t, StateIdle, h.adapter.Status().State)
	assert.Equal(t, PermissionDenied, h.adapter.Status().Permission)
	assert.Equal(t, []State{StateRequesting, StateDenied, StateIdle}, h.states)
}

func TestStart_PermissionRequestFails(t *testing.T) {
	h := newHarness(t, true)
	h.perm.err = errors.New("no device")

	err := h.adapter.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{AlertText(ErrorAudioCapture)}, h.alerts)
	assert.Equal(t, StateIdle, h.adapter.Status().State)
}

func TestStart_ProviderStartFails(t *testing.T) {
	h := newHarness(t, true)
	h.provider.startErr = &RecognitionError{Kind: ErrorNetwork, Message: "dial failed"}

	err := h.adapter.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, h.adapter.IsRecording())
	assert.Equal(t, []string{AlertText(ErrorNetwork)}, h.alerts)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestRecognitionError_NotAllowedAppendsOneGuidanceMessage(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.adapter.Start(context.Background()))

	cb := h.provider.callbacks()
	cb.OnError(&RecognitionError{Kind: ErrorNotAllowed})
	cb.OnEnd()
	cb.OnError(&RecognitionError{Kind: ErrorNotAllowed})

	log := h.conv.Snapshot()
	guidance := 0
	for _, msg := range log {
		if msg.Sender == model.SenderAssistant && strings.Contains(msg.Text, "Chrome") {
			guidance++
		}
	}
	assert.Equal(t, 1, guidance)
	assert.Len(t, log, 2)
	assert.False(t, h.adapter.IsRecording())
	assert.Equal(t, PermissionDenied, h.adapter.Status().Permission)
	assert.Empty(t, h.alerts)
}

func TestRecognitionError_AlertKinds(t *testing.T) {
	for _, kind := range []ErrorKind{ErrorNoSpeech, ErrorNetwork, ErrorAudioCapture, ErrorOther} {
		t.Run(string(kind), func(t *testing.T) {
			h := newHarness(t, true)
			require.NoError(t, h.adapter.Start(context.Background()))

			h.provider.callbacks().OnError(&RecognitionError{Kind: kind})

			assert.Equal(t, []string{AlertText(kind)}, h.alerts)
			assert.Len(t, h.conv.Snapshot(), 1, "alerts do not touch the log")
			assert.False(t, h.adapter.IsRecording())
		})
	}
}

// =============================================================================
// STOP TESTS
// =============================================================================

func TestStop_IgnoresLateEvents(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.adapter.Start(context.Background()))
	cb := h.provider.callbacks()

	h.adapter.Stop()
	cb.OnResult("too late")
	cb.OnError(&RecognitionError{Kind: ErrorNoSpeech})

	assert.Empty(t, h.sentTexts())
	assert.Empty(t, h.alerts)
	assert.Len(t, h.conv.Snapshot(), 1, "stop appends nothing")
	assert.Equal(t, 1, h.provider.stops)
}

func TestStop_DuringProviderStartReleasesCapture(t *testing.T) {
	provider := &singleProvider{}
	a := New(Config{Provider: provider, Logger: zerolog.Nop()})

	// Stop lands after the state flips to recording but before the
	// provider has started anything.
	var once sync.Once
	cancel := a.Subscribe(func(s Status) {
		if s.State == StateRecording {
			once.Do(a.Stop)
		}
	})
	defer cancel()

	require.NoError(t, a.Start(context.Background()))
	assert.False(t, provider.isRunning(), "no capture may outlive the stop")
	assert.Equal(t, StateIdle, a.Status().State)

	// The provider is free for the next capture.
	require.NoError(t, a.Start(context.Background()))
	assert.True(t, provider.isRunning())
	assert.True(t, a.IsRecording())
}

func TestResult_SendDoesNotBlockNextCapture(t *testing.T) {
	provider := &singleProvider{}
	release := make(chan struct{})
	sent := make(chan string, 2)
	a := New(Config{
		Provider: provider,
		Send: func(_ context.Context, text string) {
			sent <- text
			<-release
		},
		Logger: zerolog.Nop(),
	})
	defer close(release)

	require.NoError(t, a.Start(context.Background()))
	done := make(chan struct{})
	go func() {
		provider.finish("first")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("result callback blocked on the send")
	}
	assert.Equal(t, "first", <-sent)

	// The first reply is still pending.
	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.IsRecording())
	assert.True(t, provider.isRunning())
}

func TestStop_WhenIdleIsNoop(t *testing.T) {
	h := newHarness(t, true)
	h.adapter.Stop()
	assert.Empty(t, h.states)
	assert.Zero(t, h.provider.stops)
}

func TestToggle(t *testing.T) {
	h := newHarness(t, true)

	require.NoError(t, h.adapter.Toggle(context.Background()))
	assert.True(t, h.adapter.IsRecording())
	require.NoError(t, h.adapter.Toggle(context.Background()))
	assert.False(t, h.adapter.IsRecording())
	require.NoError(t, h.adapter.Toggle(context.Background()))
	assert.True(t, h.adapter.IsRecording())
	assert.Equal(t, 2, h.provider.starts)
}

// =============================================================================
// GUIDANCE TESTS
// =============================================================================

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformFirefox, ParsePlatform(" Firefox "))
	assert.Equal(t, PlatformGeneric, ParsePlatform("netscape"))
	assert.Equal(t, PlatformGeneric, ParsePlatform(""))
}

func TestPermissionGuidance_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []Platform{PlatformChrome, PlatformEdge, PlatformFirefox, PlatformSafari, PlatformGeneric} {
		text := PermissionGuidance(p)
		assert.False(t, seen[text], "guidance for %s must be distinct", p)
		seen[text] = true
	}
}

func TestAsRecognitionError(t *testing.T) {
	rerr := AsRecognitionError(errors.New("boom"))
	assert.Equal(t, ErrorOther, rerr.Kind)

	wrapped := AsRecognitionError(&RecognitionError{Kind: ErrorNoSpeech})
	assert.Equal(t, ErrorNoSpeech, wrapped.Kind)
	assert.ErrorIs(t, wrapped, &RecognitionError{Kind: ErrorNoSpeech})
}
