// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/dictation"
)

// Defaults for WSOptions.
const (
	DefaultFormat           = "pcm_s16le"
	DefaultSampleRate       = 16000
	DefaultChunkSize        = 3200 // 100ms of 16kHz mono s16
	DefaultHandshakeTimeout = 10 * time.Second
)

// Frame types.
const (
	frameStart   = "start"
	frameStop    = "stop"
	framePartial = "partial"
	frameFinal   = "final"
	frameError   = "error"
)

type clientFrame struct {
	Type       string `json:"type"`
	Language   string `json:"language,omitempty"`
	Format     string `json:"format,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

type serverFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// WSOptions configures a WSProvider.
type WSOptions struct {
	URL              string
	Format           string
	SampleRate       int
	ChunkSize        int
	HandshakeTimeout time.Duration
}

// =============================================================================
// WEBSOCKET PROVIDER
// =============================================================================

// WSProvider implements dictation.Provider over a websocket recognition
// service. One capture runs at a time.
type WSProvider struct {
	opts   WSOptions
	mic    Microphone
	dialer *websocket.Dialer
	logger zerolog.Logger

	mu     sync.Mutex
	active *capture
}

// capture is one running recognition session.
type capture struct {
	cancel  context.CancelFunc
	stopped bool // set by Stop; suppresses callbacks
}

// NewWSProvider creates a provider streaming mic to opts.URL.
func NewWSProvider(opts WSOptions, mic Microphone, logger zerolog.Logger) *WSProvider {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return &WSProvider{
		opts: opts,
		mic:  mic,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		logger: logger.With().Str("component", "speech").Logger(),
	}
}

// Start dials the service, opens the microphone and begins streaming.
// Setup failures are returned as *dictation.RecognitionError and no
// callback is invoked for them. A Stop during setup abandons the capture
// and Start returns nil.
func (p *WSProvider) Start(ctx context.Context, opts dictation.CaptureOptions, cb dictation.Callbacks) error {
	captureCtx, cancel := context.WithCancel(ctx)
	c := &capture{cancel: cancel}

	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		cancel()
		return &dictation.RecognitionError{Kind: dictation.ErrorAborted, Message: "capture already running"}
	}
	p.active = c
	p.mu.Unlock()

	// Stop cancels captureCtx, which also aborts a dial in progress.
	sessionID := uuid.NewString()
	conn, audio, err := p.open(captureCtx, sessionID, opts)
	if err != nil {
		cancel()
		if p.release(c) {
			return nil
		}
		return err
	}

	p.mu.Lock()
	stopped := c.stopped
	p.mu.Unlock()
	if stopped {
		audio.Close()
		conn.Close()
		return nil
	}

	logger := p.logger.With().Str("session", sessionID).Logger()
	logger.Debug().Str("url", p.opts.URL).Msg("recognition session opened")

	// Closing the connection unblocks the reader when the capture is stopped.
	go func() {
		<-captureCtx.Done()
		conn.Close()
	}()
	go p.stream(captureCtx, conn, audio, logger)
	go p.receive(captureCtx, conn, audio, c, cb, logger)
	return nil
}

// open dials the service, opens the microphone and sends the start frame.
func (p *WSProvider) open(ctx context.Context, sessionID string, opts dictation.CaptureOptions) (*websocket.Conn, io.ReadCloser, error) {
	header := http.Header{}
	header.Set("X-Session-Id", sessionID)

	conn, err := p.dial(ctx, header)
	if err != nil {
		return nil, nil, &dictation.RecognitionError{Kind: dictation.ErrorNetwork, Message: err.Error()}
	}

	audio, err := p.mic.Open(ctx)
	if err != nil {
		conn.Close()
		return nil, nil, &dictation.RecognitionError{Kind: dictation.ErrorAudioCapture, Message: err.Error()}
	}

	start := clientFrame{
		Type:       frameStart,
		Language:   opts.Language,
		Format:     p.opts.Format,
		SampleRate: p.opts.SampleRate,
	}
	if err := conn.WriteJSON(start); err != nil {
		audio.Close()
		conn.Close()
		return nil, nil, &dictation.RecognitionError{Kind: dictation.ErrorNetwork, Message: err.Error()}
	}
	return conn, audio, nil
}

// dial connects to the service. The handshake read does not watch ctx, so
// the dial runs on its own goroutine and a late connection is closed.
func (p *WSProvider) dial(ctx context.Context, header http.Header) (*websocket.Conn, error) {
	type result struct {
		conn *websocket.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, _, err := p.dialer.DialContext(ctx, p.opts.URL, header)
		done <- result{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Stop abandons the running capture, including one still being set up.
// No callback fires for it.
func (p *WSProvider) Stop() {
	p.mu.Lock()
	c := p.active
	p.active = nil
	if c != nil {
		c.stopped = true
	}
	p.mu.Unlock()
	if c != nil {
		c.cancel()
	}
}

// Active reports whether a capture is running or being set up.
func (p *WSProvider) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// release clears c as the active capture and reports whether it was stopped.
func (p *WSProvider) release(c *capture) (stopped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == c {
		p.active = nil
	}
	return c.stopped
}

// stream copies audio into binary frames and sends the stop frame at end of
// input. It is the only writer after Start returns.
func (p *WSProvider) stream(ctx context.Context, conn *websocket.Conn, audio io.Reader, logger zerolog.Logger) {
	buf := make([]byte, p.opts.ChunkSize)
	for {
		n, err := audio.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				logger.Debug().Err(werr).Msg("audio write failed")
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn().Err(err).Msg("microphone read failed")
			}
			break
		}
	}
	if err := conn.WriteJSON(clientFrame{Type: frameStop}); err != nil {
		logger.Debug().Err(err).Msg("stop frame write failed")
	}
}

// receive maps server frames to callbacks until the capture ends. The
// capture is released before any callback runs, so a callback may start
// the next one.
func (p *WSProvider) receive(ctx context.Context, conn *websocket.Conn, audio io.Closer, c *capture,
	cb dictation.Callbacks, logger zerolog.Logger) {
	var (
		final   *string
		failure *dictation.RecognitionError
	)
	defer func() {
		c.cancel()
		audio.Close()
		if p.release(c) {
			return
		}
		switch {
		case final != nil && cb.OnResult != nil:
			cb.OnResult(*final)
		case failure != nil:
			p.reportError(cb, failure)
		}
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				failure = &dictation.RecognitionError{Kind: dictation.ErrorAborted, Message: ctx.Err().Error()}
				return
			}
			kind := dictation.ErrorNetwork
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				kind = dictation.ErrorNoSpeech
			}
			logger.Debug().Err(err).Str("kind", string(kind)).Msg("recognition session closed")
			failure = &dictation.RecognitionError{Kind: kind, Message: err.Error()}
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Debug().Err(err).Msg("ignoring undecodable frame")
			continue
		}

		switch frame.Type {
		case framePartial:
			logger.Debug().Str("text", frame.Text).Msg("partial transcript")
		case frameFinal:
			text := frame.Text
			final = &text
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case frameError:
			failure = errorFromFrame(frame.Error)
			return
		}
	}
}

func (p *WSProvider) reportError(cb dictation.Callbacks, err *dictation.RecognitionError) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

// errorFromFrame maps a service error string to a recognition error.
func errorFromFrame(s string) *dictation.RecognitionError {
	switch kind := dictation.ErrorKind(s); kind {
	case dictation.ErrorNoSpeech, dictation.ErrorNetwork, dictation.ErrorNotAllowed,
		dictation.ErrorAudioCapture, dictation.ErrorAborted:
		return &dictation.RecognitionError{Kind: kind}
	default:
		return &dictation.RecognitionError{Kind: dictation.ErrorOther, Message: s}
	}
}
