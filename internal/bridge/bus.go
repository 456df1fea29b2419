// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Action names a bridge message.
type Action string

const (
	ActionCloseChatbot      Action = "closeChatbot"
	ActionToggleMinimize    Action = "toggleMinimize"
	ActionRequestMicrophone Action = "requestMicrophone"
)

// ErrNoHandler means nobody answers requests for the action.
var ErrNoHandler = errors.New("no handler for action")

// Message travels over the bus.
type Message struct {
	ID      string
	ReplyTo string
	Action  Action
	Payload any
}

// Responder answers a request.
type Responder func(ctx context.Context, msg Message) (any, error)

type reply struct {
	msg Message
	err error
}

// =============================================================================
// BUS
// =============================================================================

// Bus delivers published messages to subscribers and requests to the one
// responder registered for their action.
type Bus struct {
	logger zerolog.Logger

	mu          sync.Mutex
	subscribers map[Action]map[int]func(Message)
	responders  map[Action]Responder
	pending     map[string]chan reply
	nextSub     int
}

// New creates an empty bus.
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		logger:      logger.With().Str("component", "bridge").Logger(),
		subscribers: make(map[Action]map[int]func(Message)),
		responders:  make(map[Action]Responder),
		pending:     make(map[string]chan reply),
	}
}

// Publish delivers msg to every subscriber of msg.Action, synchronously and
// outside the bus lock. It returns the number of subscribers reached.
func (b *Bus) Publish(msg Message) int {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	b.mu.Lock()
	fns := make([]func(Message), 0, len(b.subscribers[msg.Action]))
	for _, fn := range b.subscribers[msg.Action] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	b.logger.Debug().Str("action", string(msg.Action)).Int("subscribers", len(fns)).Msg("publish")
	for _, fn := range fns {
		fn(msg)
	}
	return len(fns)
}

// Subscribe registers fn for action. The returned func removes it.
func (b *Bus) Subscribe(action Action, fn func(Message)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	if b.subscribers[action] == nil {
		b.subscribers[action] = make(map[int]func(Message))
	}
	b.subscribers[action][id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers[action], id)
		b.mu.Unlock()
	}
}

// Handle makes fn the responder for action, replacing any previous one.
// A nil fn removes the responder.
func (b *Bus) Handle(action Action, fn Responder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		delete(b.responders, action)
		return
	}
	b.responders[action] = fn
}

// Request sends msg to the responder for msg.Action and waits for its reply
// or for ctx to end.
func (b *Bus) Request(ctx context.Context, msg Message) (Message, error) {
	msg.ID = uuid.NewString()

	b.mu.Lock()
	responder, ok := b.responders[msg.Action]
	if !ok {
		b.mu.Unlock()
		return Message{}, fmt.Errorf("%w: %s", ErrNoHandler, msg.Action)
	}
	ch := make(chan reply, 1)
	b.pending[msg.ID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}()

	go func() {
		payload, err := responder(ctx, msg)
		b.deliver(Message{
			ID:      uuid.NewString(),
			ReplyTo: msg.ID,
			Action:  msg.Action,
			Payload: payload,
		}, err)
	}()

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// deliver routes a reply to the waiting request, if it is still waiting.
func (b *Bus) deliver(msg Message, err error) {
	b.mu.Lock()
	ch, ok := b.pending[msg.ReplyTo]
	b.mu.Unlock()
	if !ok {
		b.logger.Debug().Str("reply_to", msg.ReplyTo).Msg("dropping reply to abandoned request")
		return
	}
	ch <- reply{msg: msg, err: err}
}

// =============================================================================
// ADAPTERS
// =============================================================================

// MicrophoneRequester asks the host, over the bus, to open its own
// microphone permission prompt.
type MicrophoneRequester struct {
	Bus *Bus
}

// RequestMicrophone sends a requestMicrophone request.
func (m MicrophoneRequester) RequestMicrophone(ctx context.Context) error {
	if m.Bus == nil {
		return ErrNoHandler
	}
	_, err := m.Bus.Request(ctx, Message{Action: ActionRequestMicrophone})
	return err
}
