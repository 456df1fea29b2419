// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New(zerolog.Nop())

	var got []Message
	unsubscribe := bus.Subscribe(ActionCloseChatbot, func(m Message) { got = append(got, m) })
	bus.Subscribe(ActionToggleMinimize, func(Message) { t.Error("wrong action delivered") })

	assert.Equal(t, 1, bus.Publish(Message{Action: ActionCloseChatbot}))
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID, "publish assigns an id")

	unsubscribe()
	assert.Equal(t, 0, bus.Publish(Message{Action: ActionCloseChatbot}))
	assert.Len(t, got, 1)
}

func TestRequest_CorrelatesReply(t *testing.T) {
	bus := New(zerolog.Nop())

	var requestID string
	bus.Handle(ActionRequestMicrophone, func(_ context.Context, m Message) (any, error) {
		requestID = m.ID
		return "prompt-opened", nil
	})

	reply, err := bus.Request(context.Background(), Message{Action: ActionRequestMicrophone})
	require.NoError(t, err)
	assert.Equal(t, "prompt-opened", reply.Payload)
	assert.Equal(t, requestID, reply.ReplyTo)
	assert.NotEqual(t, reply.ID, reply.ReplyTo)
}

func TestRequest_NoHandler(t *testing.T) {
	bus := New(zerolog.Nop())
	_, err := bus.Request(context.Background(), Message{Action: ActionRequestMicrophone})
	assert.ErrorIs(t, err, ErrNoHandler)

	bus.Handle(ActionRequestMicrophone, func(context.Context, Message) (any, error) { return nil, nil })
	bus.Handle(ActionRequestMicrophone, nil)
	_, err = bus.Request(context.Background(), Message{Action: ActionRequestMicrophone})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestRequest_ResponderError(t *testing.T) {
	bus := New(zerolog.Nop())
	boom := errors.New("window blocked")
	bus.Handle(ActionRequestMicrophone, func(context.Context, Message) (any, error) { return nil, boom })

	_, err := bus.Request(context.Background(), Message{Action: ActionRequestMicrophone})
	assert.ErrorIs(t, err, boom)
}

func TestRequest_ContextTimeout(t *testing.T) {
	bus := New(zerolog.Nop())
	release := make(chan struct{})
	defer close(release)
	bus.Handle(ActionRequestMicrophone, func(context.Context, Message) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := bus.Request(ctx, Message{Action: ActionRequestMicrophone})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMicrophoneRequester(t *testing.T) {
	assert.ErrorIs(t, MicrophoneRequester{}.RequestMicrophone(context.Background()), ErrNoHandler)

	bus := New(zerolog.Nop())
	called := false
	bus.Handle(ActionRequestMicrophone, func(context.Context, Message) (any, error) {
		called = true
		return nil, nil
	})
	assert.NoError(t, MicrophoneRequester{Bus: bus}.RequestMicrophone(context.Background()))
	assert.True(t, called)
}
