// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/cloud"
	"github.com/jeranaias/chatwidget/internal/model"
)

// Querier performs the remote exchange. *cloud.Client implements it.
type Querier interface {
	Query(ctx context.Context, req cloud.QueryRequest) (*cloud.QueryResponse, error)
}

// Conversation is the state a turn reads and mutates. *session.Manager
// implements it.
type Conversation interface {
	Append(msg model.Message) error
	ReplaceTemporary(msg model.Message) error
	ConversationID() string
	SetConversationID(id string)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends user turns. Concurrent sends are allowed and complete
// independently.
type Client struct {
	querier  Querier
	conv     Conversation
	logger   zerolog.Logger
	inFlight atomic.Int32
}

// NewClient creates a chat client.
func NewClient(querier Querier, conv Conversation, logger zerolog.Logger) *Client {
	return &Client{
		querier: querier,
		conv:    conv,
		logger:  logger.With().Str("component", "chat").Logger(),
	}
}

// InFlight returns the number of requests awaiting a reply.
func (c *Client) InFlight() int {
	return int(c.inFlight.Load())
}

// Send runs one turn for userText and returns the assistant message that
// ended it.
//
// Blank input returns model.ErrEmptyText without touching the log or the
// network. Exchange failures are not returned: they become the reply.
func (c *Client) Send(ctx context.Context, userText string) (*model.Message, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, model.ErrEmptyText
	}

	if err := c.conv.Append(model.NewUserMessage(text)); err != nil {
		return nil, err
	}
	if err := c.conv.Append(model.NewTypingIndicator()); err != nil {
		return nil, err
	}

	c.inFlight.Add(1)
	start := time.Now()
	resp, err := c.querier.Query(ctx, cloud.QueryRequest{
		Query:          text,
		ConversationID: c.conv.ConversationID(),
	})
	c.inFlight.Add(-1)

	reply := c.replyText(resp, err)
	if err == nil && resp.ConversationID != "" {
		c.conv.SetConversationID(resp.ConversationID)
	}

	c.logger.Debug().
		Dur("duration", time.Since(start)).
		Str("kind", string(cloud.Kind(err))).
		Msg("turn completed")

	final := model.NewAssistantMessage(reply)
	if err := c.conv.ReplaceTemporary(final); err != nil {
		return nil, err
	}
	return &final, nil
}

// replyText maps the outcome of the exchange to the assistant's text.
func (c *Client) replyText(resp *cloud.QueryResponse, err error) string {
	switch {
	case err != nil:
		c.logger.Warn().Err(err).Str("kind", string(cloud.Kind(err))).Msg("query failed")
		return "Error: " + err.Error()
	case strings.TrimSpace(resp.Response) != "":
		return resp.Response
	case resp.Error != "":
		return "Error: " + resp.Error
	default:
		return model.NoResponseText
	}
}
