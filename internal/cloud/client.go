// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultURL is the query endpoint used when none is configured.
const DefaultURL = "http://127.0.0.1:8000/query"

// DefaultUserAgent identifies the widget to the endpoint.
const DefaultUserAgent = "chatwidget/1.0"

// QueryRequest is the body of one chat turn.
type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// QueryResponse is the body the endpoint answers with.
// Error is set by endpoints that report failures inside a 2xx body.
type QueryResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Options configures a Client.
type Options struct {
	// URL is the full endpoint URL (default DefaultURL).
	URL string

	// Timeout bounds each request. Zero means no timeout; the caller's
	// context still applies.
	Timeout time.Duration

	// UserAgent overrides DefaultUserAgent.
	UserAgent string
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts chat turns to the query endpoint.
type Client struct {
	http   *resty.Client
	url    string
	logger zerolog.Logger
}

// NewClient creates a client for opts.URL.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	logger = logger.With().Str("component", "cloud").Logger()

	httpClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(0).
		SetLogger(restyLogger{logger})
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("query completed")
		return nil
	})

	return &Client{
		http:   httpClient,
		url:    opts.URL,
		logger: logger,
	}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Query performs one request. It never retries.
//
// Errors are *NetworkError (no HTTP response), *ServerError (non-2xx) or
// *MalformedResponseError (2xx body that is not a JSON object).
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.url)
	if err != nil {
		c.logger.Warn().Err(err).Msg("query request failed")
		return nil, &NetworkError{Err: err}
	}

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.logger.Warn().Int("status", resp.StatusCode()).Msg("query endpoint returned an error status")
		return nil, &ServerError{Status: resp.StatusCode()}
	}

	out, err := decodeResponse(resp.Body())
	if err != nil {
		c.logger.Warn().Err(err).Msg("query endpoint returned a malformed body")
		return nil, &MalformedResponseError{Err: err}
	}
	return out, nil
}

// decodeResponse accepts only a JSON object. Unknown fields are ignored.
func decodeResponse(body []byte) (*QueryResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] != '{' {
		return nil, errors.New("body is not a JSON object")
	}

	var out QueryResponse
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// restyLogger routes resty's internal messages into zerolog.
type restyLogger struct {
	l zerolog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) { r.l.Error().Msgf(format, v...) }
func (r restyLogger) Warnf(format string, v ...interface{})  { r.l.Warn().Msgf(format, v...) }
func (r restyLogger) Debugf(format string, v ...interface{}) { r.l.Debug().Msgf(format, v...) }
