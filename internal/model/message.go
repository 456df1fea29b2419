// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and its messages.
package model

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/jeranaias/chatwidget/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// GreetingID is the id of the seeded greeting message.
const GreetingID int64 = 1

// DefaultGreeting is the assistant text every fresh conversation starts with.
const DefaultGreeting = "Hello! I'm your AI assistant. How can I help you today?"

// NoResponseText replaces an empty reply from the endpoint.
const NoResponseText = "No response received."

// TimestampLayout is the layout used for Message.Timestamp.
// Timestamps are advisory and never used for ordering.
var TimestampLayout = "Jan 2, 3:04 PM"

// Message is a single entry of the conversation log.
type Message struct {
	ID        int64  `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`

	// Placeholder state. A typing indicator is always temporary and has no text.
	IsTemporary bool `json:"isTemporary,omitempty"`
	IsTyping    bool `json:"isTyping,omitempty"`
}

// NewMessage creates a message stamped with a fresh id and the current time.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:        NextID(),
		Sender:    sender,
		Text:      text,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return NewMessage(SenderUser, text)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(text string) Message {
	return NewMessage(SenderAssistant, text)
}

// NewTypingIndicator creates the pending-reply placeholder.
func NewTypingIndicator() Message {
	msg := NewMessage(SenderAssistant, "")
	msg.IsTemporary = true
	msg.IsTyping = true
	return msg
}

// Greeting returns the seeded assistant greeting.
// An empty text falls back to DefaultGreeting.
func Greeting(text string) Message {
	if strings.TrimSpace(text) == "" {
		text = DefaultGreeting
	}
	return Message{
		ID:        GreetingID,
		Sender:    SenderAssistant,
		Text:      text,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// Validate checks the message against the log invariants.
func (m Message) Validate() error {
	if !m.Sender.Valid() {
		return &ValidationError{Field: "sender", Message: "unknown sender " + quote(string(m.Sender))}
	}
	if m.IsTyping && !m.IsTemporary {
		return &ValidationError{Field: "isTyping", Message: "typing indicator must be temporary"}
	}
	if m.IsTyping && m.Text != "" {
		return &ValidationError{Field: "text", Message: "typing indicator has text"}
	}
	if strings.TrimSpace(m.Text) == "" && !m.IsTyping {
		return ErrEmptyText
	}
	return nil
}

// Preview returns a single-line, rune-truncated preview of the text.
func (m Message) Preview(maxLen int) string {
	text := strings.ReplaceAll(m.Text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	return util.TruncateRunes(text, maxLen)
}

// =============================================================================
// IDS AND TIMESTAMPS
// =============================================================================

var lastID atomic.Int64

// NextID returns a time-derived id (Unix milliseconds) that is strictly
// greater than every id returned before it in this process.
func NextID() int64 {
	for {
		now := time.Now().UnixMilli()
		prev := lastID.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func quote(s string) string {
	return "\"" + s + "\""
}
