// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and its messages.
package model

import (
	"errors"
	"fmt"
)

// =============================================================================
// LOG TYPE
// =============================================================================

// Log is the ordered conversation log. Insertion order is display order.
type Log []Message

// DefaultLog returns a log holding only the seeded greeting.
func DefaultLog(greeting string) Log {
	return Log{Greeting(greeting)}
}

// Clone returns an independent copy of the log.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}

// Append returns the log with msg added at the tail.
func (l Log) Append(msg Message) (Log, error) {
	if err := msg.Validate(); err != nil {
		return l, err
	}
	return append(l, msg), nil
}

// WithoutTemporary returns a copy of the log with placeholder entries removed,
// along with the number of entries dropped.
func (l Log) WithoutTemporary() (Log, int) {
	out := make(Log, 0, len(l))
	for _, msg := range l {
		if msg.IsTemporary {
			continue
		}
		out = append(out, msg)
	}
	return out, len(l) - len(out)
}

// WithoutInvalid returns a copy of the log keeping only entries that pass
// Validate. The error joins the validation errors of the dropped entries and
// is nil when nothing was dropped.
func (l Log) WithoutInvalid() (Log, error) {
	out := make(Log, 0, len(l))
	var errs []error
	for _, msg := range l {
		if err := msg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", msg.ID, err))
			continue
		}
		out = append(out, msg)
	}
	return out, errors.Join(errs...)
}

// TemporaryCount returns how many placeholder entries the log holds.
func (l Log) TemporaryCount() int {
	n := 0
	for _, msg := range l {
		if msg.IsTemporary {
			n++
		}
	}
	return n
}

// Last returns the most recent message, or false if the log is empty.
func (l Log) Last() (Message, bool) {
	if len(l) == 0 {
		return Message{}, false
	}
	return l[len(l)-1], true
}

// LastBySender returns the most recent message from sender.
func (l Log) LastBySender(sender Sender) (Message, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Sender == sender {
			return l[i], true
		}
	}
	return Message{}, false
}

// Validate checks every entry. It returns the first invalid entry's error.
func (l Log) Validate() error {
	for _, msg := range l {
		if err := msg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsPristine reports whether the log holds nothing but the seeded greeting.
func (l Log) IsPristine() bool {
	return len(l) == 1 && l[0].ID == GreetingID && l[0].Sender == SenderAssistant
}
