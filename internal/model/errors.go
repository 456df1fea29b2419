// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// ErrEmptyText is returned when a non-typing message has no text.
// Use errors.Is(err, ErrEmptyText) to check for this error.
var ErrEmptyText = &ValidationError{Field: "text", Message: "message text is empty"}

// ValidationError reports a message that violates the log invariants.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is implements errors.Is support for comparing validation errors.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Field == t.Field && e.Message == t.Message
}
