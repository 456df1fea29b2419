// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by a Backend when a key has never been written.
var ErrNotFound = errors.New("key not found")

// PersistenceError reports a failed load or save of one key.
// It is meant to be logged; the widget never shows it to the user.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return "storage " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
