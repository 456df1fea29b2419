// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatwidget/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid command usage.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s (see 'chatwidget help')", e.Command, e.Reason)
}

// CommandError reports a failed command action.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrUnknownCommand is wrapped by the error for an unrecognized command.
var ErrUnknownCommand = errors.New("unknown command")

// ExitCode maps an error returned by a handler to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) || errors.Is(err, ErrUnknownCommand) {
		return ExitUsageError
	}

	var verrs config.ValidateErrors
	var verr config.ValidationError
	if errors.As(err, &verrs) || errors.As(err, &verr) {
		return ExitConfigError
	}
	return ExitGeneralError
}
