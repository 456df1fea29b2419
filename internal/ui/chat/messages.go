// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// WIDGET EVENT MESSAGES
// =============================================================================

// LogChangedMsg reports that the conversation log changed. The model reads
// the current log from its Core, so late or reordered messages are harmless.
type LogChangedMsg struct{}

// DictationChangedMsg reports a dictation status change.
type DictationChangedMsg struct{}

// MinimizedChangedMsg reports a change of the minimized flag.
type MinimizedChangedMsg struct{}

// AlertMsg carries a blocking notice for the user.
type AlertMsg struct {
	Text string
}

// CloseMsg asks the view to exit.
type CloseMsg struct{}

// =============================================================================
// COMMAND RESULT MESSAGES
// =============================================================================

// SendDoneMsg reports the end of one chat turn.
type SendDoneMsg struct {
	Err error
}

// DictationDoneMsg reports the result of a dictation toggle.
type DictationDoneMsg struct {
	Err error
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func sendCmd(core Core, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := core.SendText(context.Background(), text)
		return SendDoneMsg{Err: err}
	}
}

func dictateCmd(core Core) tea.Cmd {
	return func() tea.Msg {
		return DictationDoneMsg{Err: core.ToggleDictation(context.Background())}
	}
}
