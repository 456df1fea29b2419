// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/chatwidget/internal/storage"
)

// HistoryResult is the --json payload of history.
type HistoryResult struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	Messages       json.RawMessage `json:"messages"`
}

// HandleHistory prints the persisted conversation as a table, Markdown
// (--markdown) or JSON (--json).
func HandleHistory(env *Env, args Args) error {
	w, err := env.Widget()
	if err != nil {
		return err
	}
	log := w.Snapshot()
	out := env.stdout()

	switch {
	case args.JSON:
		data, err := storage.ExportJSON(log)
		if err != nil {
			return &CommandError{Command: "history", Action: "export", Err: err}
		}
		return NewJSONResponse("history", HistoryResult{
			ConversationID: w.ConversationID(),
			Messages:       data,
		}).Print(out)

	case args.Markdown:
		fmt.Fprint(out, storage.ExportMarkdown(log, w.ConversationID()))
		return nil

	default:
		fmt.Fprint(out, storage.FormatLog(log, GetTerminalWidth()))
		return nil
	}
}

// HandleClear resets the conversation to the greeting.
func HandleClear(env *Env, args Args) error {
	w, err := env.Widget()
	if err != nil {
		return err
	}
	w.ClearConversation()
	if !args.Quiet {
		fmt.Fprintln(env.stdout(), "Conversation cleared.")
	}
	return nil
}
