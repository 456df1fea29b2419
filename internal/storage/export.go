// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/util"
)

// =============================================================================
// LOG EXPORT
// =============================================================================

// ExportMarkdown renders the log as Markdown with one section per message.
func ExportMarkdown(log model.Log, conversationID string) string {
	var sb strings.Builder
	sb.WriteString("# Chat history\n\n")
	if conversationID != "" {
		sb.WriteString("Conversation: " + conversationID + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range log {
		if msg.IsTemporary {
			continue
		}
		sb.WriteString("**" + msg.Sender.DisplayName() + "**")
		if msg.Timestamp != "" {
			sb.WriteString(" (" + msg.Timestamp + ")")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON returns the log as pretty-printed JSON, placeholders excluded.
func ExportJSON(log model.Log) ([]byte, error) {
	persisted, _ := log.WithoutTemporary()
	return json.MarshalIndent(persisted, "", "  ")
}

// FormatLog renders the log as a plain table for terminal output.
func FormatLog(log model.Log, width int) string {
	if len(log) == 0 {
		return "No messages."
	}
	if width < 40 {
		width = 40
	}

	var sb strings.Builder
	for _, msg := range log {
		if msg.IsTemporary {
			continue
		}
		who := util.PadRight(msg.Sender.DisplayName(), 10)
		when := util.PadRight(msg.Timestamp, 16)
		sb.WriteString(who + " " + when + " " + msg.Preview(width-28) + "\n")
	}
	return sb.String()
}
