// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatwidget/internal/model"
)

// maxStdinQuery bounds a question read from a pipe.
const maxStdinQuery = 64 * 1024

// AskResult is the --json payload of ask.
type AskResult struct {
	Query          string `json:"query"`
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// HandleAsk runs one chat turn and prints the reply. With no query on the
// command line the question is read from a piped stdin.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" && !isTerminal(env.stdin()) {
		data, err := io.ReadAll(io.LimitReader(env.stdin(), maxStdinQuery))
		if err != nil {
			return &CommandError{Command: "ask", Action: "read stdin", Err: err}
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return &UsageError{Command: "ask", Reason: "no question given"}
	}

	w, err := env.Widget()
	if err != nil {
		return err
	}

	run := func() (any, error) {
		reply, err := w.SendText(ctx, query)
		if err != nil {
			return nil, err
		}
		return AskResult{Query: query, Response: reply.Text, ConversationID: w.ConversationID()}, nil
	}

	if args.JSON {
		return OutputJSON(env.stdout(), "ask", run)
	}
	result, err := run()
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout(), renderReply(result.(AskResult).Response, env.Config.UI.RenderMarkdown))
	return nil
}

// renderReply renders Markdown for a color terminal and returns plain
// wrapped text otherwise.
func renderReply(text string, markdown bool) string {
	if !markdown || !ColorsEnabled() {
		return WrapText(text, GetTerminalWidth())
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()-4),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// formatMessage renders one log entry for line-oriented output.
func formatMessage(msg model.Message, markdown bool) string {
	label := AssistantStyle.Render(msg.Sender.DisplayName() + ":")
	if msg.Sender == model.SenderUser {
		label = UserStyle.Render(msg.Sender.DisplayName() + ":")
	}
	if msg.Sender == model.SenderAssistant {
		return label + "\n" + renderReply(msg.Text, markdown)
	}
	return label + " " + msg.Text
}
