// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/storage"
	"github.com/jeranaias/chatwidget/internal/widget"
)

// historyFileName holds REPL input history in the config directory.
const historyFileName = "chat_history"

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-oriented chat session.
type REPL struct {
	w        *widget.Widget
	out      io.Writer
	markdown bool

	mu      sync.Mutex
	printed int // log entries already shown
	typed   int // user entries that came from the prompt and need no echo
}

// NewREPL creates a REPL over w printing to out.
func NewREPL(w *widget.Widget, out io.Writer, markdown bool) *REPL {
	r := &REPL{w: w, out: out, markdown: markdown}
	r.printed = len(w.Snapshot())
	return r
}

// HandleChat runs the REPL until /quit, Ctrl+D or ctx is cancelled.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	w, err := env.Widget()
	if err != nil {
		return err
	}
	w.Start(ctx)
	out := env.stdout()
	repl := NewREPL(w, out, env.Config.UI.RenderMarkdown)

	cancelLog := w.OnLogChanged(func(model.Log) { repl.printNew() })
	defer cancelLog()
	cancelAlert := w.OnAlert(func(text string) {
		fmt.Fprintln(out, DimStyle.Render("[!] ")+text)
	})
	defer cancelAlert()

	if !args.Quiet {
		repl.banner()
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	historyPath := inputHistoryPath()
	loadInputHistory(line, historyPath)
	defer saveInputHistory(line, historyPath)

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return &CommandError{Command: "chat", Action: "read input", Err: err}
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if repl.Handle(ctx, input) {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the session should end.
func (r *REPL) Handle(ctx context.Context, input string) (quit bool) {
	if strings.HasPrefix(input, "/") {
		return r.command(ctx, input)
	}

	r.mu.Lock()
	r.typed++
	r.mu.Unlock()

	if _, err := r.w.SendText(ctx, input); err != nil {
		r.mu.Lock()
		r.typed--
		r.mu.Unlock()
		return false
	}
	r.printNew()
	return false
}

func (r *REPL) command(ctx context.Context, input string) bool {
	name, _, _ := strings.Cut(strings.ToLower(input), " ")
	switch name {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, "Commands: /clear  /history  /dictate  /quit")

	case "/clear", "/c":
		r.w.ClearConversation()
		fmt.Fprintln(r.out, DimStyle.Render("Conversation cleared."))

	case "/history":
		fmt.Fprint(r.out, storage.FormatLog(r.w.Snapshot(), GetTerminalWidth()))

	case "/dictate", "/d":
		if err := r.w.ToggleDictation(ctx); err == nil {
			if r.w.DictationStatus().IsRecording() {
				fmt.Fprintln(r.out, DimStyle.Render("Listening... /dictate again to stop."))
			}
		}

	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help.\n", name)
	}
	return false
}

// printNew prints log entries that appeared since the last call. A
// placeholder stops the scan until it is replaced. A shorter log means the
// conversation was reset, so it is printed from the start.
func (r *REPL) printNew() {
	log := r.w.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(log) < r.printed {
		r.printed = 0
	}
	for ; r.printed < len(log); r.printed++ {
		msg := log[r.printed]
		if msg.IsTemporary {
			return
		}
		if msg.Sender == model.SenderUser && r.typed > 0 {
			r.typed--
			continue
		}
		fmt.Fprintln(r.out, formatMessage(msg, r.markdown))
	}
}

func (r *REPL) banner() {
	log := r.w.Snapshot()
	fmt.Fprintln(r.out, TitleStyle.Render("chatwidget")+DimStyle.Render("  /help for commands, Ctrl+D to exit"))
	if log.IsPristine() {
		fmt.Fprintln(r.out, formatMessage(log[0], r.markdown))
		return
	}
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("Restored %d messages. /history to view.", len(log))))
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

func inputHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, historyFileName)
}

func loadInputHistory(line *liner.State, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.ReadHistory(f)
}

func saveInputHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
