// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdHistory
	CmdClear
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdHistory:
		return "history"
	case CmdClear:
		return "clear"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Endpoint   string
	Storage    string
	LogLevel   string
	Quiet      bool
	Verbose    bool
	JSON       bool
	NoColor    bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Markdown   bool
	Force      bool

	// Unknown is set when the first argument named no command.
	Unknown string

	Raw []string
}

// boolFlags never consume the following argument.
var boolFlags = []string{
	"q", "quiet", "v", "verbose", "json", "no-color", "markdown", "md", "force", "h", "help", "version",
}

const usageText = `chatwidget - a conversational assistant in your terminal

Usage:
  chatwidget                       Open the chat view (default)
  chatwidget chat                  Line-editing chat session
  chatwidget ask "question"        Ask one question, print the reply
  chatwidget history [--json|--markdown]
                                   Print the saved conversation
  chatwidget clear                 Start a new conversation
  chatwidget config [show|path|init|get|set]
                                   Configuration
  chatwidget version               Version information
  chatwidget help                  This help

Global flags:
  --config PATH       Use a specific config file (.toml or .json)
  --endpoint URL      Query endpoint (default http://127.0.0.1:8000/query)
  --storage KIND      file, sqlite or memory
  --log-level LEVEL   debug, info, warn, error
  --json              Machine-readable output
  --no-color          Disable colors
  -q, --quiet         Less output
  -v, --verbose       Log to the console at debug level

Chat view keys:
  Enter send, Ctrl+R dictate, Ctrl+L clear, Ctrl+N minimize, Esc close

REPL commands:
  /help, /clear, /history, /dictate, /quit

Environment:
  CHATWIDGET_ENDPOINT, CHATWIDGET_DATA_DIR, CHATWIDGET_STORAGE,
  CHATWIDGET_LOG_LEVEL, CHATWIDGET_DICTATION_URL, CHATWIDGET_LANGUAGE
  A .env file in the working directory is loaded first.
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// VersionString returns the one-line version description.
func VersionString() string {
	return fmt.Sprintf("chatwidget %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		Endpoint:   p.Flag("endpoint"),
		Storage:    p.Flag("storage"),
		LogLevel:   p.Flag("log-level"),
		Quiet:      p.BoolFlag("q", "quiet"),
		Verbose:    p.BoolFlag("v", "verbose"),
		JSON:       p.BoolFlag("json"),
		NoColor:    p.BoolFlag("no-color"),
		Markdown:   p.BoolFlag("markdown", "md"),
		Force:      p.BoolFlag("force"),
		Raw:        argv,
	}

	if p.BoolFlag("h", "help") {
		return CmdHelp, args
	}
	if p.BoolFlag("version") {
		return CmdVersion, args
	}
	if p.PositionalCount() == 0 {
		return CmdTUI, args
	}

	rest := p.PositionalFrom(1)
	switch name := strings.ToLower(p.Subcommand()); name {
	case "tui":
		return CmdTUI, args

	case "chat", "repl":
		return CmdChat, args

	case "ask", "a":
		args.Query = strings.Join(rest, " ")
		return CmdAsk, args

	case "history", "log":
		return CmdHistory, args

	case "clear", "reset":
		return CmdClear, args

	case "config":
		if len(rest) > 0 {
			args.Subcommand = strings.ToLower(rest[0])
		}
		if len(rest) > 1 {
			args.ConfigKey = rest[1]
		}
		if len(rest) > 2 {
			args.ConfigVal = strings.Join(rest[2:], " ")
		}
		return CmdConfig, args

	case "version":
		return CmdVersion, args

	case "help":
		return CmdHelp, args

	default:
		args.Unknown = name
		return CmdHelp, args
	}
}
