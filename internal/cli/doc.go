// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the one-shot commands of
// the chat widget.
//
// # Commands
//
//   - tui (default): full-screen chat view
//   - chat: line-editing REPL
//   - ask <text>: one chat turn, reply on stdout
//   - history [--json|--markdown]: print the persisted log
//   - clear: reset the conversation
//   - config [show|path|init|get|set]: configuration
//   - version, help
//
// Handlers take an *Env, which carries the loaded configuration, the
// logger and the output streams, and return errors instead of printing
// them. main decides the exit code with ExitCode.
package cli
