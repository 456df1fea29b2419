// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view of the widget.
//
// Model is a Bubble Tea model over a Core (normally *widget.Widget). It
// never mutates the conversation itself: key presses become widget intents,
// and widget events come back as Bubble Tea messages through Subscribe.
//
//	m := chat.New(w, chat.Options{Theme: theme, RenderMarkdown: true})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	cancel := chat.Subscribe(w, p.Send)
//	defer cancel()
//	_, err := p.Run()
//
// # Keys
//
//   - Enter: send (ignored while a reply is pending)
//   - Ctrl+L: clear the conversation
//   - Ctrl+R: start or stop dictation
//   - Ctrl+N: minimize or restore
//   - Esc, Ctrl+C: close
package chat
