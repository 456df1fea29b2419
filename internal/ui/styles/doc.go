// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chat widget.
//
// Colors are Lip Gloss AdaptiveColor values so one palette serves light and
// dark terminals. A Theme bundles the styles the chat view and the CLI
// render with:
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	fmt.Println(theme.AssistantBubble.Render("Hi"))
//
// The typing indicator spinner is exposed as a bubbles spinner.Spinner via
// TypingSpinner.
package styles
