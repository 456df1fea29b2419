// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether r is a terminal. Readers that are not files
// never are.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	DefaultTerminalWidth = 80
	MinTerminalWidth     = 40
)

// GetTerminalWidth returns the width of stdout, or DefaultTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// WrapText wraps text at word boundaries to maxWidth display columns,
// keeping existing newlines.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = GetTerminalWidth()
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		if runewidth.StringWidth(line) <= maxWidth {
			out.WriteString(line)
			continue
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= maxWidth {
				current += " " + word
				continue
			}
			out.WriteString(current + "\n")
			current = word
		}
		out.WriteString(current)
	}
	return out.String()
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
	colorsMu          sync.Mutex
)

// ColorsEnabled reports whether colored output should be used. NO_COLOR
// disables colors, FORCE_COLOR enables them, otherwise stdout must be a TTY.
func ColorsEnabled() bool {
	colorsMu.Lock()
	defer colorsMu.Unlock()
	colorsEnabledOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorsEnabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsEnabled = true
		default:
			colorsEnabled = IsStdoutTTY()
		}
	})
	return colorsEnabled
}

// ForceColorsEnabled overrides color detection, for --no-color and tests.
func ForceColorsEnabled(enabled bool) {
	colorsMu.Lock()
	defer colorsMu.Unlock()
	colorsEnabledOnce.Do(func() {})
	colorsEnabled = enabled
}

// GetColorProfile returns the termenv profile to render with.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
