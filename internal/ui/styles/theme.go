// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds the styled components of the chat view.
type Theme struct {
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Frame
	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style
	Minimized   lipgloss.Style

	// Messages
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style
	Typing          lipgloss.Style

	// Input and status
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	MicIdle        lipgloss.Style
	MicRecording   lipgloss.Style
	MicBlocked     lipgloss.Style

	// Alerts
	AlertBox   lipgloss.Style
	AlertTitle lipgloss.Style
}

// NewTheme creates a theme. name is ThemeDark, ThemeLight or ThemeAuto;
// anything else is treated as ThemeAuto.
func NewTheme(name string) *Theme {
	profile := termenv.ColorProfile()

	var dark bool
	switch strings.ToLower(name) {
	case ThemeDark:
		dark = true
	case ThemeLight:
		dark = false
	default:
		name = ThemeAuto
		dark = termenv.HasDarkBackground()
	}
	if name != ThemeAuto {
		lipgloss.SetHasDarkBackground(dark)
	}

	t := &Theme{Name: strings.ToLower(name), IsDark: dark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.Minimized = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Typing = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.MicIdle = lipgloss.NewStyle().Foreground(Emerald)
	t.MicRecording = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.MicBlocked = lipgloss.NewStyle().Foreground(Amber)

	t.AlertBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Background(Surface).
		Padding(0, 2)
	t.AlertTitle = lipgloss.NewStyle().Bold(true).Foreground(Amber)
}

// SetSize updates the theme dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the maximum width of a message bubble at the current size.
func (t *Theme) BubbleWidth() int {
	w := t.Width - 10
	if w < 20 {
		w = 20
	}
	if w > 100 {
		w = 100
	}
	return w
}

// GlamourStyle names the glamour style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}
