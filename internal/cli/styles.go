// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)

	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimary).MarginTop(1)

	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(27)

	ValueStyle = lipgloss.NewStyle().Foreground(styles.Emerald)

	DimStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)

	UserStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)

	AssistantStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
)

// applyColorProfile points lipgloss at the detected color profile.
func applyColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}
