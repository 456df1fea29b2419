// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the frames of a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration of one frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second / 10
	}
	return time.Second / time.Duration(s.FPS)
}

// Spinner converts the config for use with the bubbles spinner.
func (s SpinnerConfig) Spinner() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.Duration()}
}

// DotsSpinner - three-dot animation for the typing indicator
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// PulseSpinner - pulsing marker for an active recording
var PulseSpinner = SpinnerConfig{
	Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)"},
	FPS:    8,
}

// TypingSpinner returns the spinner shown in place of the typing indicator.
func TypingSpinner() spinner.Spinner {
	return DotsSpinner.Spinner()
}
