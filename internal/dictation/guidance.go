// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dictation

import "strings"

// Platform selects the wording of microphone guidance.
type Platform string

const (
	PlatformChrome  Platform = "chrome"
	PlatformEdge    Platform = "edge"
	PlatformFirefox Platform = "firefox"
	PlatformSafari  Platform = "safari"
	PlatformGeneric Platform = "generic"
)

// ParsePlatform maps a name to a Platform; unknown names yield PlatformGeneric.
func ParsePlatform(name string) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(name))); p {
	case PlatformChrome, PlatformEdge, PlatformFirefox, PlatformSafari:
		return p
	default:
		return PlatformGeneric
	}
}

const guidancePrefix = "I can't hear you because microphone access is blocked. "

// PermissionGuidance returns the assistant message explaining how to grant
// microphone access on p.
func PermissionGuidance(p Platform) string {
	switch p {
	case PlatformChrome:
		return guidancePrefix + "In Chrome, click the camera icon at the right of the address bar, " +
			"choose \"Always allow\" for the microphone, then try dictation again."
	case PlatformEdge:
		return guidancePrefix + "In Edge, open Settings > Cookies and site permissions > Microphone, " +
			"allow this site, then try dictation again."
	case PlatformFirefox:
		return guidancePrefix + "In Firefox, click the microphone icon in the address bar, " +
			"remove the \"Blocked\" permission, then try dictation again."
	case PlatformSafari:
		return guidancePrefix + "In Safari, open Settings for This Website and set Microphone to \"Allow\", " +
			"then try dictation again."
	default:
		return guidancePrefix + "Allow this application to use the microphone in your system's " +
			"privacy settings, then try dictation again."
	}
}

// AlertText returns the blocking notice shown for a recognition failure.
func AlertText(kind ErrorKind) string {
	switch kind {
	case ErrorNoSpeech:
		return "No speech was detected. Please try again."
	case ErrorNetwork:
		return "Speech recognition needs a network connection. Check your connection and try again."
	case ErrorAudioCapture:
		return "No microphone was found. Check that one is connected."
	case ErrorAborted:
		return "Speech recognition was interrupted."
	default:
		return "Speech recognition failed. Please try again."
	}
}

// UnsupportedText is the notice shown when no provider is available.
const UnsupportedText = "Speech recognition is not supported here. Please type your message instead."
