// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dictation

import "errors"

var (
	// ErrUnsupported means no speech-to-text provider is available.
	ErrUnsupported = errors.New("speech recognition is not supported on this platform")

	// ErrPermissionDenied means the host refused microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
)

// ErrorKind names a recognition failure.
type ErrorKind string

const (
	ErrorNoSpeech     ErrorKind = "no-speech"
	ErrorNetwork      ErrorKind = "network"
	ErrorNotAllowed   ErrorKind = "not-allowed"
	ErrorAudioCapture ErrorKind = "audio-capture"
	ErrorAborted      ErrorKind = "aborted"
	ErrorOther        ErrorKind = "other"
)

// RecognitionError is reported by a Provider when a capture fails.
type RecognitionError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *RecognitionError) Error() string {
	if e.Message == "" {
		return "speech recognition error: " + string(e.Kind)
	}
	return "speech recognition error: " + string(e.Kind) + ": " + e.Message
}

// Is matches another *RecognitionError of the same kind.
func (e *RecognitionError) Is(target error) bool {
	t, ok := target.(*RecognitionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// AsRecognitionError returns err as a *RecognitionError, wrapping foreign
// errors with ErrorOther.
func AsRecognitionError(err error) *RecognitionError {
	var rerr *RecognitionError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &RecognitionError{Kind: ErrorOther, Message: err.Error()}
}
