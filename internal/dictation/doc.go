// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dictation turns a speech-to-text provider into a text source for
// the chat.
//
// # State Machine
//
//	Idle --start--> Requesting --granted--> Recording --result/error/end/stop--> Idle
//	                Requesting --denied--> Denied --> Idle
//
// Only one capture runs at a time. Starting while recording stops the
// capture. Events from a capture that was stopped are ignored.
//
// # Key Types
//
//   - Adapter: the state machine
//   - Provider: the injected speech-to-text capability
//   - PermissionRequester: asks the host for the microphone
//   - RecognitionError: a provider failure with its ErrorKind
package dictation
