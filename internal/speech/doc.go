// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides a dictation provider that streams microphone audio
// to a websocket speech-recognition service.
//
// # Protocol
//
// After dialing, the client sends a JSON start frame, then raw audio as
// binary frames, then a JSON stop frame when the input ends:
//
//	{"type":"start","language":"en-US","format":"pcm_s16le","sample_rate":16000}
//	<binary audio>...
//	{"type":"stop"}
//
// The service answers with JSON frames:
//
//	{"type":"partial","text":"what's the"}
//	{"type":"final","text":"what's the weather"}
//	{"type":"error","error":"no-speech"}
//
// A final frame ends the capture. A service that closes the connection
// without a final frame reports no speech.
package speech
