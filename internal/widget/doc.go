// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget is the single entry point presentations use.
//
// A Widget owns the conversation, the chat client, the dictation adapter and
// the bridge to the host. Presentations call its intents and listen to its
// events; they never reach into the components directly.
//
// # Intents
//
//   - SendText, ClearConversation
//   - StartDictation, StopDictation, ToggleDictation
//   - Close, SetMinimized, ToggleMinimized
//
// # Events
//
//   - OnLogChanged, OnDictationStateChanged, OnAlert, OnClose, OnMinimizedChanged
//
// # Usage
//
//	w, err := widget.Build(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Shutdown()
//	w.Start(ctx)
package widget
