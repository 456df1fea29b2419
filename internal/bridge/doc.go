// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge is the message channel between the widget and the program
// hosting it.
//
// The widget publishes actions (close, minimize) the host reacts to, and
// makes requests (open a microphone prompt) the host may answer. Requests
// carry a uuid that the reply echoes in ReplyTo.
//
//	bus := bridge.New(logger)
//	bus.Subscribe(bridge.ActionCloseChatbot, func(bridge.Message) { quit() })
//	bus.Publish(bridge.Message{Action: bridge.ActionCloseChatbot})
package bridge
