// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one chat turn: record the user's text, show a typing
// placeholder, ask the endpoint, and replace the placeholder with the reply.
//
// Every failure of the exchange becomes an assistant message starting with
// "Error: ". Send only returns an error when there was nothing to send.
package chat
