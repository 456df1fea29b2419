// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and its messages.
//
// # Key Types
//
//   - Message: one log entry with id, sender, text and placeholder flags
//   - Log: the ordered conversation log
//   - Sender: message author enumeration (user, assistant)
//   - ValidationError: invariant violations such as ErrEmptyText
//
// # Usage
//
//	log := model.DefaultLog("")
//	log, err := log.Append(model.NewUserMessage("Hello"))
//	if errors.Is(err, model.ErrEmptyText) {
//	    // nothing to send
//	}
package model
