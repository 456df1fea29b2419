// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the in-memory conversation state of the widget.
//
// # Key Types
//
//   - Manager: the ordered message log plus the conversation identifier
//   - Persister: where every mutation is synced (usually a *storage.Store)
//
// # Usage
//
//	mgr := session.NewManager(store, cfg.Chat.Greeting, logger)
//	cancel := mgr.Subscribe(func(log model.Log) { render(log) })
//	defer cancel()
//
//	_ = mgr.Append(model.NewUserMessage("Hello"))
//	mgr.Reset()
//
// Listeners always receive a copy of the log. Persistence failures are logged
// and never returned to the caller.
package session
