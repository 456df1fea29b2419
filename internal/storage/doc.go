// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the chat widget state in a key-value store scoped
// to one profile (data directory).
//
// # Key Types
//
//   - Backend: key-value storage (FileBackend, SQLiteBackend, MemoryBackend)
//   - Store: typed access to the chat log, minimized flag and conversation id
//   - Watcher: reports chat log writes made by other widget instances
//   - PersistenceError: load/save failure, logged by callers and never surfaced
//
// # Usage
//
//	backend, err := storage.Open(storage.BackendFile, dataDir)
//	store := storage.NewStore(backend, greeting)
//	log, err := store.LoadLog() // always usable, err only for logging
//	err = store.SaveLog(log)
//
// # Storage Layout
//
// Every save overwrites a whole key. Keys: chatMessages (JSON array of
// messages), chatMinimized (JSON bool), conversationId (JSON string).
package storage
