// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a key-value store for small JSON blobs.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set overwrites the value stored under key.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases any resources held by the backend.
	Close() error
}

// Backend kinds accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SQLiteFileName is the database file used by the sqlite backend.
const SQLiteFileName = "chatwidget.db"

// Open creates the backend of the given kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendFile:
		return NewFileBackend(dir)
	case BackendSQLite:
		return NewSQLiteBackend(filepath.Join(dir, SQLiteFileName))
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Get implements Backend.
func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements Backend.
func (b *MemoryBackend) Set(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	b.mu.Lock()
	b.values[key] = v
	b.mu.Unlock()
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	delete(b.values, key)
	b.mu.Unlock()
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
