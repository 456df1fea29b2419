// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/chatwidget/internal/model"
)

// Storage keys.
const (
	KeyMessages       = "chatMessages"
	KeyMinimized      = "chatMinimized"
	KeyConversationID = "conversationId"
)

// =============================================================================
// STORE
// =============================================================================

// Store gives typed access to the widget state kept in a Backend.
type Store struct {
	backend  Backend
	greeting string
}

// NewStore creates a store over backend. greeting seeds the default log.
func NewStore(backend Backend, greeting string) *Store {
	return &Store{backend: backend, greeting: greeting}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// LoadLog returns the persisted conversation log.
//
// The returned log is always usable: a missing key yields the seeded default
// with a nil error, and a read or decode failure yields the seeded default
// together with a *PersistenceError for the caller to log. Entries that fail
// validation are dropped and the rest kept, again with a *PersistenceError;
// when none survive the seeded default is returned. Placeholder entries
// written by older versions are dropped silently.
func (s *Store) LoadLog() (model.Log, error) {
	data, err := s.backend.Get(KeyMessages)
	if errors.Is(err, ErrNotFound) {
		return model.DefaultLog(s.greeting), nil
	}
	if err != nil {
		return model.DefaultLog(s.greeting), &PersistenceError{Op: "load", Key: KeyMessages, Err: err}
	}

	var log model.Log
	if err := json.Unmarshal(data, &log); err != nil {
		return model.DefaultLog(s.greeting), &PersistenceError{Op: "load", Key: KeyMessages, Err: err}
	}
	log, _ = log.WithoutTemporary()
	log, invalid := log.WithoutInvalid()
	if invalid != nil {
		invalid = &PersistenceError{Op: "load", Key: KeyMessages, Err: invalid}
	}
	if len(log) == 0 {
		return model.DefaultLog(s.greeting), invalid
	}
	return log, invalid
}

// SaveLog overwrites the persisted log. Placeholder entries are never written.
func (s *Store) SaveLog(log model.Log) error {
	persisted, _ := log.WithoutTemporary()
	data, err := json.Marshal(persisted)
	if err != nil {
		return &PersistenceError{Op: "save", Key: KeyMessages, Err: err}
	}
	if err := s.backend.Set(KeyMessages, data); err != nil {
		return &PersistenceError{Op: "save", Key: KeyMessages, Err: err}
	}
	return nil
}

// LoadMinimized returns the persisted minimized flag (false when absent).
func (s *Store) LoadMinimized() (bool, error) {
	var minimized bool
	if err := s.loadJSON(KeyMinimized, &minimized); err != nil {
		return false, err
	}
	return minimized, nil
}

// SaveMinimized persists the minimized flag.
func (s *Store) SaveMinimized(minimized bool) error {
	return s.saveJSON(KeyMinimized, minimized)
}

// LoadConversationID returns the persisted conversation id ("" when absent).
func (s *Store) LoadConversationID() (string, error) {
	var id string
	if err := s.loadJSON(KeyConversationID, &id); err != nil {
		return "", err
	}
	return id, nil
}

// SaveConversationID persists id. An empty id removes the key.
func (s *Store) SaveConversationID(id string) error {
	if id == "" {
		if err := s.backend.Delete(KeyConversationID); err != nil {
			return &PersistenceError{Op: "save", Key: KeyConversationID, Err: err}
		}
		return nil
	}
	return s.saveJSON(KeyConversationID, id)
}

// Clear removes every key owned by the widget.
func (s *Store) Clear() error {
	var errs []error
	for _, key := range []string{KeyMessages, KeyMinimized, KeyConversationID} {
		if err := s.backend.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) loadJSON(key string, v any) error {
	data, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "load", Key: key, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &PersistenceError{Op: "load", Key: key, Err: err}
	}
	return nil
}

func (s *Store) saveJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	if err := s.backend.Set(key, data); err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}
