// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/model"
)

// Persister receives the state after every mutation.
type Persister interface {
	SaveLog(log model.Log) error
	SaveConversationID(id string) error
}

// =============================================================================
// CONVERSATION MANAGER
// =============================================================================

// Manager holds the conversation log and the conversation id.
// It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	log            model.Log
	conversationID string
	greeting       string

	store  Persister
	logger zerolog.Logger

	// Listeners
	listeners map[int]func(model.Log)
	nextSub   int
}

// NewManager creates a manager seeded with the greeting log.
// store may be nil, in which case nothing is persisted.
func NewManager(store Persister, greeting string, logger zerolog.Logger) *Manager {
	return &Manager{
		log:       model.DefaultLog(greeting),
		greeting:  greeting,
		store:     store,
		logger:    logger.With().Str("component", "session").Logger(),
		listeners: make(map[int]func(model.Log)),
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append inserts msg at the tail. Invalid messages are rejected with a
// *model.ValidationError and leave the log unchanged.
func (m *Manager) Append(msg model.Message) error {
	m.mu.Lock()
	next, err := m.log.Append(msg)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.log = next
	var snap model.Log
	if msg.IsTemporary {
		// The stored log excludes placeholders, so it has not changed.
		snap = m.log.Clone()
	} else {
		snap = m.syncLocked(false)
	}
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// Reset replaces the log with the seeded greeting and clears the
// conversation id.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.log = model.DefaultLog(m.greeting)
	idChanged := m.conversationID != ""
	m.conversationID = ""
	snap := m.syncLocked(idChanged)
	m.mu.Unlock()

	m.notify(snap)
}

// RemoveTemporary drops every placeholder entry and returns how many were
// removed. Calling it on a log without placeholders changes nothing.
// Placeholders are never stored, so nothing is written.
func (m *Manager) RemoveTemporary() int {
	m.mu.Lock()
	next, removed := m.log.WithoutTemporary()
	if removed == 0 {
		m.mu.Unlock()
		return 0
	}
	m.log = next
	snap := m.log.Clone()
	m.mu.Unlock()

	m.notify(snap)
	return removed
}

// ReplaceTemporary removes every placeholder and appends msg as a single
// mutation. If msg is invalid the log is left untouched.
func (m *Manager) ReplaceTemporary(msg model.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	next, _ := m.log.WithoutTemporary()
	m.log = append(next, msg)
	snap := m.syncLocked(false)
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// SetConversationID records the id supplied by the server.
// An empty id is ignored; clearing happens only through Reset.
func (m *Manager) SetConversationID(id string) {
	if id == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.conversationID {
		return
	}
	m.conversationID = id
	if m.store != nil {
		if err := m.store.SaveConversationID(id); err != nil {
			m.logger.Warn().Err(err).Msg("failed to persist conversation id")
		}
	}
}

// =============================================================================
// RESTORE AND RELOAD
// =============================================================================

// Restore replaces the state with previously persisted data. It notifies
// listeners but does not write back to the store. An empty log falls back
// to the greeting.
func (m *Manager) Restore(log model.Log, conversationID string) {
	m.mu.Lock()
	if len(log) == 0 {
		log = model.DefaultLog(m.greeting)
	}
	m.log = log.Clone()
	m.conversationID = conversationID
	snap := m.log.Clone()
	m.mu.Unlock()

	m.notify(snap)
}

// Reload applies a log written by another instance sharing the same store.
// load runs under the manager lock so no local mutation can interleave
// between reading the store and applying it. Placeholders currently shown
// stay at the tail so an in-flight request keeps its typing indicator.
// It reports whether anything changed.
func (m *Manager) Reload(load func() (model.Log, error)) (bool, error) {
	m.mu.Lock()
	persisted, err := load()
	if err != nil {
		m.mu.Unlock()
		return false, err
	}
	persisted, _ = persisted.WithoutTemporary()
	if len(persisted) == 0 {
		persisted = model.DefaultLog(m.greeting)
	}

	current, _ := m.log.WithoutTemporary()
	if slices.Equal(current, persisted) {
		m.mu.Unlock()
		return false, nil
	}
	next := persisted.Clone()
	for _, msg := range m.log {
		if msg.IsTemporary {
			next = append(next, msg)
		}
	}
	m.log = next
	snap := m.log.Clone()
	m.mu.Unlock()

	m.logger.Debug().Int("messages", len(persisted)).Msg("reloaded log from store")
	m.notify(snap)
	return true, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns a copy of the log.
func (m *Manager) Snapshot() model.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Clone()
}

// ConversationID returns the current conversation id ("" for none).
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// Len returns the number of entries, placeholders included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// =============================================================================
// LISTENERS
// =============================================================================

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the listener.
func (m *Manager) Subscribe(fn func(model.Log)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify calls listeners outside the lock.
func (m *Manager) notify(snap model.Log) {
	m.mu.Lock()
	fns := make([]func(model.Log), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}

// syncLocked persists the current state and returns a snapshot for notify.
// Callers hold m.mu.
func (m *Manager) syncLocked(idChanged bool) model.Log {
	if m.store != nil {
		if err := m.store.SaveLog(m.log); err != nil {
			m.logger.Warn().Err(err).Msg("failed to persist chat log")
		}
		if idChanged {
			if err := m.store.SaveConversationID(m.conversationID); err != nil {
				m.logger.Warn().Err(err).Msg("failed to persist conversation id")
			}
		}
	}
	return m.log.Clone()
}
