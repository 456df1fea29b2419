// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/storage"
)

// recordingStore counts writes and can be told to fail.
type recordingStore struct {
	mu       sync.Mutex
	logSaves int
	idSaves  []string
	last     model.Log
	fail     bool
}

func (r *recordingStore) SaveLog(log model.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("disk full")
	}
	r.logSaves++
	r.last, _ = log.WithoutTemporary()
	return nil
}

func (r *recordingStore) SaveConversationID(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("disk full")
	}
	r.idSaves = append(r.idSaves, id)
	return nil
}

func newTestManager(store Persister) *Manager {
	return NewManager(store, "", zerolog.Nop())
}

// =============================================================================
// MUTATION TESTS
// =============================================================================

func TestNewManager_SeedsGreeting(t *testing.T) {
	m := NewManager(nil, "Welcome aboard", zerolog.Nop())

	log := m.Snapshot()
	require.Len(t, log, 1)
	assert.Equal(t, model.GreetingID, log[0].ID)
	assert.Equal(t, "Welcome aboard", log[0].Text)
	assert.Empty(t, m.ConversationID())
}

func TestAppend_GrowsByOne(t *testing.T) {
	m := newTestManager(nil)

	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, m.Append(model.NewUserMessage(text)))
		assert.Equal(t, i+2, m.Len())
	}
	last, _ := m.Snapshot().Last()
	assert.Equal(t, "three", last.Text)
}

func TestAppend_RejectsEmptyText(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)

	err := m.Append(model.NewUserMessage("   "))
	assert.ErrorIs(t, err, model.ErrEmptyText)
	assert.Equal(t, 1, m.Len())
	assert.Zero(t, store.logSaves)

	err = m.Append(model.Message{ID: 9, Sender: "robot", Text: "beep"})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, m.Len())
}

func TestAppend_TemporaryIsNotPersisted(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)

	require.NoError(t, m.Append(model.NewUserMessage("hi")))
	require.NoError(t, m.Append(model.NewTypingIndicator()))

	assert.Equal(t, 1, store.logSaves)
	assert.Len(t, store.last, 2)
	assert.Equal(t, 3, m.Len())
}

func TestReset_ClearsLogAndConversation(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)
	require.NoError(t, m.Append(model.NewUserMessage("hi")))
	m.SetConversationID("abc")

	m.Reset()

	assert.True(t, m.Snapshot().IsPristine())
	assert.Empty(t, m.ConversationID())
	assert.Equal(t, []string{"abc", ""}, store.idSaves)
	assert.True(t, store.last.IsPristine())
}

func TestRemoveTemporary_Idempotent(t *testing.T) {
	m := newTestManager(nil)
	require.NoError(t, m.Append(model.NewUserMessage("hi")))
	require.NoError(t, m.Append(model.NewTypingIndicator()))
	require.NoError(t, m.Append(model.NewTypingIndicator()))

	assert.Equal(t, 2, m.RemoveTemporary())
	assert.Equal(t, 0, m.RemoveTemporary())
	assert.Equal(t, 0, m.Snapshot().TemporaryCount())
	assert.Equal(t, 2, m.Len())
}

func TestReplaceTemporary(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)
	require.NoError(t, m.Append(model.NewUserMessage("hi")))
	require.NoError(t, m.Append(model.NewTypingIndicator()))

	var notified []model.Log
	cancel := m.Subscribe(func(log model.Log) { notified = append(notified, log) })
	defer cancel()

	require.NoError(t, m.ReplaceTemporary(model.NewAssistantMessage("hello")))

	log := m.Snapshot()
	assert.Len(t, log, 3)
	assert.Equal(t, 0, log.TemporaryCount())
	assert.Len(t, notified, 1, "one mutation, one notification")
	assert.Equal(t, 2, store.logSaves)

	err := m.ReplaceTemporary(model.NewAssistantMessage(""))
	assert.ErrorIs(t, err, model.ErrEmptyText)
	assert.Len(t, m.Snapshot(), 3)
}

func TestSetConversationID(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)

	m.SetConversationID("")
	m.SetConversationID("abc")
	m.SetConversationID("abc")
	m.SetConversationID("def")

	assert.Equal(t, "def", m.ConversationID())
	assert.Equal(t, []string{"abc", "def"}, store.idSaves)
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	m := newTestManager(&recordingStore{fail: true})

	assert.NoError(t, m.Append(model.NewUserMessage("still works")))
	assert.Equal(t, 2, m.Len())
}

// =============================================================================
// RESTORE / RELOAD TESTS
// =============================================================================

func TestRestore_DoesNotPersist(t *testing.T) {
	store := &recordingStore{}
	m := newTestManager(store)

	log := model.DefaultLog("")
	log = append(log, model.NewUserMessage("earlier"))
	m.Restore(log, "abc")

	assert.Equal(t, log, m.Snapshot())
	assert.Equal(t, "abc", m.ConversationID())
	assert.Zero(t, store.logSaves)

	m.Restore(nil, "")
	assert.True(t, m.Snapshot().IsPristine())
}

func TestReload_KeepsPlaceholder(t *testing.T) {
	m := newTestManager(nil)
	require.NoError(t, m.Append(model.NewUserMessage("mine")))
	base, _ := m.Snapshot().WithoutTemporary()
	require.NoError(t, m.Append(model.NewTypingIndicator()))

	changed, err := m.Reload(func() (model.Log, error) { return base, nil })
	require.NoError(t, err)
	assert.False(t, changed, "unchanged log is not reapplied")

	external := append(base.Clone(), model.NewUserMessage("from another window"))
	changed, err = m.Reload(func() (model.Log, error) { return external, nil })
	require.NoError(t, err)
	assert.True(t, changed)

	log := m.Snapshot()
	require.Len(t, log, 4)
	assert.Equal(t, "from another window", log[2].Text)
	assert.True(t, log[3].IsTyping)
}

func TestReload_LoadError(t *testing.T) {
	m := newTestManager(nil)
	changed, err := m.Reload(func() (model.Log, error) { return nil, errors.New("locked") })
	assert.Error(t, err)
	assert.False(t, changed)
	assert.True(t, m.Snapshot().IsPristine())
}

func TestManager_WithStore(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), "")
	m := newTestManager(store)

	require.NoError(t, m.Append(model.NewUserMessage("Hello")))
	require.NoError(t, m.Append(model.NewTypingIndicator()))
	require.NoError(t, m.ReplaceTemporary(model.NewAssistantMessage("Hi there")))
	m.SetConversationID("abc")

	loaded, err := store.LoadLog()
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot(), loaded)

	id, err := store.LoadConversationID()
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

// =============================================================================
// LISTENER TESTS
// =============================================================================

func TestSubscribe_ReceivesCopies(t *testing.T) {
	m := newTestManager(nil)

	var got model.Log
	cancel := m.Subscribe(func(log model.Log) {
		got = log
		log[0].Text = "mutated by listener"
	})

	require.NoError(t, m.Append(model.NewUserMessage("hi")))
	require.Len(t, got, 2)
	assert.Equal(t, model.DefaultGreeting, m.Snapshot()[0].Text)

	cancel()
	require.NoError(t, m.Append(model.NewUserMessage("again")))
	assert.Len(t, got, 2, "cancelled listener is not called")
}

func TestConcurrentAppends(t *testing.T) {
	m := newTestManager(&recordingStore{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Append(model.NewUserMessage("msg"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, m.Len())
}
