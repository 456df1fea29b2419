// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/model"
)

// backends returns one fresh instance of every backend kind.
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	file, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), SQLiteFileName))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		BackendFile:   file,
		BackendSQLite: sqlite,
		BackendMemory: NewMemoryBackend(),
	}
}

func sampleLog() model.Log {
	return model.Log{
		{ID: model.GreetingID, Sender: model.SenderAssistant, Text: model.DefaultGreeting, Timestamp: "Jan 2, 3:03 PM"},
		{ID: 100, Sender: model.SenderUser, Text: "Hello", Timestamp: "Jan 2, 3:04 PM"},
		{ID: 101, Sender: model.SenderAssistant, Text: "Hi there ✨", Timestamp: "Jan 2, 3:05 PM"},
	}
}

// =============================================================================
// BACKEND TESTS
// =============================================================================

func TestBackends_GetSetDelete(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Set("k1", []byte(`"v1"`)))
			require.NoError(t, b.Set("k1", []byte(`"v2"`)))

			got, err := b.Get("k1")
			require.NoError(t, err)
			assert.Equal(t, `"v2"`, string(got))

			require.NoError(t, b.Delete("k1"))
			require.NoError(t, b.Delete("k1"), "deleting a missing key is not an error")
			_, err = b.Get("k1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.Error(t, err)
}

func TestFileBackend_RejectsUnsafeKeys(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, b.Set("../escape", []byte("x")))
	_, err = b.Get("a/b")
	assert.Error(t, err)
}

func TestFileBackend_KeyForPath(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	key, ok := b.KeyForPath(filepath.Join(dir, KeyMessages+".json"))
	assert.True(t, ok)
	assert.Equal(t, KeyMessages, key)

	_, ok = b.KeyForPath(filepath.Join(dir, ".tmp-chatMessages.json-123"))
	assert.False(t, ok)
	_, ok = b.KeyForPath(filepath.Join(t.TempDir(), KeyMessages+".json"))
	assert.False(t, ok)
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(b, "")
			want := sampleLog()

			require.NoError(t, store.SaveLog(want))
			got, err := store.LoadLog()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_LoadMissingReturnsDefault(t *testing.T) {
	store := NewStore(NewMemoryBackend(), "Welcome!")

	log, err := store.LoadLog()
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "Welcome!", log[0].Text)
	assert.Equal(t, model.GreetingID, log[0].ID)
}

func TestStore_LoadCorruptReturnsDefaultAndError(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(KeyMessages, []byte(`{not json`)))
	store := NewStore(b, "")

	log, err := store.LoadLog()
	assert.True(t, log.IsPristine())

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
	assert.Equal(t, KeyMessages, perr.Key)
}

func TestStore_LoadInvalidEntryReturnsDefault(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(KeyMessages, []byte(`[{"id":5,"sender":"user","text":""}]`)))

	log, err := NewStore(b, "").LoadLog()
	assert.Error(t, err)
	assert.True(t, log.IsPristine())
}

func TestStore_LoadDropsOnlyInvalidEntries(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(KeyMessages, []byte(`[
		{"id":1,"sender":"assistant","text":"hello"},
		{"id":5,"sender":"user","text":""},
		{"id":6,"sender":"user","text":"still here"},
		{"id":7,"sender":"robot","text":"beep"},
		{"id":8,"sender":"assistant","text":"kept too"}
	]`)))

	log, err := NewStore(b, "").LoadLog()

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)
	assert.ErrorIs(t, err, model.ErrEmptyText)

	require.Len(t, log, 3)
	assert.Equal(t, []int64{1, 6, 8}, []int64{log[0].ID, log[1].ID, log[2].ID})
	assert.Equal(t, "still here", log[1].Text)
}

func TestStore_NeverPersistsTemporary(t *testing.T) {
	b := NewMemoryBackend()
	store := NewStore(b, "")

	log := append(sampleLog(), model.NewTypingIndicator())
	require.NoError(t, store.SaveLog(log))

	raw, err := b.Get(KeyMessages)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isTemporary")

	loaded, err := store.LoadLog()
	require.NoError(t, err)
	assert.Equal(t, sampleLog(), loaded)
}

func TestStore_DropsStoredTemporaryOnLoad(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(KeyMessages, []byte(
		`[{"id":1,"sender":"assistant","text":"hi"},{"id":2,"sender":"assistant","text":"Typing...","isTemporary":true}]`)))

	log, err := NewStore(b, "").LoadLog()
	require.NoError(t, err)
	assert.Len(t, log, 1)
	assert.Equal(t, 0, log.TemporaryCount())
}

func TestStore_MinimizedFlag(t *testing.T) {
	store := NewStore(NewMemoryBackend(), "")

	minimized, err := store.LoadMinimized()
	require.NoError(t, err)
	assert.False(t, minimized)

	require.NoError(t, store.SaveMinimized(true))
	minimized, err = store.LoadMinimized()
	require.NoError(t, err)
	assert.True(t, minimized)
}

func TestStore_ConversationID(t *testing.T) {
	b := NewMemoryBackend()
	store := NewStore(b, "")

	require.NoError(t, store.SaveConversationID("abc"))
	id, err := store.LoadConversationID()
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	require.NoError(t, store.SaveConversationID(""))
	_, err = b.Get(KeyConversationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(NewMemoryBackend(), "")
	require.NoError(t, store.SaveLog(sampleLog()))
	require.NoError(t, store.SaveMinimized(true))

	require.NoError(t, store.Clear())

	log, err := store.LoadLog()
	require.NoError(t, err)
	assert.True(t, log.IsPristine())
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFileName)

	b, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, NewStore(b, "").SaveLog(sampleLog()))
	require.NoError(t, b.Close())

	b, err = NewSQLiteBackend(path)
	require.NoError(t, err)
	defer b.Close()

	log, err := NewStore(b, "").LoadLog()
	require.NoError(t, err)
	assert.Equal(t, sampleLog(), log)
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestExportMarkdown(t *testing.T) {
	log := append(sampleLog(), model.NewTypingIndicator())
	md := ExportMarkdown(log, "abc")

	assert.Contains(t, md, "Conversation: abc")
	assert.Contains(t, md, "**You** (Jan 2, 3:04 PM):\n\nHello")
	assert.Contains(t, md, "Hi there ✨")
	assert.Equal(t, 3, strings.Count(md, "**Assistant**")+strings.Count(md, "**You**"))
}

func TestFormatLog(t *testing.T) {
	out := FormatLog(sampleLog(), 80)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Equal(t, "No messages.", FormatLog(nil, 80))
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReportsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	changed := make(chan string, 4)
	w, err := NewWatcher(b, []string{KeyMessages}, 20*time.Millisecond, func(key string) {
		changed <- key
	}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A foreign key is ignored, the watched key is reported once per burst.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("1"), 0600))
	require.NoError(t, NewStore(b, "").SaveLog(sampleLog()))

	select {
	case key := <-changed:
		assert.Equal(t, KeyMessages, key)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}
