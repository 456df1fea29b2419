// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_CreatesParentAndWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "chatMessages.json")

	require.NoError(t, AtomicWriteFile(path, []byte(`[]`), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flag.json")

	require.NoError(t, AtomicWriteFile(path, []byte("false"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("true"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TruncateRunes(tc.in, tc.max), "TruncateRunes(%q, %d)", tc.in, tc.max)
	}
}

func TestTruncateWidth_WideRunes(t *testing.T) {
	// Each CJK rune is two columns wide.
	s := "你好世界你好"
	got := TruncateWidth(s, 7)
	assert.LessOrEqual(t, StringWidth(got), 7)
	assert.Equal(t, s, TruncateWidth(s, 12))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "abcdef", PadRight("abcdef", 4))
}
