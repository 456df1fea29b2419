// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jeranaias/chatwidget/internal/util"
)

// fileExt is appended to every key to build its file name.
const fileExt = ".json"

// validKey restricts keys to names that are safe as file names.
var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as <BaseDir>/<key>.json.
type FileBackend struct {
	// BaseDir is the profile data directory.
	// Default: ~/.chatwidget/
	BaseDir string
}

// NewFileBackend creates a file backend, creating dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{BaseDir: dir}, nil
}

// Get implements Backend.
func (b *FileBackend) Get(key string) ([]byte, error) {
	path, err := b.filePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set implements Backend.
func (b *FileBackend) Set(key string, value []byte) error {
	path, err := b.filePath(key)
	if err != nil {
		return err
	}
	// RELIABILITY: Atomic write with fsync prevents a torn blob on crash
	return util.AtomicWriteFile(path, value, 0600)
}

// Delete implements Backend.
func (b *FileBackend) Delete(key string) error {
	path, err := b.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return nil
}

// KeyForPath maps a file in BaseDir back to its key.
func (b *FileBackend) KeyForPath(path string) (string, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(b.BaseDir) {
		return "", false
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	return key, validKey.MatchString(key)
}

// filePath returns the file path for a key.
func (b *FileBackend) filePath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(b.BaseDir, key+fileExt), nil
}
