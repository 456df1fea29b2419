// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/config"
)

// Options selects where log lines go.
type Options struct {
	Level string

	// File receives JSON lines when Console is false.
	File string

	// Console writes human-readable lines to Out (default stderr).
	// The full-screen chat view owns the terminal, so only one-shot
	// commands log to the console.
	Console bool
	Out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates the root logger. The returned Closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	if opts.Console {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		return zerolog.New(writer).With().Timestamp().Logger().Level(level), nopCloser{}, nil
	}

	if opts.File == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).With().Timestamp().Int("pid", os.Getpid()).Logger().Level(level)
	return logger, f, nil
}

// FromConfig creates the logger described by cfg.Log.
func FromConfig(cfg *config.Config, console bool) (zerolog.Logger, io.Closer, error) {
	path, err := cfg.LogFilePath()
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	return New(Options{Level: cfg.Log.Level, File: path, Console: console})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
