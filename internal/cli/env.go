// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/logging"
	"github.com/jeranaias/chatwidget/internal/widget"
)

// Env is what a command handler runs against.
type Env struct {
	Config *config.Config

	// ConfigPath is the --config file, empty for the default location.
	ConfigPath string

	Logger zerolog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logCloser io.Closer
	widget    *widget.Widget
}

// NewEnv loads configuration, applies command-line overrides and builds
// the logger for cmd. Full-screen and REPL commands log to the log file;
// one-shot commands log to stderr.
func NewEnv(cmd Command, args Args) (*Env, error) {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	applyColorProfile()

	var (
		cfg     *config.Config
		loadErr error
	)
	if args.ConfigPath != "" {
		c, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg, loadErr = config.Load()
		if cfg == nil {
			return nil, loadErr
		}
	}

	if err := applyFlagOverrides(cfg, args); err != nil {
		return nil, err
	}

	var (
		logger zerolog.Logger
		closer io.Closer
		err    error
	)
	if cmd == CmdTUI || cmd == CmdChat {
		logger, closer, err = logging.FromConfig(cfg, false)
	} else {
		level := cfg.Log.Level
		if args.Quiet && !args.Verbose {
			level = zerolog.LevelErrorValue
		}
		logger, closer, err = logging.New(logging.Options{Level: level, Console: true})
	}
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		logger.Warn().Err(loadErr).Msg("config file ignored, using defaults")
	}

	return &Env{
		Config:     cfg,
		ConfigPath: args.ConfigPath,
		Logger:     logger,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		logCloser:  closer,
	}, nil
}

// applyFlagOverrides layers global flags over the loaded config.
func applyFlagOverrides(cfg *config.Config, args Args) error {
	if args.Endpoint != "" {
		cfg.Endpoint.URL = args.Endpoint
	}
	if args.Storage != "" {
		cfg.Storage.Backend = args.Storage
	}
	if args.LogLevel != "" {
		cfg.Log.Level = args.LogLevel
	}
	if args.Verbose {
		cfg.Log.Level = zerolog.LevelDebugValue
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// Widget returns the widget, building it on first use.
func (e *Env) Widget() (*widget.Widget, error) {
	if e.widget != nil {
		return e.widget, nil
	}
	w, err := widget.Build(e.Config, e.Logger)
	if err != nil {
		return nil, err
	}
	e.widget = w
	return w, nil
}

// Close shuts the widget down and releases the log file.
func (e *Env) Close() error {
	var errs []error
	if e.widget != nil {
		errs = append(errs, e.widget.Shutdown())
		e.widget = nil
	}
	if e.logCloser != nil {
		errs = append(errs, e.logCloser.Close())
		e.logCloser = nil
	}
	return errors.Join(errs...)
}

func (e *Env) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Env) stdin() io.Reader {
	if e.Stdin == nil {
		return os.Stdin
	}
	return e.Stdin
}
