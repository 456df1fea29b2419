// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
)

// ErrNoMicrophone means no capture source is configured or installed.
var ErrNoMicrophone = errors.New("no microphone available")

// Microphone is a source of raw audio.
type Microphone interface {
	// Open starts capturing. Closing the reader stops the capture.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Check reports whether the source can be opened. A permission problem is
	// reported as an error matching fs.ErrPermission.
	Check() error
}

// =============================================================================
// COMMAND MICROPHONE
// =============================================================================

// CommandMicrophone captures audio from the stdout of an external recorder,
// for example: arecord -q -f S16_LE -r 16000 -c 1 -t raw
type CommandMicrophone struct {
	Command []string
}

// Check reports whether the recorder is installed.
func (m *CommandMicrophone) Check() error {
	if len(m.Command) == 0 {
		return ErrNoMicrophone
	}
	if _, err := exec.LookPath(m.Command[0]); err != nil {
		return fmt.Errorf("%w: %v", ErrNoMicrophone, err)
	}
	return nil
}

// Open starts the recorder.
func (m *CommandMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, m.Command[0], m.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &commandStream{ReadCloser: stdout, cmd: cmd}, nil
}

type commandStream struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
}

// Close stops the recorder and reaps it.
func (s *commandStream) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.ReadCloser.Close()
		_ = s.cmd.Wait()
	})
	return nil
}

// =============================================================================
// FILE MICROPHONE
// =============================================================================

// FileMicrophone replays a raw audio file, used for scripted dictation.
type FileMicrophone struct {
	Path string
}

// Check reports whether the file is readable.
func (m *FileMicrophone) Check() error {
	if m.Path == "" {
		return ErrNoMicrophone
	}
	f, err := os.Open(m.Path)
	if err != nil {
		return err
	}
	return f.Close()
}

// Open opens the file.
func (m *FileMicrophone) Open(context.Context) (io.ReadCloser, error) {
	if m.Path == "" {
		return nil, ErrNoMicrophone
	}
	return os.Open(m.Path)
}

// =============================================================================
// PERMISSION
// =============================================================================

// MicrophonePermission answers dictation permission requests by probing a
// Microphone.
type MicrophonePermission struct {
	Mic Microphone
}

// RequestMicrophone reports whether the microphone may be used. Permission
// errors are a denial; any other failure means the device is unavailable.
func (p MicrophonePermission) RequestMicrophone(context.Context) (bool, error) {
	if p.Mic == nil {
		return false, ErrNoMicrophone
	}
	err := p.Mic.Check()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrPermission):
		return false, nil
	default:
		return false, err
	}
}
