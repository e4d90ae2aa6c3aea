// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executil is the single place where the tool starts subprocesses.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // appended to the current environment

	Stdin io.Reader
	// Stdout, when set, receives the output stream and Run returns nil bytes.
	Stdout io.Writer
	// Stderr, when set, receives the error stream in addition to the captured tail.
	Stderr io.Writer

	// Timeout bounds the run; zero waits for the process to exit.
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Executor runs commands. Tests substitute a recording fake.
type Executor interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExitError reports a subprocess that could not start or exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// OS runs commands with os/exec.
type OS struct{}

// Run executes cmd and returns captured stdout unless cmd.Stdout is set.
func (OS) Run(ctx context.Context, cmd Command) ([]byte, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Timeout > 0 {
		c.WaitDelay = time.Second
	}
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		c.Stdout = &stdout
	}
	if cmd.Stderr != nil {
		c.Stderr = io.MultiWriter(cmd.Stderr, &stderr)
	} else {
		c.Stderr = &stderr
	}

	if err := c.Run(); err != nil {
		exitErr := &ExitError{
			Command: cmd.String(),
			Stderr:  tail(stderr.String(), 20),
			Err:     err,
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitErr.ExitCode = ee.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			exitErr.Err = fmt.Errorf("timed out after %s: %w", cmd.Timeout, err)
		}
		return nil, exitErr
	}

	if cmd.Stdout != nil {
		return nil, nil
	}
	return stdout.Bytes(), nil
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
		return "...(truncated)...\n" + strings.Join(lines, "\n")
	}
	return s
}
