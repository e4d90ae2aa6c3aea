// SPDX-License-Identifier: AGPL-3.0-or-later
package clierr

import (
	"errors"
	"fmt"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/pipeline"
	"github.com/bartekus/ota-publish/internal/prompt"
)

// Process exit codes.
const (
	CodeGeneric   = 1
	CodeConfig    = 2
	CodeInput     = 3
	CodeExternal  = 4
	CodeCancelled = 130
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Wrapf is a formatted variant that wraps.
func Wrapf(code int, cause error, format string, args ...any) error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// ExitCodeOf extracts an exit code from any error. Explicit codes win; other
// errors are classified by type, defaulting to CodeGeneric.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	var (
		validation *config.ValidationError
		input      *pipeline.InputError
		hookErr    *hooks.Error
		exitErr    *executil.ExitError
	)
	switch {
	case errors.Is(err, pipeline.ErrCancelled), errors.Is(err, prompt.ErrAborted):
		return CodeCancelled
	case errors.As(err, &validation),
		errors.Is(err, config.ErrUnsupportedConfig),
		errors.Is(err, config.ErrConfigExists):
		return CodeConfig
	case errors.As(err, &input):
		return CodeInput
	case errors.As(err, &hookErr):
		return CodeGeneric
	case errors.As(err, &exitErr):
		return CodeExternal
	}
	return CodeGeneric
}

func normalize(code int) int {
	if code <= 0 {
		return CodeGeneric
	}
	return code
}
