// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt asks the user for choices, confirmations and free text.
package prompt

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var (
	// ErrNotInteractive is returned when input is not a terminal.
	ErrNotInteractive = errors.New("prompt requires an interactive terminal")
	// ErrAborted is returned when the user cancels a prompt.
	ErrAborted = errors.New("prompt aborted")
)

// Option is one entry of a selection.
type Option struct {
	Label string
	Value string
}

// Prompter asks questions. Implementations block until answered.
type Prompter interface {
	Select(title string, options []Option, initial int) (string, error)
	Confirm(question string, def bool) (bool, error)
	Input(question, placeholder string) (string, error)
}

// IsInteractive reports whether r is a terminal.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
