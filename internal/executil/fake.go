// SPDX-License-Identifier: AGPL-3.0-or-later
package executil

import (
	"context"
	"io"
	"sync"
)

// Handler answers a recorded command in a Fake.
type Handler func(cmd Command, stdin []byte) ([]byte, error)

// Fake records every command and delegates its answer to Handler.
// A nil Handler returns empty output.
type Fake struct {
	Handler Handler

	mu    sync.Mutex
	calls []Command
}

// Run records cmd and returns the handler's stdout. When cmd.Stdout is set the
// output is written there instead, mirroring OS.
func (f *Fake) Run(_ context.Context, cmd Command) ([]byte, error) {
	var stdin []byte
	if cmd.Stdin != nil {
		stdin, _ = io.ReadAll(cmd.Stdin)
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Handler == nil {
		return nil, nil
	}
	out, err := f.Handler(cmd, stdin)
	if err != nil {
		return nil, err
	}
	if cmd.Stdout != nil {
		_, _ = cmd.Stdout.Write(out)
		return nil, nil
	}
	return out, nil
}

// Calls returns the recorded commands in order.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}
