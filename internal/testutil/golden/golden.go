// SPDX-License-Identifier: AGPL-3.0-or-later

// Package golden compares test output with files under testdata/.
package golden

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Update rewrites golden files instead of comparing: go test ./... -update
var Update = flag.Bool("update", false, "update golden files")

// TestdataDir returns the testdata directory next to the calling test file.
func TestdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(1)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// Assert compares got with <dir>/<name>.golden. Under -update the file is
// rewritten with got instead. A missing golden file compares as empty.
func Assert(t *testing.T, dir, name, got string) {
	t.Helper()
	require.False(t, strings.Contains(name, "..") || strings.ContainsAny(name, `/\`), "invalid golden name %q", name)
	path := filepath.Join(dir, name+".golden")

	if *Update {
		require.NoError(t, os.MkdirAll(dir, 0o750))
		require.NoError(t, os.WriteFile(path, []byte(got), 0o600))
		return
	}

	want, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		require.NoError(t, err, "read golden %s", path)
	}
	assert.Equal(t, string(want), got, "golden %s differs; rerun with -update", path)
}
