// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/ota-publish/cmd/ota-publish/internal/clierr"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/prompt"
	"github.com/bartekus/ota-publish/internal/testutil/golden"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type harness struct {
	app  *app
	fs   afero.Fs
	exec *executil.Fake
	out  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0o755))
	exec := &executil.Fake{Handler: func(cmd executil.Command, _ []byte) ([]byte, error) {
		if cmd.Name == "git" {
			return []byte("feat: first"), nil
		}
		switch cmd.Args[0] {
		case "channel:view":
			return []byte(`{"branchName":"main"}`), nil
		case "update:list":
			return []byte(`{"updates":[{"group":"g-1","platform":"ios","runtimeVersion":"1.0.0","createdAt":"2026-05-01T09:30:00Z","message":"hello"}]}`), nil
		}
		return []byte("ok"), nil
	}}
	h := &harness{fs: fs, exec: exec, out: &bytes.Buffer{}}
	h.app = &app{
		fs:        fs,
		exec:      exec,
		prompter:  &prompt.Scripted{},
		getwd:     func() (string, error) { return "/proj", nil },
		now:       func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) },
		lookupEnv: func(string) (string, bool) { return "", false },
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(h.app)
	cmd.SetOut(h.out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("OTA_PUBLISH_VERSION", "1.2.3")
	h := newHarness(t)
	require.NoError(t, h.run("version"))
	assert.Equal(t, "ota-publish version 1.2.3\n", h.out.String())
}

func TestInitScaffoldGolden(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))

	data, err := afero.ReadFile(h.fs, "/proj/ota-updates.config.yaml")
	require.NoError(t, err)
	golden.Assert(t, golden.TestdataDir(t), "init_scaffold", string(data))

	err = h.run("init")
	require.Error(t, err)
	assert.Equal(t, clierr.CodeConfig, clierr.ExitCodeOf(err))
}

func TestDefaultCommandPublishes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))

	require.NoError(t, h.run("-c", "preview", "--dry-run"))
	exists, err := afero.Exists(h.fs, "/proj/ota-version.json")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Contains(t, h.out.String(), "Would run: eas update --channel preview")

	require.NoError(t, h.run("publish", "-c", "preview", "-m", "first release", "-p", "ios"))
	data, err := afero.ReadFile(h.fs, "/proj/ota-version.json")
	require.NoError(t, err)
	var rec model.VersionRecord
	require.NoError(t, jsoniter.Unmarshal(data, &rec))
	assert.Equal(t, "1.0.0-preview.1", rec.Version)
	assert.Equal(t, []string{"first release"}, rec.Changelog)

	calls := h.exec.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, []string{"update", "--channel", "preview", "--message", "first release", "--platform", "ios"}, last.Args)
}

func TestExitCodes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))

	err := h.run("-c", "staging")
	assert.Equal(t, clierr.CodeInput, clierr.ExitCodeOf(err))

	err = h.run("promote", "--from", "preview", "--to", "preview")
	assert.Equal(t, clierr.CodeInput, clierr.ExitCodeOf(err))

	require.NoError(t, afero.WriteFile(h.fs, "/proj/ota-updates.config.yaml", []byte("channels: [a, a]\ndefaultChannel: b\n"), 0o644))
	err = h.run("--dry-run")
	assert.Equal(t, clierr.CodeConfig, clierr.ExitCodeOf(err))

	err = h.run("bogus")
	assert.Error(t, err)
}

func TestExitCodes_UnreadableConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, "/proj/ota-updates.config.yaml", []byte("channels: [preview\n"), 0o644))

	err := h.run("--dry-run")
	require.Error(t, err)
	assert.Equal(t, clierr.CodeConfig, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "loading configuration from /proj")
}

func TestExitCodes_ExternalFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))
	h.exec.Handler = func(cmd executil.Command, _ []byte) ([]byte, error) {
		if cmd.Name == "git" {
			return nil, errors.New("no git")
		}
		return nil, &executil.ExitError{Command: cmd.String(), ExitCode: 127}
	}

	err := h.run("-c", "preview")
	assert.Equal(t, clierr.CodeExternal, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "npm install -g eas-cli")
}

func TestGroupsCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))

	require.NoError(t, h.run("groups", "-c", "production"))
	assert.Contains(t, h.out.String(), "GROUP")
	assert.Contains(t, h.out.String(), "g-1")
	assert.Contains(t, h.out.String(), "2026-05-01 09:30")

	h.out.Reset()
	require.NoError(t, h.run("groups", "-c", "production", "--json"))
	var groups []model.UpdateGroupSummary
	require.NoError(t, jsoniter.Unmarshal(h.out.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "g-1", groups[0].GroupID)
	assert.Equal(t, []string{"ios"}, groups[0].Platforms)
}

func TestPromoteWithYes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("init"))

	require.NoError(t, h.run("promote", "--from", "preview", "--to", "production", "-g", "g-1", "-y", "-p", "android"))
	calls := h.exec.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, []string{"update:republish", "--group", "g-1", "--destination-channel", "production", "--platform", "android"}, last.Args)
}
