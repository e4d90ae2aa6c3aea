// SPDX-License-Identifier: AGPL-3.0-or-later
package hooks

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/model"
)

func respond(out string) *executil.Fake {
	return &executil.Fake{Handler: func(executil.Command, []byte) ([]byte, error) {
		return []byte(out), nil
	}}
}

func TestFromCommands_OnlyConfiguredHooks(t *testing.T) {
	h := FromCommands(Commands{BeforePublish: "./before.sh"}, CommandRunner{Exec: respond("")})

	assert.NotNil(t, h.BeforePublish)
	assert.Nil(t, h.AfterPublish)
	assert.Nil(t, h.OnError)
	assert.Nil(t, h.GenerateVersion)
	assert.Nil(t, h.GenerateChangelog)
}

func TestBeforePublish_PassesContextAndParsesOverrides(t *testing.T) {
	var gotStdin []byte
	var gotCmd executil.Command
	fake := &executil.Fake{Handler: func(cmd executil.Command, stdin []byte) ([]byte, error) {
		gotCmd, gotStdin = cmd, stdin
		return []byte(`{"message":"Deploying 2 changes","changelog":["a","b"]}`), nil
	}}
	h := FromCommands(Commands{BeforePublish: "./before.sh"}, CommandRunner{Exec: fake, Dir: "/proj"})

	ov, err := h.BeforePublish(context.Background(), BeforePublishContext{Channel: "preview", Changelog: []string{"x"}, Cwd: "/proj"})
	require.NoError(t, err)
	require.NotNil(t, ov)
	require.NotNil(t, ov.Message)
	assert.Equal(t, "Deploying 2 changes", *ov.Message)
	assert.Equal(t, []string{"a", "b"}, ov.Changelog)
	assert.Nil(t, ov.Version)

	assert.Equal(t, "/proj", gotCmd.Dir)
	assert.Contains(t, gotCmd.Env, "OTA_HOOK=beforePublish")
	assert.Equal(t, "./before.sh", gotCmd.Args[len(gotCmd.Args)-1])
	assert.Contains(t, string(gotStdin), `"channel":"preview"`)
}

func TestBeforePublish_EmptyOutputMeansNoOverrides(t *testing.T) {
	h := FromCommands(Commands{BeforePublish: "true"}, CommandRunner{Exec: respond("  \n")})
	ov, err := h.BeforePublish(context.Background(), BeforePublishContext{})
	require.NoError(t, err)
	assert.Nil(t, ov)
}

func TestGenerateVersion_Shapes(t *testing.T) {
	tests := []struct {
		name        string
		out         string
		wantVersion string
		wantPartial bool
		wantBuild   *int
		wantErr     bool
	}{
		{name: "plain text", out: "2.0.0-sha.abc\n", wantVersion: "2.0.0-sha.abc"},
		{name: "json string", out: `"2.0.0"`, wantVersion: "2.0.0"},
		{name: "partial record", out: `{"version":"3.0.0","buildNumber":"42"}`, wantVersion: "3.0.0", wantPartial: true, wantBuild: intPtr(42)},
		{name: "empty", out: "", wantErr: true},
		{name: "broken object", out: `{"version":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := FromCommands(Commands{GenerateVersion: "gen"}, CommandRunner{Exec: respond(tt.out)})
			res, err := h.GenerateVersion(context.Background(), VersionContext{})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrContract))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, res.Version)
			if tt.wantPartial {
				require.NotNil(t, res.Partial)
				assert.Equal(t, tt.wantBuild, res.Partial.BuildNumber)
			} else {
				assert.Nil(t, res.Partial)
			}
		})
	}
}

func TestGenerateChangelog_Contract(t *testing.T) {
	ok := FromCommands(Commands{GenerateChangelog: "gen"}, CommandRunner{Exec: respond(`["one","two"]`)})
	entries, err := ok.GenerateChangelog(context.Background(), ChangelogContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, entries)

	for _, out := range []string{`{"a":1}`, `["one",2]`, `not json`} {
		bad := FromCommands(Commands{GenerateChangelog: "gen"}, CommandRunner{Exec: respond(out)})
		_, err := bad.GenerateChangelog(context.Background(), ChangelogContext{})
		require.Error(t, err, out)
		assert.True(t, errors.Is(err, ErrContract), out)
	}
}

func TestAfterPublish_ForwardsOutputAndWrapsFailure(t *testing.T) {
	var buf bytes.Buffer
	h := FromCommands(Commands{AfterPublish: "notify"}, CommandRunner{Exec: respond("sent\n"), Output: &buf})
	require.NoError(t, h.AfterPublish(context.Background(), model.VersionRecord{Version: "1"}, PublishContext{Channel: "c"}))
	assert.Equal(t, "sent\n", buf.String())

	failing := &executil.Fake{Handler: func(executil.Command, []byte) ([]byte, error) {
		return nil, &executil.ExitError{Command: "sh -c notify", ExitCode: 1}
	}}
	h = FromCommands(Commands{AfterPublish: "notify"}, CommandRunner{Exec: failing})
	err := h.AfterPublish(context.Background(), model.VersionRecord{}, PublishContext{})
	require.Error(t, err)

	var hookErr *Error
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, AfterPublish, hookErr.Hook)
}

func TestMerge_FunctionWins(t *testing.T) {
	called := ""
	primary := Hooks{OnError: func(context.Context, error, ErrorContext) error { called = "primary"; return nil }}
	fallback := Hooks{
		OnError:      func(context.Context, error, ErrorContext) error { called = "fallback"; return nil },
		AfterPublish: func(context.Context, model.VersionRecord, PublishContext) error { return nil },
	}

	merged := Merge(primary, fallback)
	require.NoError(t, merged.OnError(context.Background(), errors.New("x"), ErrorContext{}))
	assert.Equal(t, "primary", called)
	assert.NotNil(t, merged.AfterPublish)
}

func intPtr(i int) *int { return &i }
