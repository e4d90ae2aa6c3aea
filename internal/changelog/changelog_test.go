// SPDX-License-Identifier: AGPL-3.0-or-later
package changelog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/prompt"
)

func gitFake(out string, err error) *executil.Fake {
	return &executil.Fake{Handler: func(executil.Command, []byte) ([]byte, error) {
		return []byte(out), err
	}}
}

func TestGit_ParsesLog(t *testing.T) {
	fake := gitFake("feat: a\n\nfix: b\n   \nchore: c\nextra", nil)
	g := &Generator{Exec: fake}
	cfg := config.Defaults()
	cfg.Changelog.CommitCount = 3

	entries, err := g.Generate(context.Background(), &cfg, "/proj", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{"feat: a", "fix: b", "chore: c"}, entries)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "git", calls[0].Name)
	assert.Equal(t, []string{"log", "-3", "--pretty=format:%s"}, calls[0].Args)
	assert.Equal(t, "/proj", calls[0].Dir)
}

func TestGit_FallbackOnFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := &Generator{Exec: gitFake("", errors.New("not a git repository")), Logger: zap.New(core)}
	cfg := config.Defaults()

	entries, err := g.Generate(context.Background(), &cfg, "/proj", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{Fallback}, entries)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "git", logs.All()[0].ContextMap()["source"])
}

func TestGitFormat(t *testing.T) {
	tests := []struct {
		format config.ChangelogFormat
		author bool
		want   string
	}{
		{config.FormatShort, false, "%s"},
		{config.FormatShort, true, "%s (%an)"},
		{config.FormatDetailed, false, "%s%n%b"},
		{config.FormatDetailed, true, "%s (%an)"},
	}
	for _, tt := range tests {
		got := GitFormat(config.ChangelogConfig{Format: tt.format, IncludeAuthor: tt.author})
		assert.Equal(t, tt.want, got, "%s author=%v", tt.format, tt.author)
	}
}

func TestFile_Sources(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/CHANGES.json", []byte(`["one", 2, "three"]`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/CHANGES.md", []byte("# Changes\n\n- first\n* second\n  -   third\nplain\n-\n"), 0o644))

	g := &Generator{FS: fs}
	cfg := config.Defaults()
	cfg.Changelog.Source = config.SourceFile

	cfg.Changelog.FilePath = "CHANGES.json"
	entries, err := g.Generate(context.Background(), &cfg, "/proj", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, entries)

	cfg.Changelog.FilePath = "/proj/CHANGES.md"
	entries, err = g.Generate(context.Background(), &cfg, "/elsewhere", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, entries)

	cfg.Changelog.FilePath = "missing.md"
	_, err = g.Generate(context.Background(), &cfg, "/proj", nil, "preview")
	assert.ErrorContains(t, err, "failed to read changelog file")
}

func TestParseFile_JSONArray(t *testing.T) {
	assert.Equal(t, []string{"café", "fix <b>"}, ParseFile([]byte(`["caf\u00e9", "fix <b>"]`)))
	assert.Equal(t, []string{}, ParseFile([]byte(`[]`)))
	assert.Equal(t, []string{"item"}, ParseFile([]byte(`{"not": "an array"}
- item`)))
}

func TestManual(t *testing.T) {
	var out bytes.Buffer
	p := &prompt.Scripted{Inputs: []string{" add login ", "fix crash", ""}}
	g := &Generator{Prompt: p, Out: &out}
	cfg := config.Defaults()
	cfg.Changelog.Source = config.SourceManual

	entries, err := g.Generate(context.Background(), &cfg, "/proj", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{"add login", "fix crash"}, entries)
	assert.Equal(t, []string{"First item:", "Next item (or press Enter to finish):", "Next item (or press Enter to finish):"}, p.Asked())
	assert.Contains(t, out.String(), "Enter changelog items")

	entries, err = (&Generator{Prompt: &prompt.Scripted{Inputs: []string{""}}}).Generate(context.Background(), &cfg, "/proj", nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultManualEntry}, entries)
}

func TestCustom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Changelog.Source = config.SourceCustom
	current := &model.VersionRecord{Version: "1.0.0", BuildNumber: 4}

	var got hooks.ChangelogContext
	cfg.Hooks.GenerateChangelog = func(_ context.Context, in hooks.ChangelogContext) ([]string, error) {
		got = in
		return []string{"from hook"}, nil
	}
	g := &Generator{}
	entries, err := g.Generate(context.Background(), &cfg, "/proj", current, "production")
	require.NoError(t, err)
	assert.Equal(t, []string{"from hook"}, entries)
	assert.Equal(t, "production", got.Channel)
	assert.Same(t, current, got.CurrentVersion)

	cfg.Hooks.GenerateChangelog = func(context.Context, hooks.ChangelogContext) ([]string, error) { return nil, nil }
	_, err = g.Generate(context.Background(), &cfg, "/proj", current, "production")
	assert.ErrorIs(t, err, hooks.ErrContract)
}
