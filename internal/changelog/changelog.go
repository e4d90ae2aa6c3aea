// SPDX-License-Identifier: AGPL-3.0-or-later

// Package changelog produces the ordered change entries of a release.
package changelog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/prompt"
)

// Fallback is the changelog used when git history is unavailable.
const Fallback = "Minor fixes and improvements"

// DefaultManualEntry is used when the user enters nothing.
const DefaultManualEntry = "Update"

var bulletPrefix = regexp.MustCompile(`^[-*]\s*`)

// Generator dispatches on the configured changelog source.
type Generator struct {
	FS     afero.Fs
	Exec   executil.Executor
	Prompt prompt.Prompter
	// Out receives the manual entry banner.
	Out    io.Writer
	Logger *zap.Logger
}

// Generate returns the changelog for a publish of channel.
func (g *Generator) Generate(ctx context.Context, cfg *config.Config, dir string, current *model.VersionRecord, channel string) ([]string, error) {
	switch cfg.Changelog.Source {
	case config.SourceFile:
		if cfg.Changelog.FilePath == "" {
			return nil, fmt.Errorf(`changelog.filePath is required when source is "file"`)
		}
		path := cfg.Changelog.FilePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return g.fromFile(path)
	case config.SourceManual:
		return g.manual()
	case config.SourceCustom:
		if cfg.Hooks.GenerateChangelog == nil {
			return nil, fmt.Errorf(`changelog.source "custom" requires hooks.generateChangelog`)
		}
		entries, err := cfg.Hooks.GenerateChangelog(ctx, hooks.ChangelogContext{
			CurrentVersion: current,
			Channel:        channel,
			Cwd:            dir,
		})
		if err != nil {
			return nil, err
		}
		if entries == nil {
			return nil, &hooks.Error{Hook: hooks.GenerateChangelog, Err: fmt.Errorf("%w: expected a list of strings", hooks.ErrContract)}
		}
		return entries, nil
	default:
		return g.Git(ctx, cfg.Changelog, dir), nil
	}
}

// GitFormat returns the --pretty format for the settings.
func GitFormat(c config.ChangelogConfig) string {
	switch {
	case c.Format == config.FormatDetailed && c.IncludeAuthor:
		return "%s (%an)"
	case c.Format == config.FormatDetailed:
		return "%s%n%b"
	case c.IncludeAuthor:
		return "%s (%an)"
	default:
		return "%s"
	}
}

// Git reads the most recent commits. Failures yield the fallback entry.
func (g *Generator) Git(ctx context.Context, c config.ChangelogConfig, dir string) []string {
	out, err := g.Exec.Run(ctx, executil.Command{
		Name: "git",
		Args: []string{"log", "-" + strconv.Itoa(c.CommitCount), "--pretty=format:" + GitFormat(c)},
		Dir:  dir,
	})
	if err != nil {
		g.logger().Warn("failed to get git changelog, using fallback", zap.String("source", "git"), zap.Error(err))
		return []string{Fallback}
	}
	var entries []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, strings.TrimRight(line, "\r"))
		if len(entries) == c.CommitCount {
			break
		}
	}
	if entries == nil {
		entries = []string{}
	}
	return entries
}

// fromFile reads a JSON array of strings, or the bullet lines of a text file.
func (g *Generator) fromFile(path string) ([]string, error) {
	data, err := afero.ReadFile(g.FS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog file: %w", err)
	}
	return ParseFile(data), nil
}

// ParseFile extracts entries from changelog file content.
func ParseFile(data []byte) []string {
	var items []any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &items); err == nil {
		entries := []string{}
		for _, it := range items {
			if s, ok := it.(string); ok {
				entries = append(entries, s)
			}
		}
		return entries
	}
	entries := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
			continue
		}
		if item := bulletPrefix.ReplaceAllString(line, ""); item != "" {
			entries = append(entries, item)
		}
	}
	return entries
}

func (g *Generator) manual() ([]string, error) {
	if g.Out != nil {
		fmt.Fprintln(g.Out, "\nEnter changelog items (press Enter with empty line to finish):")
	}
	var entries []string
	for {
		question := "Next item (or press Enter to finish):"
		if len(entries) == 0 {
			question = "First item:"
		}
		item, err := g.Prompt.Input(question, "")
		if err != nil {
			return nil, err
		}
		item = strings.TrimSpace(item)
		if item == "" {
			break
		}
		entries = append(entries, item)
	}
	if len(entries) == 0 {
		entries = []string{DefaultManualEntry}
	}
	return entries, nil
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return zap.NewNop()
}
