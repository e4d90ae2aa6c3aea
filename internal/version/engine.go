// SPDX-License-Identifier: AGPL-3.0-or-later
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/template"
)

// ReleaseDateLayout is the UTC ISO-8601 layout of VersionRecord.ReleaseDate.
const ReleaseDateLayout = "2006-01-02T15:04:05.000Z"

const fallbackBase = "1.0.0"

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// ErrMissingVersionHook is returned for the custom strategy without a generateVersion hook.
var ErrMissingVersionHook = errors.New(`versionStrategy "custom" requires hooks.generateVersion`)

// Engine computes version records.
type Engine struct {
	FS     afero.Fs
	Now    func() time.Time
	Logger *zap.Logger
}

// Overrides replace configured values for a single increment.
type Overrides struct {
	Strategy      config.Strategy
	VersionFormat string
}

// ParseSemver extracts the leading major.minor.patch of s, or 1.0.0.
func ParseSemver(s string) hooks.SemverParts {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return hooks.SemverParts{Major: 1}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return hooks.SemverParts{Major: major, Minor: minor, Patch: patch}
}

// BaseVersion resolves cfg.BaseVersion, reading package.json in dir when asked to.
func (e *Engine) BaseVersion(cfg *config.Config, dir string) string {
	if cfg.BaseVersion != config.BaseVersionFromPackage {
		return cfg.BaseVersion
	}
	path := filepath.Join(dir, "package.json")
	data, err := afero.ReadFile(e.FS, path)
	if err == nil {
		var pkg struct {
			Version string `json:"version"`
		}
		if err = json.Unmarshal(data, &pkg); err == nil {
			if pkg.Version != "" {
				return pkg.Version
			}
			return fallbackBase
		}
	}
	e.logger().Warn("failed to read version from package.json, using "+fallbackBase,
		zap.String("path", path), zap.Error(err))
	return fallbackBase
}

// Increment computes the record that follows current on channel.
// The build number is always the previous one plus one.
func (e *Engine) Increment(ctx context.Context, current *model.VersionRecord, channel string, changelog []string, cfg *config.Config, dir string, ov *Overrides) (model.VersionRecord, error) {
	if ov == nil {
		ov = &Overrides{}
	}
	base := e.BaseVersion(cfg, dir)
	parsed := ParseSemver(base)
	build := 1
	if current != nil {
		build = current.BuildNumber + 1
	}
	now := e.now().UTC()

	strategy := cfg.VersionStrategy
	if ov.Strategy != "" {
		strategy = ov.Strategy
	}
	tmpl := ov.VersionFormat
	if tmpl == "" {
		tmpl = template.ForChannel(channel, cfg.VersionFormat, cfg.VersionFormatByChannel)
	}

	vars := template.Values{
		"major":        parsed.Major,
		"minor":        parsed.Minor,
		"patch":        parsed.Patch,
		"channel":      channel,
		"channelAlias": cfg.ChannelAlias(channel),
		"build":        build,
		"timestamp":    now.Format("20060102"),
	}
	defaultVersion := template.Render(tmpl, vars)

	rec := model.VersionRecord{
		Version:     defaultVersion,
		BuildNumber: build,
		ReleaseDate: now.Format(ReleaseDateLayout),
		Channel:     channel,
		Changelog:   changelog,
	}

	switch strategy {
	case config.StrategySemver:
		if current != nil {
			bumped := template.Values{}
			for k, v := range vars {
				bumped[k] = v
			}
			bumped["patch"] = ParseSemver(current.Version).Patch + 1
			rec.Version = template.Render(tmpl, bumped)
		}
	case config.StrategyCustom:
		if cfg.Hooks.GenerateVersion == nil {
			return model.VersionRecord{}, ErrMissingVersionHook
		}
		res, err := cfg.Hooks.GenerateVersion(ctx, hooks.VersionContext{
			CurrentVersion:    current,
			Channel:           channel,
			Changelog:         changelog,
			Cwd:               dir,
			BuildNumber:       build,
			BaseVersion:       base,
			ParsedBaseVersion: parsed,
			TemplateVars:      vars,
			DefaultVersion:    defaultVersion,
		})
		if err != nil {
			return model.VersionRecord{}, err
		}
		if res != nil {
			if res.Version != "" {
				rec.Version = res.Version
			}
			rec = res.Partial.ApplyTo(rec)
		}
	case config.StrategyBuild, config.StrategyDate:
	default:
		return model.VersionRecord{}, fmt.Errorf("unknown version strategy %q", strategy)
	}

	if err := rec.Validate(); err != nil {
		return model.VersionRecord{}, fmt.Errorf("computed version record: %w", err)
	}
	return rec, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}
