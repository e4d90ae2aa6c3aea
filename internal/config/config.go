// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, merges and validates the publishing configuration.
//
// A configuration is read once per command invocation and is not modified
// afterwards. Files are discovered by conventional names searched upward from
// the working directory, merged field by field over Defaults and validated as
// a whole so that every violated rule is reported at once.
package config

import (
	"time"

	"github.com/bartekus/ota-publish/internal/hooks"
)

// Strategy selects how the next version string is computed.
type Strategy string

const (
	StrategyBuild  Strategy = "build"
	StrategySemver Strategy = "semver"
	StrategyDate   Strategy = "date"
	StrategyCustom Strategy = "custom"
)

// Strategies lists the accepted version strategies.
var Strategies = []Strategy{StrategyBuild, StrategySemver, StrategyDate, StrategyCustom}

// ParseStrategy validates s against Strategies.
func ParseStrategy(s string) (Strategy, bool) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// ChangelogSource selects where changelog entries come from.
type ChangelogSource string

const (
	SourceGit    ChangelogSource = "git"
	SourceManual ChangelogSource = "manual"
	SourceFile   ChangelogSource = "file"
	SourceCustom ChangelogSource = "custom"
)

// ChangelogFormat controls the git log format.
type ChangelogFormat string

const (
	FormatShort    ChangelogFormat = "short"
	FormatDetailed ChangelogFormat = "detailed"
)

// BaseVersionFromPackage makes the base version come from package.json.
const BaseVersionFromPackage = "package.json"

// ChangelogConfig configures the changelog generator.
type ChangelogConfig struct {
	Source        ChangelogSource
	CommitCount   int
	Format        ChangelogFormat
	IncludeAuthor bool
	FilePath      string
}

// EASConfig configures the external release tool.
type EASConfig struct {
	AutoPublish            bool
	MessageFormat          string
	MessageFormatByChannel map[string]string
	// Platforms is the default platform list for publish.
	Platforms []string
	// Bin is the executable name or path of the external tool.
	Bin string
	// Timeout bounds each subprocess call; zero means no limit.
	Timeout time.Duration
}

// Config is the resolved configuration.
type Config struct {
	VersionFile            string
	BaseVersion            string
	VersionFormat          string
	VersionFormatByChannel map[string]string
	VersionStrategy        Strategy
	ChannelAliases         map[string]string
	Changelog              ChangelogConfig
	EAS                    EASConfig
	Channels               []string
	DefaultChannel         string

	// Hooks is the effective hook set: Go functions first, then commands.
	Hooks hooks.Hooks
	// HookCommands are the commands configured under `hooks:`.
	HookCommands hooks.Commands

	// Extra preserves unknown top-level keys of the config file.
	Extra map[string]any

	// Path is the config file that was loaded, empty when defaults were used.
	Path string
	// Dir is the project directory: the directory of Path, or the search start.
	Dir string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		VersionFile:     "./ota-version.json",
		BaseVersion:     "1.0.0",
		VersionFormat:   "{major}.{minor}.{patch}-{channel}.{build}",
		VersionStrategy: StrategyBuild,
		ChannelAliases:  map[string]string{},
		Changelog: ChangelogConfig{
			Source:        SourceGit,
			CommitCount:   10,
			Format:        FormatShort,
			IncludeAuthor: false,
		},
		EAS: EASConfig{
			AutoPublish:   true,
			MessageFormat: "v{version}: {firstChange}",
			Bin:           "eas",
		},
		Channels:       []string{"development", "preview", "production"},
		DefaultChannel: "development",
	}
}

// HasChannel reports whether channel is configured.
func (c *Config) HasChannel(channel string) bool {
	for _, ch := range c.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}

// ChannelAlias returns the short label of channel, or channel itself.
func (c *Config) ChannelAlias(channel string) string {
	if alias, ok := c.ChannelAliases[channel]; ok {
		return alias
	}
	return channel
}
