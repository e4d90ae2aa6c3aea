// SPDX-License-Identifier: AGPL-3.0-or-later
package config

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// ValidationError aggregates every violated configuration rule.
type ValidationError struct {
	Path string
	err  error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	b.WriteString(":")
	for _, p := range e.Problems() {
		b.WriteString("\n  - ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Problems returns the individual violations in report order.
func (e *ValidationError) Problems() []error { return multierr.Errors(e.err) }

func (e *ValidationError) Unwrap() error { return e.err }

// Validate checks cfg and returns a *ValidationError listing every problem.
func Validate(cfg *Config) error {
	return validate(cfg, nil)
}

func validate(cfg *Config, prior []error) error {
	var err error
	for _, p := range prior {
		err = multierr.Append(err, p)
	}
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf(format, args...))
	}

	if len(cfg.Channels) == 0 {
		add("channels must contain at least one channel")
	}
	seen := map[string]bool{}
	for _, ch := range cfg.Channels {
		if strings.TrimSpace(ch) == "" {
			add("channels must not contain empty names")
			continue
		}
		if seen[ch] {
			add("channel %q is listed more than once", ch)
		}
		seen[ch] = true
	}
	if !cfg.HasChannel(cfg.DefaultChannel) {
		add("defaultChannel %q is not one of the configured channels", cfg.DefaultChannel)
	}

	if cfg.VersionFile == "" {
		add("versionFile must not be empty")
	}
	if cfg.BaseVersion == "" {
		add("baseVersion must not be empty")
	}
	if cfg.VersionFormat == "" {
		add("versionFormat must not be empty")
	}
	if _, ok := ParseStrategy(string(cfg.VersionStrategy)); !ok {
		add("versionStrategy %q must be one of build, semver, date, custom", cfg.VersionStrategy)
	}
	if cfg.VersionStrategy == StrategyCustom && cfg.Hooks.GenerateVersion == nil {
		add("versionStrategy custom requires a generateVersion hook")
	}

	switch cfg.Changelog.Source {
	case SourceGit, SourceManual:
	case SourceFile:
		if cfg.Changelog.FilePath == "" {
			add("changelog.source file requires changelog.filePath")
		}
	case SourceCustom:
		if cfg.Hooks.GenerateChangelog == nil {
			add("changelog.source custom requires a generateChangelog hook")
		}
	default:
		add("changelog.source %q must be one of git, manual, file, custom", cfg.Changelog.Source)
	}
	if cfg.Changelog.CommitCount <= 0 {
		add("changelog.commitCount must be positive, got %d", cfg.Changelog.CommitCount)
	}
	if cfg.Changelog.Format != FormatShort && cfg.Changelog.Format != FormatDetailed {
		add("changelog.format %q must be short or detailed", cfg.Changelog.Format)
	}

	if cfg.EAS.MessageFormat == "" {
		add("eas.messageFormat must not be empty")
	}
	if cfg.EAS.Bin == "" {
		add("eas.bin must not be empty")
	}
	if cfg.EAS.Timeout < 0 {
		add("eas.timeout must not be negative")
	}
	for _, p := range cfg.EAS.Platforms {
		switch p {
		case "ios", "android", "all":
		default:
			add("eas.platforms entry %q must be ios, android or all", p)
		}
	}

	checkKeys := func(field string, m map[string]string) {
		for _, k := range sortedKeys(m) {
			if !cfg.HasChannel(k) {
				add("%s has unknown channel %q", field, k)
			}
		}
	}
	checkKeys("versionFormatByChannel", cfg.VersionFormatByChannel)
	checkKeys("channelAliases", cfg.ChannelAliases)
	checkKeys("eas.messageFormatByChannel", cfg.EAS.MessageFormatByChannel)

	if err != nil {
		return &ValidationError{Path: cfg.Path, err: err}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
