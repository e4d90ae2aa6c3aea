// SPDX-License-Identifier: AGPL-3.0-or-later
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/ota-publish/internal/hooks"
)

// fragment is the decoded file content. Nil fields were not set by the file.
type fragment struct {
	VersionFile            *string            `mapstructure:"versionFile"`
	BaseVersion            *string            `mapstructure:"baseVersion"`
	VersionFormat          *string            `mapstructure:"versionFormat"`
	VersionFormatByChannel map[string]string  `mapstructure:"versionFormatByChannel"`
	VersionStrategy        *string            `mapstructure:"versionStrategy"`
	ChannelAliases         map[string]string  `mapstructure:"channelAliases"`
	Changelog              *changelogFragment `mapstructure:"changelog"`
	EAS                    *easFragment       `mapstructure:"eas"`
	Channels               []string           `mapstructure:"channels"`
	DefaultChannel         *string            `mapstructure:"defaultChannel"`
	Hooks                  *hooks.Commands    `mapstructure:"hooks"`

	Extra map[string]any `mapstructure:",remain"`
}

type changelogFragment struct {
	Source        *string `mapstructure:"source"`
	CommitCount   *int    `mapstructure:"commitCount"`
	Format        *string `mapstructure:"format"`
	IncludeAuthor *bool   `mapstructure:"includeAuthor"`
	FilePath      *string `mapstructure:"filePath"`
}

type easFragment struct {
	AutoPublish            *bool             `mapstructure:"autoPublish"`
	MessageFormat          *string           `mapstructure:"messageFormat"`
	MessageFormatByChannel map[string]string `mapstructure:"messageFormatByChannel"`
	Platforms              []string          `mapstructure:"platforms"`
	Bin                    *string           `mapstructure:"bin"`
	Timeout                *string           `mapstructure:"timeout"`
}

// parseDocument decodes raw file content into a generic map. JSON files use
// jsoniter, everything else goes through yaml.v3.
func parseDocument(path string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return doc, nil
	}
	if filepath.Ext(path) == ".json" || strings.HasPrefix(trimmed, "{") {
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("parsing %s as JSON: %w", filepath.Base(path), err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s as YAML: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// decodeFragment maps the generic document onto a fragment. Type mismatches
// are returned one per field.
func decodeFragment(doc map[string]any) (fragment, []error) {
	var f fragment
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &f})
	if err != nil {
		return f, []error{err}
	}
	if err := dec.Decode(doc); err != nil {
		if me, ok := err.(*mapstructure.Error); ok {
			errs := make([]error, 0, len(me.Errors))
			for _, msg := range me.Errors {
				errs = append(errs, fmt.Errorf("%s", msg))
			}
			return f, errs
		}
		return f, []error{err}
	}
	return f, nil
}

// merge overlays f onto base at each known boundary: top level, changelog and eas.
func merge(base Config, f fragment) (Config, []error) {
	var errs []error
	out := base

	setString(&out.VersionFile, f.VersionFile)
	setString(&out.BaseVersion, f.BaseVersion)
	setString(&out.VersionFormat, f.VersionFormat)
	setString(&out.DefaultChannel, f.DefaultChannel)
	if f.VersionStrategy != nil {
		out.VersionStrategy = Strategy(*f.VersionStrategy)
	}
	if f.VersionFormatByChannel != nil {
		out.VersionFormatByChannel = f.VersionFormatByChannel
	}
	if f.ChannelAliases != nil {
		out.ChannelAliases = f.ChannelAliases
	}
	if f.Channels != nil {
		out.Channels = f.Channels
	}
	if f.Hooks != nil {
		out.HookCommands = *f.Hooks
	}
	if len(f.Extra) > 0 {
		out.Extra = f.Extra
	}

	if c := f.Changelog; c != nil {
		if c.Source != nil {
			out.Changelog.Source = ChangelogSource(*c.Source)
		}
		if c.CommitCount != nil {
			out.Changelog.CommitCount = *c.CommitCount
		}
		if c.Format != nil {
			out.Changelog.Format = ChangelogFormat(*c.Format)
		}
		if c.IncludeAuthor != nil {
			out.Changelog.IncludeAuthor = *c.IncludeAuthor
		}
		setString(&out.Changelog.FilePath, c.FilePath)
	}

	if e := f.EAS; e != nil {
		if e.AutoPublish != nil {
			out.EAS.AutoPublish = *e.AutoPublish
		}
		setString(&out.EAS.MessageFormat, e.MessageFormat)
		setString(&out.EAS.Bin, e.Bin)
		if e.MessageFormatByChannel != nil {
			out.EAS.MessageFormatByChannel = e.MessageFormatByChannel
		}
		if e.Platforms != nil {
			out.EAS.Platforms = e.Platforms
		}
		if e.Timeout != nil {
			d, err := time.ParseDuration(*e.Timeout)
			if err != nil {
				errs = append(errs, fmt.Errorf("eas.timeout: %w", err))
			} else {
				out.EAS.Timeout = d
			}
		}
	}

	return out, errs
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
