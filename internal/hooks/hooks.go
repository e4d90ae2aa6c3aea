// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hooks defines the optional lifecycle hooks of the publishing pipeline.
//
// Every hook is optional: callers check the field for nil before invoking it.
// Hooks come either from Go code (set the function fields directly) or from
// the config file, where each hook is a shell command (see FromCommands).
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartekus/ota-publish/internal/model"
)

// ErrContract reports a hook result that does not match the expected shape.
var ErrContract = errors.New("hook returned an invalid result")

// Error wraps a failure raised by a hook.
type Error struct {
	Hook string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("hook %s failed: %v", e.Hook, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Hook names, as they appear in the config file.
const (
	BeforePublish     = "beforePublish"
	AfterPublish      = "afterPublish"
	OnError           = "onError"
	GenerateVersion   = "generateVersion"
	GenerateChangelog = "generateChangelog"
)

// SemverParts is the parsed major.minor.patch triple of the base version.
type SemverParts struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// BeforePublishContext is passed to BeforePublish.
type BeforePublishContext struct {
	CurrentVersion *model.VersionRecord `json:"currentVersion"`
	Channel        string               `json:"channel"`
	Changelog      []string             `json:"changelog"`
	Cwd            string               `json:"cwd"`
	DryRun         bool                 `json:"dryRun"`
}

// PublishOverrides may be returned by BeforePublish. Nil fields keep the computed value.
type PublishOverrides struct {
	Changelog []string `json:"changelog,omitempty" mapstructure:"changelog"`
	Message   *string  `json:"message,omitempty" mapstructure:"message"`
	Version   *string  `json:"version,omitempty" mapstructure:"version"`
}

// PublishContext is passed to AfterPublish.
type PublishContext struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	Cwd     string `json:"cwd"`
	DryRun  bool   `json:"dryRun"`
}

// ErrorContext is passed to OnError.
type ErrorContext struct {
	Command string `json:"command"`
	Channel string `json:"channel,omitempty"`
	Cwd     string `json:"cwd"`
}

// VersionContext is passed to GenerateVersion.
type VersionContext struct {
	CurrentVersion    *model.VersionRecord `json:"currentVersion"`
	Channel           string               `json:"channel"`
	Changelog         []string             `json:"changelog"`
	Cwd               string               `json:"cwd"`
	BuildNumber       int                  `json:"buildNumber"`
	BaseVersion       string               `json:"baseVersion"`
	ParsedBaseVersion SemverParts          `json:"parsedBaseVersion"`
	TemplateVars      map[string]any       `json:"templateVars"`
	DefaultVersion    string               `json:"defaultVersion"`
}

// VersionResult is what GenerateVersion produces: either a plain version
// string, or a partial record merged over the computed one.
type VersionResult struct {
	Version string
	Partial *model.PartialRecord
}

// ChangelogContext is passed to GenerateChangelog.
type ChangelogContext struct {
	CurrentVersion *model.VersionRecord `json:"currentVersion"`
	Channel        string               `json:"channel"`
	Cwd            string               `json:"cwd"`
}

// Hooks is the optional capability set. Nil fields are absent hooks.
type Hooks struct {
	BeforePublish     func(ctx context.Context, in BeforePublishContext) (*PublishOverrides, error)
	AfterPublish      func(ctx context.Context, rec model.VersionRecord, in PublishContext) error
	OnError           func(ctx context.Context, cause error, in ErrorContext) error
	GenerateVersion   func(ctx context.Context, in VersionContext) (*VersionResult, error)
	GenerateChangelog func(ctx context.Context, in ChangelogContext) ([]string, error)
}

// Merge fills the absent hooks of primary from fallback.
func Merge(primary, fallback Hooks) Hooks {
	if primary.BeforePublish == nil {
		primary.BeforePublish = fallback.BeforePublish
	}
	if primary.AfterPublish == nil {
		primary.AfterPublish = fallback.AfterPublish
	}
	if primary.OnError == nil {
		primary.OnError = fallback.OnError
	}
	if primary.GenerateVersion == nil {
		primary.GenerateVersion = fallback.GenerateVersion
	}
	if primary.GenerateChangelog == nil {
		primary.GenerateChangelog = fallback.GenerateChangelog
	}
	return primary
}
