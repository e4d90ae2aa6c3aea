// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the data shared across the publishing pipeline.
package model

import (
	"errors"
	"fmt"
)

// VersionRecord is the persisted state written to the version file after each publish.
type VersionRecord struct {
	Version     string   `json:"version"`
	BuildNumber int      `json:"buildNumber"`
	ReleaseDate string   `json:"releaseDate"`
	Channel     string   `json:"channel"`
	Changelog   []string `json:"changelog"`
}

// Validate checks the record against the version file schema.
func (r *VersionRecord) Validate() error {
	if r == nil {
		return errors.New("version record is nil")
	}
	if r.Version == "" {
		return errors.New("version must be a non-empty string")
	}
	if r.BuildNumber < 0 {
		return fmt.Errorf("buildNumber must be nonnegative, got %d", r.BuildNumber)
	}
	if r.ReleaseDate == "" {
		return errors.New("releaseDate is required")
	}
	if r.Channel == "" {
		return errors.New("channel is required")
	}
	if r.Changelog == nil {
		return errors.New("changelog is required")
	}
	return nil
}

// PartialRecord carries field overrides returned by a custom version hook.
// Set fields take precedence over the computed record.
type PartialRecord struct {
	Version     *string  `json:"version,omitempty" mapstructure:"version"`
	BuildNumber *int     `json:"buildNumber,omitempty" mapstructure:"buildNumber"`
	ReleaseDate *string  `json:"releaseDate,omitempty" mapstructure:"releaseDate"`
	Channel     *string  `json:"channel,omitempty" mapstructure:"channel"`
	Changelog   []string `json:"changelog,omitempty" mapstructure:"changelog"`
}

// ApplyTo overlays the set fields of p onto base and returns the result.
func (p *PartialRecord) ApplyTo(base VersionRecord) VersionRecord {
	if p == nil {
		return base
	}
	if p.Version != nil {
		base.Version = *p.Version
	}
	if p.BuildNumber != nil {
		base.BuildNumber = *p.BuildNumber
	}
	if p.ReleaseDate != nil {
		base.ReleaseDate = *p.ReleaseDate
	}
	if p.Channel != nil {
		base.Channel = *p.Channel
	}
	if p.Changelog != nil {
		base.Changelog = p.Changelog
	}
	return base
}
