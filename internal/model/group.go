// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"fmt"
	"strings"
	"time"
)

// UpdateGroupSummary folds the per-platform updates of one update group.
type UpdateGroupSummary struct {
	GroupID         string     `json:"groupId"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	Message         *string    `json:"message,omitempty"`
	Platforms       []string   `json:"platforms"`
	RuntimeVersions []string   `json:"runtimeVersions"`
	BranchName      *string    `json:"branchName,omitempty"`
	UpdatesCount    int        `json:"updatesCount"`
}

// ChoiceLabel renders the one-line description used when picking a group.
func (g UpdateGroupSummary) ChoiceLabel() string {
	id := g.GroupID
	if r := []rune(id); len(r) > 10 {
		id = string(r[:10])
	}
	date := "unknown date"
	if g.CreatedAt != nil {
		date = g.CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	runtime := "unknown runtime"
	if len(g.RuntimeVersions) > 0 {
		runtime = g.RuntimeVersions[0]
	}
	msg := "No message"
	if g.Message != nil {
		msg = *g.Message
	}
	if r := []rune(msg); len(r) > 60 {
		msg = string(r[:57]) + "..."
	}
	return fmt.Sprintf("%s | %s | %s | %s", id, date, runtime, msg)
}

// Platform is a target accepted by the external release tool.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformAll     Platform = "all"
)

// ParsePlatform validates a single platform value. Empty means all.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.TrimSpace(s)); p {
	case "":
		return PlatformAll, nil
	case PlatformIOS, PlatformAndroid, PlatformAll:
		return p, nil
	default:
		return "", fmt.Errorf("invalid platform %q. Supported: ios, android, all", s)
	}
}

// NormalizePlatforms folds a set of platforms into the single value the
// external tool accepts. It returns "" when the set is empty.
func NormalizePlatforms(values []string) (Platform, error) {
	var ios, android bool
	for _, v := range values {
		p, err := ParsePlatform(v)
		if err != nil {
			return "", err
		}
		switch p {
		case PlatformIOS:
			ios = true
		case PlatformAndroid:
			android = true
		case PlatformAll:
			ios, android = true, true
		}
	}
	switch {
	case ios && android:
		return PlatformAll, nil
	case ios:
		return PlatformIOS, nil
	case android:
		return PlatformAndroid, nil
	default:
		return "", nil
	}
}
