// SPDX-License-Identifier: AGPL-3.0-or-later
package eas

import (
	"sort"
	"strings"
	"time"

	"github.com/bartekus/ota-publish/internal/model"
)

var branchKeys = []string{"branch", "branchName"}

// FindBranch searches a channel:view result for the branch name.
func FindBranch(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return deepFind(v, "branchName", "branch")
	}
	if s := firstString(obj, branchKeys...); s != "" {
		return s
	}
	if ub, ok := obj["updateBranch"].(map[string]any); ok {
		if s := firstString(ub, "name"); s != "" {
			return s
		}
	}
	switch bm := obj["branchMapping"].(type) {
	case map[string]any:
		if s := firstString(bm, branchKeys...); s != "" {
			return s
		}
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(bm), &parsed); err == nil {
			if s := deepFind(parsed, "branchName", "branch"); s != "" {
				return s
			}
		}
	}
	return deepFind(v, "branchName", "branch")
}

// deepFind walks v depth first and returns the first non-empty string under
// one of keys. Map keys are visited in sorted order.
func deepFind(v any, keys ...string) string {
	switch t := v.(type) {
	case map[string]any:
		if s := firstString(t, keys...); s != "" {
			return s
		}
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if s := deepFind(t[k], keys...); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range t {
			if s := deepFind(item, keys...); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// UpdateRecords extracts the flat update list from an update:list result.
func UpdateRecords(v any) []map[string]any {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, k := range []string{"updates", "items", "results"} {
			if arr, ok := t[k].([]any); ok {
				items = arr
				break
			}
		}
	}
	records := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records
}

// FoldGroups folds per-platform update records into one summary per group,
// sorted by creation time, newest first. Groups without a time sort last.
func FoldGroups(records []map[string]any) []model.UpdateGroupSummary {
	index := map[string]int{}
	var groups []model.UpdateGroupSummary

	for _, r := range records {
		id := firstString(r, "group", "groupId", "updateGroup", "updateGroupId")
		if id == "" {
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, model.UpdateGroupSummary{GroupID: id, Platforms: []string{}, RuntimeVersions: []string{}})
		}
		g := &groups[i]
		g.UpdatesCount++

		platform := firstString(r, "platform")
		if platform == "" {
			platform = "unknown"
		}
		g.Platforms = appendUnique(g.Platforms, platform)

		runtime := firstString(r, "runtimeVersion")
		if runtime == "" {
			runtime = "unknown"
		}
		g.RuntimeVersions = appendUnique(g.RuntimeVersions, runtime)

		if g.Message == nil {
			if s := firstString(r, "message"); s != "" {
				g.Message = &s
			}
		}
		if g.CreatedAt == nil {
			if s := firstString(r, "createdAt", "created", "publishedAt"); s != "" {
				if ts, ok := parseTime(s); ok {
					g.CreatedAt = &ts
				}
			}
		}
		if g.BranchName == nil {
			if s := branchOf(r); s != "" {
				g.BranchName = &s
			}
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ta, tb := groups[a].CreatedAt, groups[b].CreatedAt
		switch {
		case ta == nil:
			return false
		case tb == nil:
			return true
		default:
			return ta.After(*tb)
		}
	})
	return groups
}

func branchOf(r map[string]any) string {
	if s := firstString(r, branchKeys...); s != "" {
		return s
	}
	for _, k := range branchKeys {
		if m, ok := r[k].(map[string]any); ok {
			if s := firstString(m, "name"); s != "" {
				return s
			}
		}
	}
	return ""
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
