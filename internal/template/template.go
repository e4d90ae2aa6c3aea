// SPDX-License-Identifier: AGPL-3.0-or-later

// Package template renders {token} placeholders used by version and message formats.
package template

import (
	"regexp"

	"github.com/spf13/cast"
)

// Values maps token names to their replacement. Nil entries behave like missing ones.
type Values map[string]any

var tokenPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render replaces every {name} in tmpl with the stringified value of values[name].
// Tokens without a value, or whose value is nil, are kept verbatim so unknown
// placeholders typed by the user survive rendering.
func Render(tmpl string, values Values) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[1 : len(token)-1]
		v, ok := values[key]
		if !ok || v == nil {
			return token
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return token
		}
		return s
	})
}

// ForChannel returns the per-channel template when one is configured, else fallback.
func ForChannel(channel, fallback string, byChannel map[string]string) string {
	if t, ok := byChannel[channel]; ok {
		return t
	}
	return fallback
}
