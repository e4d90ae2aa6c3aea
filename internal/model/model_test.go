// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialRecord_ApplyTo(t *testing.T) {
	base := VersionRecord{Version: "1.0.0", BuildNumber: 3, ReleaseDate: "d", Channel: "preview", Changelog: []string{"a"}}
	v := "9.9.9"
	got := (&PartialRecord{Version: &v, Changelog: []string{"b"}}).ApplyTo(base)

	assert.Equal(t, "9.9.9", got.Version)
	assert.Equal(t, 3, got.BuildNumber)
	assert.Equal(t, "preview", got.Channel)
	assert.Equal(t, []string{"b"}, got.Changelog)

	var nilPartial *PartialRecord
	assert.Equal(t, base, nilPartial.ApplyTo(base))
}

func TestVersionRecord_Validate(t *testing.T) {
	ok := VersionRecord{Version: "1", BuildNumber: 0, ReleaseDate: "d", Channel: "c", Changelog: []string{}}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Version = ""
	assert.Error(t, bad.Validate())

	bad = ok
	bad.BuildNumber = -1
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Changelog = nil
	assert.Error(t, bad.Validate())
}

func TestChoiceLabel(t *testing.T) {
	msg := strings.Repeat("x", 70)
	g := UpdateGroupSummary{GroupID: "0123456789abcdef", Message: &msg, RuntimeVersions: []string{"1.0.0"}}
	label := g.ChoiceLabel()

	assert.True(t, strings.HasPrefix(label, "0123456789 | unknown date | 1.0.0 | "))
	assert.True(t, strings.HasSuffix(label, strings.Repeat("x", 57)+"..."))

	wide := strings.Repeat("é", 61)
	accented := UpdateGroupSummary{GroupID: "ééééééééééééé", Message: &wide}
	label = accented.ChoiceLabel()
	assert.True(t, utf8.ValidString(label))
	assert.Equal(t, strings.Repeat("é", 10)+" | unknown date | unknown runtime | "+strings.Repeat("é", 57)+"...", label)

	short := strings.Repeat("é", 40)
	kept := UpdateGroupSummary{GroupID: "g", Message: &short}
	assert.Equal(t, "g | unknown date | unknown runtime | "+short, kept.ChoiceLabel())

	empty := UpdateGroupSummary{GroupID: "abc"}
	assert.Equal(t, "abc | unknown date | unknown runtime | No message", empty.ChoiceLabel())
}

func TestNormalizePlatforms(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    Platform
		wantErr bool
	}{
		{name: "none", in: nil, want: ""},
		{name: "ios", in: []string{"ios"}, want: PlatformIOS},
		{name: "ios twice", in: []string{"ios", "ios"}, want: PlatformIOS},
		{name: "both", in: []string{"android", "ios"}, want: PlatformAll},
		{name: "all wins", in: []string{"android", "all"}, want: PlatformAll},
		{name: "invalid", in: []string{"web"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePlatforms(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
