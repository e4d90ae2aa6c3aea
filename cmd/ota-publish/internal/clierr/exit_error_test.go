// SPDX-License-Identifier: AGPL-3.0-or-later
package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/pipeline"
)

func TestExitCodeOf(t *testing.T) {
	tool := &executil.ExitError{Command: "eas update", ExitCode: 1}
	err := config.Validate(&config.Config{})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), CodeGeneric},
		{"explicit", New(7, "seven"), 7},
		{"explicit zero normalised", New(0, "zero"), CodeGeneric},
		{"validation", err, CodeConfig},
		{"config exists", fmt.Errorf("init: %w", config.ErrConfigExists), CodeConfig},
		{"unsupported", config.ErrUnsupportedConfig, CodeConfig},
		{"input", &pipeline.InputError{Msg: "bad channel"}, CodeInput},
		{"cancelled", fmt.Errorf("publish: %w", pipeline.ErrCancelled), CodeCancelled},
		{"external", fmt.Errorf("publishing: %w", tool), CodeExternal},
		{"hook wrapping a subprocess", &hooks.Error{Hook: "beforePublish", Err: tool}, CodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeOf(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrapf(CodeInput, cause, "loading %s", "x")
	assert.Equal(t, "loading x: cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInput, ExitCodeOf(err))
	assert.Equal(t, New(3, "m"), Wrap(3, "m", nil))
}
