// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/bartekus/ota-publish/cmd/ota-publish/commands"
	"github.com/bartekus/ota-publish/cmd/ota-publish/internal/clierr"
	"github.com/bartekus/ota-publish/internal/pipeline"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		if errors.Is(err, pipeline.ErrCancelled) {
			_, _ = color.New(color.FgYellow).Fprintln(os.Stderr, "Cancelled.")
		} else {
			_, _ = color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(clierr.ExitCodeOf(err))
	}
}
