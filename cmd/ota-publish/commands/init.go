// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"github.com/spf13/cobra"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/logging"
	"github.com/bartekus/ota-publish/internal/pipeline"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create " + config.FileName + " in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := a.getwd()
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), a.verbose)
			defer func() { _ = logger.Sync() }()
			_, err = pipeline.Init(a.deps(cmd, logger), dir)
			return err
		},
	}
}
