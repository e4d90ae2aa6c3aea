// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"github.com/spf13/cobra"

	"github.com/bartekus/ota-publish/internal/pipeline"
)

func addReleaseFlags(cmd *cobra.Command, opts *pipeline.ReleaseOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.GroupID, "group", "g", "", "update group id (default: choose interactively)")
	f.StringVarP(&opts.Message, "message", "m", "", "message for the republished update")
	f.StringVarP(&opts.Platform, "platform", "p", "all", "platform to republish: ios, android, all")
	f.BoolVar(&opts.DryRun, "dry-run", false, "print the command without running it")
	f.BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")
}

func newPromoteCmd(a *app) *cobra.Command {
	var opts pipeline.PromoteOptions
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Republish an update group from one channel to another",
		Example: `  ota-publish promote --from preview --to production
  ota-publish promote --from preview --to production -g 4f2c... -y`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, logger, err := a.pipeline(cmd)
			defer func() { _ = logger.Sync() }()
			if err != nil {
				return err
			}
			_, err = p.Promote(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "source channel")
	cmd.Flags().StringVar(&opts.To, "to", "", "destination channel")
	addReleaseFlags(cmd, &opts.ReleaseOptions)
	return cmd
}

func newRevertCmd(a *app) *cobra.Command {
	var opts pipeline.RevertOptions
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Roll a channel back by republishing an earlier update group to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, logger, err := a.pipeline(cmd)
			defer func() { _ = logger.Sync() }()
			if err != nil {
				return err
			}
			_, err = p.Revert(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.Channel, "channel", "c", "", "channel to roll back")
	addReleaseFlags(cmd, &opts.ReleaseOptions)
	return cmd
}
