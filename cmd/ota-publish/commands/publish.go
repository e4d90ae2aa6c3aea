// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"github.com/spf13/cobra"

	"github.com/bartekus/ota-publish/internal/pipeline"
)

func addPublishFlags(cmd *cobra.Command, opts *pipeline.PublishOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.Channel, "channel", "c", "", "channel to publish to (default: defaultChannel)")
	f.StringVarP(&opts.Message, "message", "m", "", "update message; also used as the only changelog entry")
	f.StringVarP(&opts.Strategy, "strategy", "s", "", "version strategy override: build, semver, date, custom")
	f.StringVar(&opts.VersionFormat, "version-format", "", "version template override")
	f.StringArrayVarP(&opts.Platforms, "platform", "p", nil, "platform to publish (ios, android, all); repeatable")
	f.BoolVar(&opts.DryRun, "dry-run", false, "show what would happen without writing or publishing")
	f.BoolVar(&opts.NoIncrement, "no-increment", false, "reuse the current version instead of computing a new one")
	f.BoolVarP(&opts.Interactive, "interactive", "i", false, "choose channel and message interactively")
}

func newPublishCmd(a *app) *cobra.Command {
	var opts pipeline.PublishOptions
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Compute the next version and publish an update (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPublish(cmd, opts)
		},
	}
	addPublishFlags(cmd, &opts)
	return cmd
}

func (a *app) runPublish(cmd *cobra.Command, opts pipeline.PublishOptions) error {
	p, logger, err := a.pipeline(cmd)
	defer func() { _ = logger.Sync() }()
	if err != nil {
		return err
	}
	_, err = p.Publish(cmd.Context(), opts)
	return err
}
