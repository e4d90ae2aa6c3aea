// SPDX-License-Identifier: AGPL-3.0-or-later

/*
ota-publish - versioned over-the-air update publishing for Expo projects.
It computes the next version, builds a changelog and drives the EAS CLI to publish, promote and revert update groups.

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/cmd/ota-publish/internal/clierr"
	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/logging"
	"github.com/bartekus/ota-publish/internal/pipeline"
	"github.com/bartekus/ota-publish/internal/prompt"
)

// app holds what the commands share. Tests replace the collaborators.
type app struct {
	verbose bool

	fs        afero.Fs
	exec      executil.Executor
	prompter  prompt.Prompter
	getwd     func() (string, error)
	now       func() time.Time
	lookupEnv func(string) (string, bool)
}

func defaultApp() *app {
	return &app{
		fs:        afero.NewOsFs(),
		exec:      executil.OS{},
		getwd:     os.Getwd,
		now:       time.Now,
		lookupEnv: os.LookupEnv,
	}
}

// NewRootCmd constructs the root command. Without a subcommand it publishes.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultApp())
}

func newRootCmd(a *app) *cobra.Command {
	version := os.Getenv("OTA_PUBLISH_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	var opts pipeline.PublishOptions
	cmd := &cobra.Command{
		Use:   "ota-publish",
		Short: "Publish versioned OTA updates through EAS",
		Long: `ota-publish computes the next OTA version for a channel, records it in the
version file and publishes the update with the EAS CLI. Without a subcommand
it runs publish.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPublish(cmd, opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	addPublishFlags(cmd, &opts)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of ota-publish",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ota-publish version %s\n", version)
		},
	})
	cmd.AddCommand(newPublishCmd(a))
	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newPromoteCmd(a))
	cmd.AddCommand(newRevertCmd(a))
	cmd.AddCommand(newGroupsCmd(a))

	return cmd
}

// pipeline loads the configuration from the working directory and wires a Pipeline.
func (a *app) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, *zap.Logger, error) {
	logger := logging.New(cmd.ErrOrStderr(), a.verbose)
	dir, err := a.getwd()
	if err != nil {
		return nil, logger, clierr.Wrap(clierr.CodeGeneric, "resolving working directory", err)
	}
	cfg, err := config.Load(dir, config.LoadOptions{
		FS:         a.fs,
		Exec:       a.exec,
		HookOutput: cmd.OutOrStdout(),
		LookupEnv:  a.lookupEnv,
	})
	if err != nil {
		return nil, logger, clierr.Wrapf(clierr.CodeConfig, err, "loading configuration from %s", dir)
	}
	logger.Debug("configuration loaded", zap.String("path", cfg.Path), zap.String("dir", cfg.Dir))

	return pipeline.New(cfg, a.deps(cmd, logger)), logger, nil
}

func (a *app) deps(cmd *cobra.Command, logger *zap.Logger) pipeline.Deps {
	p := a.prompter
	if p == nil {
		p = prompt.TUI{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	}
	return pipeline.Deps{
		FS:     a.fs,
		Exec:   a.exec,
		Prompt: p,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
		Logger: logger,
		Now:    a.now,
	}
}
