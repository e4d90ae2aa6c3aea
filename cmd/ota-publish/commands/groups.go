// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/bartekus/ota-publish/internal/eas"
	"github.com/bartekus/ota-publish/internal/model"
)

func newGroupsCmd(a *app) *cobra.Command {
	var (
		channel string
		limit   int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the recent update groups of a channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, logger, err := a.pipeline(cmd)
			defer func() { _ = logger.Sync() }()
			if err != nil {
				return err
			}
			groups, err := p.Groups(cmd.Context(), channel, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(groups)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), groupsTable(groups))
			return err
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel to inspect (default: defaultChannel)")
	cmd.Flags().IntVarP(&limit, "limit", "n", eas.DefaultListLimit, "number of updates to fetch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func groupsTable(groups []model.UpdateGroupSummary) string {
	if len(groups) == 0 {
		return "No update groups found."
	}
	t := uitable.New()
	t.MaxColWidth = 60
	t.AddRow("GROUP", "CREATED", "PLATFORMS", "RUNTIME", "UPDATES", "MESSAGE")
	for _, g := range groups {
		created := "-"
		if g.CreatedAt != nil {
			created = g.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		msg := "-"
		if g.Message != nil {
			msg = *g.Message
		}
		t.AddRow(g.GroupID, created, strings.Join(g.Platforms, ","), strings.Join(g.RuntimeVersions, ","), strconv.Itoa(g.UpdatesCount), msg)
	}
	return t.String()
}
