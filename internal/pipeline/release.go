// SPDX-License-Identifier: AGPL-3.0-or-later
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/eas"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/prompt"
)

// ReleaseOptions are shared by Promote and Revert.
type ReleaseOptions struct {
	GroupID  string
	Message  string
	Platform string
	DryRun   bool
	Yes      bool
}

// PromoteOptions are the inputs of Promote.
type PromoteOptions struct {
	From string
	To   string
	ReleaseOptions
}

// RevertOptions are the inputs of Revert.
type RevertOptions struct {
	Channel string
	ReleaseOptions
}

// ReleaseResult describes a republish.
type ReleaseResult struct {
	GroupID  string
	Group    *model.UpdateGroupSummary
	Command  string
	Executed bool
}

// Promote republishes an update group of one channel to another.
func (p *Pipeline) Promote(ctx context.Context, opts PromoteOptions) (*ReleaseResult, error) {
	res, err := p.promote(ctx, opts)
	return res, p.fail(ctx, "promote", opts.To, err)
}

func (p *Pipeline) promote(ctx context.Context, opts PromoteOptions) (*ReleaseResult, error) {
	if opts.From == "" || opts.To == "" {
		return nil, inputErrorf("both --from and --to are required")
	}
	if opts.From == opts.To {
		return nil, inputErrorf("--from and --to must be different channels (got %q twice); use revert to republish on the same channel", opts.From)
	}
	if err := p.validateChannel("--from", opts.From); err != nil {
		return nil, err
	}
	if err := p.validateChannel("--to", opts.To); err != nil {
		return nil, err
	}
	return p.republish(ctx, opts.From, opts.To, opts.ReleaseOptions, 0, func(id string) string {
		return fmt.Sprintf("Promote %s from %s to %s", id, channelStyle.Sprint(opts.From), channelStyle.Sprint(opts.To))
	})
}

// Revert republishes an earlier update group onto the same channel.
func (p *Pipeline) Revert(ctx context.Context, opts RevertOptions) (*ReleaseResult, error) {
	res, err := p.revert(ctx, opts)
	return res, p.fail(ctx, "revert", opts.Channel, err)
}

func (p *Pipeline) revert(ctx context.Context, opts RevertOptions) (*ReleaseResult, error) {
	if err := p.validateChannel("--channel", opts.Channel); err != nil {
		return nil, err
	}
	// The newest group is what the channel already serves; offer the one before it.
	return p.republish(ctx, opts.Channel, opts.Channel, opts.ReleaseOptions, 1, func(id string) string {
		return fmt.Sprintf("Revert %s to %s", channelStyle.Sprint(opts.Channel), id)
	})
}

func (p *Pipeline) republish(ctx context.Context, source, dest string, opts ReleaseOptions, initial int, title func(groupID string) string) (*ReleaseResult, error) {
	platform, err := model.ParsePlatform(opts.Platform)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}

	client := p.client()
	res := &ReleaseResult{GroupID: opts.GroupID}
	if res.GroupID == "" {
		group, err := p.pickGroup(ctx, client, source, initial)
		if err != nil {
			return nil, err
		}
		if !HasPlatform(*group, platform) {
			return nil, inputErrorf("update group %s has no %s update (platforms: %s)", group.GroupID, platform, strings.Join(group.Platforms, ", "))
		}
		res.Group = group
		res.GroupID = group.GroupID
	}

	req := eas.RepublishRequest{GroupID: res.GroupID, Destination: dest, Platform: platform, Message: opts.Message}
	res.Command = client.FormatCommand(req.Args())

	p.printf("%s\n", headStyle.Sprint(title(res.GroupID)))
	if res.Group != nil {
		p.printf("  %s\n", res.Group.ChoiceLabel())
	}
	p.printf("  Platform: %s\n", platform)

	if opts.DryRun {
		p.dryRunBanner()
		p.printf("%s %s\n", headStyle.Sprint("Would run:"), res.Command)
		return res, nil
	}
	if err := p.confirm(fmt.Sprintf("Republish group %s to %s?", res.GroupID, dest), opts.Yes); err != nil {
		return nil, err
	}

	p.printf("Running %s\n", res.Command)
	if err := client.Republish(ctx, req); err != nil {
		return nil, err
	}
	res.Executed = true
	p.printf("%s\n", okStyle.Sprintf("Republished %s to %s", res.GroupID, dest))
	return res, nil
}

// pickGroup lists the recent groups of channel and asks the user to pick one.
func (p *Pipeline) pickGroup(ctx context.Context, client *eas.Client, channel string, initial int) (*model.UpdateGroupSummary, error) {
	groups, branch, err := p.recentGroups(ctx, client, channel, eas.DefaultListLimit)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no update groups found on branch %q for channel %q", branch, channel)
	}
	if p.deps.Prompt == nil {
		return nil, inputErrorf("no terminal to choose an update group; pass --group")
	}
	options := make([]prompt.Option, len(groups))
	for i, g := range groups {
		options[i] = prompt.Option{Label: g.ChoiceLabel(), Value: g.GroupID}
	}
	if initial >= len(groups) {
		initial = 0
	}
	id, err := p.deps.Prompt.Select(fmt.Sprintf("Select an update group from %s (branch %s)", channel, branch), options, initial)
	if err != nil {
		if errors.Is(err, prompt.ErrNotInteractive) {
			return nil, inputErrorf("no terminal to choose an update group; pass --group")
		}
		return nil, promptError(err)
	}
	for i := range groups {
		if groups[i].GroupID == id {
			return &groups[i], nil
		}
	}
	return nil, ErrCancelled
}

func (p *Pipeline) recentGroups(ctx context.Context, client *eas.Client, channel string, limit int) ([]model.UpdateGroupSummary, string, error) {
	branch, err := client.ResolveBranchFromChannel(ctx, channel)
	if err != nil {
		return nil, "", err
	}
	p.deps.Logger.Debug("resolved branch", zap.String("channel", channel), zap.String("branch", branch))
	groups, err := client.ListRecentUpdateGroups(ctx, branch, limit)
	if err != nil {
		return nil, branch, err
	}
	return groups, branch, nil
}

// Groups lists the recent update groups served to channel.
func (p *Pipeline) Groups(ctx context.Context, channel string, limit int) ([]model.UpdateGroupSummary, error) {
	groups, err := p.groups(ctx, channel, limit)
	return groups, p.fail(ctx, "groups", channel, err)
}

func (p *Pipeline) groups(ctx context.Context, channel string, limit int) ([]model.UpdateGroupSummary, error) {
	if channel == "" {
		channel = p.cfg.DefaultChannel
	}
	if err := p.validateChannel("--channel", channel); err != nil {
		return nil, err
	}
	groups, _, err := p.recentGroups(ctx, p.client(), channel, limit)
	return groups, err
}

// HasPlatform reports whether g contains an update for platform.
func HasPlatform(g model.UpdateGroupSummary, platform model.Platform) bool {
	if platform == model.PlatformAll {
		return true
	}
	for _, pl := range g.Platforms {
		if strings.EqualFold(pl, string(platform)) {
			return true
		}
	}
	return false
}
