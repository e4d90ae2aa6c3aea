// SPDX-License-Identifier: AGPL-3.0-or-later
package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/changelog"
	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/eas"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/model"
	"github.com/bartekus/ota-publish/internal/prompt"
	"github.com/bartekus/ota-publish/internal/template"
	"github.com/bartekus/ota-publish/internal/version"
)

const summaryEntries = 5

// PublishOptions are the inputs of Publish.
type PublishOptions struct {
	Channel       string
	Message       string
	Strategy      string
	VersionFormat string
	Platforms     []string
	DryRun        bool
	NoIncrement   bool
	Interactive   bool
}

// PublishResult describes what Publish computed and did.
type PublishResult struct {
	Previous  *model.VersionRecord
	Record    model.VersionRecord
	Message   string
	Command   string
	Written   bool
	Published bool
}

// Publish computes the next version for a channel, persists it and
// publishes an update through the external tool.
func (p *Pipeline) Publish(ctx context.Context, opts PublishOptions) (*PublishResult, error) {
	res, err := p.publish(ctx, &opts)
	return res, p.fail(ctx, "publish", opts.Channel, err)
}

func (p *Pipeline) publish(ctx context.Context, opts *PublishOptions) (*PublishResult, error) {
	cfg := p.cfg
	store := version.NewStore(p.deps.FS, p.resolve(cfg.VersionFile))
	current, err := store.Read()
	if err != nil {
		return nil, err
	}

	if opts.Interactive {
		if err := p.askPublishInputs(opts); err != nil {
			return nil, err
		}
	}
	if opts.Channel == "" {
		opts.Channel = cfg.DefaultChannel
	}
	if err := p.validateChannel("--channel", opts.Channel); err != nil {
		return nil, err
	}

	ov := &version.Overrides{VersionFormat: opts.VersionFormat}
	if opts.Strategy != "" {
		st, ok := config.ParseStrategy(opts.Strategy)
		if !ok {
			return nil, inputErrorf("invalid strategy %q. Supported: build, semver, date, custom", opts.Strategy)
		}
		ov.Strategy = st
	}

	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = cfg.EAS.Platforms
	}
	platform, err := model.NormalizePlatforms(platforms)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}

	var entries []string
	if opts.Message != "" {
		entries = []string{opts.Message}
	} else {
		gen := &changelog.Generator{FS: p.deps.FS, Exec: p.deps.Exec, Prompt: p.deps.Prompt, Out: p.deps.Out, Logger: p.deps.Logger}
		entries, err = gen.Generate(ctx, cfg, cfg.Dir, current, opts.Channel)
		if err != nil {
			return nil, err
		}
	}

	var hookOverrides *hooks.PublishOverrides
	if cfg.Hooks.BeforePublish != nil {
		hookOverrides, err = cfg.Hooks.BeforePublish(ctx, hooks.BeforePublishContext{
			CurrentVersion: current,
			Channel:        opts.Channel,
			Changelog:      entries,
			Cwd:            cfg.Dir,
			DryRun:         opts.DryRun,
		})
		if err != nil {
			return nil, err
		}
		if hookOverrides != nil && hookOverrides.Changelog != nil {
			entries = hookOverrides.Changelog
		}
	}

	var rec model.VersionRecord
	if opts.NoIncrement && current != nil {
		rec = *current
		rec.Changelog = entries
	} else {
		engine := &version.Engine{FS: p.deps.FS, Now: p.deps.Now, Logger: p.deps.Logger}
		rec, err = engine.Increment(ctx, current, opts.Channel, entries, cfg, cfg.Dir, ov)
		if err != nil {
			return nil, err
		}
	}
	if hookOverrides != nil && hookOverrides.Version != nil {
		rec.Version = *hookOverrides.Version
	}

	message := opts.Message
	if message == "" && hookOverrides != nil && hookOverrides.Message != nil {
		message = *hookOverrides.Message
	}
	if message == "" {
		message = RenderMessage(cfg, rec, opts.Channel)
	}

	client := p.client()
	req := eas.PublishRequest{Channel: opts.Channel, Message: message, Platform: platform}
	res := &PublishResult{
		Previous: current,
		Record:   rec,
		Message:  message,
		Command:  client.FormatCommand(req.Args()),
	}

	p.printSummary(rec, message)

	if opts.DryRun {
		p.dryRunBanner()
		diff, err := p.versionDiff(store, rec)
		if err != nil {
			return nil, err
		}
		p.printf("%s\n", headStyle.Sprint("Version file changes:"))
		p.printf("%s", diff)
		if cfg.EAS.AutoPublish {
			p.printf("%s %s\n", headStyle.Sprint("Would run:"), res.Command)
		}
		return res, nil
	}

	if opts.Interactive {
		if err := p.confirm("Publish "+rec.Version+" to "+opts.Channel+"?", false); err != nil {
			return nil, err
		}
	}

	if cfg.EAS.AutoPublish {
		if _, err := client.CheckInstalled(ctx); err != nil {
			return nil, err
		}
	}

	if err := store.Write(rec); err != nil {
		return nil, err
	}
	res.Written = true
	p.deps.Logger.Debug("version file written", zap.String("path", store.Path()))

	if cfg.EAS.AutoPublish {
		p.printf("Running %s\n", res.Command)
		if err := client.Publish(ctx, req); err != nil {
			return res, err
		}
		res.Published = true
	}

	if cfg.Hooks.AfterPublish != nil {
		herr := cfg.Hooks.AfterPublish(ctx, rec, hooks.PublishContext{
			Channel: opts.Channel,
			Message: message,
			Cwd:     cfg.Dir,
			DryRun:  opts.DryRun,
		})
		if herr != nil {
			p.deps.Logger.Warn("afterPublish hook failed", zap.Error(herr))
		}
	}

	if res.Published {
		p.printf("%s\n", okStyle.Sprintf("Published %s to %s", rec.Version, opts.Channel))
	} else {
		p.printf("%s\n", okStyle.Sprintf("Version %s written to %s (eas.autoPublish is off)", rec.Version, cfg.VersionFile))
	}
	return res, nil
}

// askPublishInputs fills channel and message from the prompt.
func (p *Pipeline) askPublishInputs(opts *PublishOptions) error {
	if p.deps.Prompt == nil {
		return inputErrorf("interactive mode requires a terminal")
	}
	cfg := p.cfg
	want := opts.Channel
	if want == "" {
		want = cfg.DefaultChannel
	}
	options := make([]prompt.Option, len(cfg.Channels))
	initial := 0
	for i, ch := range cfg.Channels {
		label := ch
		if alias := cfg.ChannelAlias(ch); alias != ch {
			label = ch + " (" + alias + ")"
		}
		options[i] = prompt.Option{Label: label, Value: ch}
		if ch == want {
			initial = i
		}
	}
	ch, err := p.deps.Prompt.Select("Select channel", options, initial)
	if err != nil {
		return promptError(err)
	}
	opts.Channel = ch

	if opts.Message != "" {
		return nil
	}
	if cfg.Changelog.Source == config.SourceGit {
		useGit, err := p.deps.Prompt.Confirm("Use recent git commits as the changelog?", true)
		if err != nil {
			return promptError(err)
		}
		if useGit {
			return nil
		}
	}
	msg, err := p.deps.Prompt.Input("Update message (empty to use the configured changelog):", "")
	if err != nil {
		return promptError(err)
	}
	opts.Message = msg
	return nil
}

func promptError(err error) error {
	switch {
	case errors.Is(err, prompt.ErrAborted):
		return ErrCancelled
	case errors.Is(err, prompt.ErrNotInteractive):
		return inputErrorf("interactive mode requires a terminal")
	}
	return err
}

// RenderMessage renders the publish message template of channel for rec.
func RenderMessage(cfg *config.Config, rec model.VersionRecord, channel string) string {
	first := "Update"
	if len(rec.Changelog) > 0 {
		first = rec.Changelog[0]
	}
	date := rec.ReleaseDate
	if len(date) >= 10 {
		date = date[:10]
	}
	tmpl := template.ForChannel(channel, cfg.EAS.MessageFormat, cfg.EAS.MessageFormatByChannel)
	return template.Render(tmpl, template.Values{
		"version":      rec.Version,
		"channel":      channel,
		"channelAlias": cfg.ChannelAlias(channel),
		"build":        rec.BuildNumber,
		"buildNumber":  rec.BuildNumber,
		"firstChange":  first,
		"date":         date,
		"changeCount":  len(rec.Changelog),
	})
}

func (p *Pipeline) printSummary(rec model.VersionRecord, message string) {
	p.printf("%s\n", headStyle.Sprint("OTA update"))
	p.printf("  Version:  %s\n", rec.Version)
	p.printf("  Build:    %d\n", rec.BuildNumber)
	p.printf("  Channel:  %s\n", channelStyle.Sprint(rec.Channel))
	p.printf("  Released: %s\n", rec.ReleaseDate)
	p.printf("  Message:  %s\n", message)
	p.printf("  Changelog:\n")
	for i, entry := range rec.Changelog {
		if i == summaryEntries {
			p.printf("%s\n", dimStyle.Sprintf("    ... and %d more", len(rec.Changelog)-summaryEntries))
			break
		}
		p.printf("    - %s\n", entry)
	}
}

// versionDiff renders the unified diff between the stored and computed file.
func (p *Pipeline) versionDiff(store *version.Store, rec model.VersionRecord) (string, error) {
	next, err := version.Encode(rec)
	if err != nil {
		return "", err
	}
	prev, err := afero.ReadFile(p.deps.FS, store.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	from := p.cfg.VersionFile
	var before []string
	if len(prev) == 0 {
		from = "/dev/null"
	} else {
		before = difflib.SplitLines(strings.TrimSuffix(string(prev), "\n"))
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        difflib.SplitLines(strings.TrimSuffix(string(next), "\n")),
		FromFile: from,
		ToFile:   p.cfg.VersionFile,
		Context:  3,
	})
}
