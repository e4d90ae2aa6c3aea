// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline sequences the publish, promote, revert and init commands.
//
// Every step runs sequentially. A failure in any step runs the onError hook
// once, best-effort, before it is returned to the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/config"
	"github.com/bartekus/ota-publish/internal/eas"
	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
	"github.com/bartekus/ota-publish/internal/prompt"
)

// ErrCancelled is returned when the user declines to continue.
var ErrCancelled = errors.New("cancelled")

// InputError reports invalid command input.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	FS     afero.Fs
	Exec   executil.Executor
	Prompt prompt.Prompter
	// Out receives user-facing progress; Err receives streamed tool errors.
	Out    io.Writer
	Err    io.Writer
	Logger *zap.Logger
	Now    func() time.Time
}

func (d *Deps) defaults() {
	if d.FS == nil {
		d.FS = afero.NewOsFs()
	}
	if d.Exec == nil {
		d.Exec = executil.OS{}
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Err == nil {
		d.Err = io.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// Pipeline runs commands against one loaded configuration.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New creates a Pipeline for cfg.
func New(cfg *config.Config, deps Deps) *Pipeline {
	deps.defaults()
	return &Pipeline{cfg: cfg, deps: deps}
}

func (p *Pipeline) client() *eas.Client {
	return &eas.Client{
		Bin:     p.cfg.EAS.Bin,
		Dir:     p.cfg.Dir,
		Exec:    p.deps.Exec,
		Timeout: p.cfg.EAS.Timeout,
		Logger:  p.deps.Logger,
		Stdout:  p.deps.Out,
		Stderr:  p.deps.Err,
	}
}

// resolve makes path absolute against the project directory.
func (p *Pipeline) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.cfg.Dir, path)
}

func (p *Pipeline) validateChannel(flag, channel string) error {
	if channel == "" {
		return inputErrorf("%s is required", flag)
	}
	if !p.cfg.HasChannel(channel) {
		return inputErrorf("invalid channel %q. Valid channels: %s", channel, strings.Join(p.cfg.Channels, ", "))
	}
	return nil
}

// fail runs onError for err and returns err unchanged. The hook's own
// failure is logged and dropped.
func (p *Pipeline) fail(ctx context.Context, command, channel string, err error) error {
	if err == nil || errors.Is(err, ErrCancelled) || p.cfg.Hooks.OnError == nil {
		return err
	}
	herr := p.cfg.Hooks.OnError(ctx, err, hooks.ErrorContext{Command: command, Channel: channel, Cwd: p.cfg.Dir})
	if herr != nil {
		p.deps.Logger.Warn("onError hook failed", zap.String("command", command), zap.Error(herr))
	}
	return err
}

// confirm asks question unless skip is set. A missing terminal is an input
// error telling the user how to skip the question.
func (p *Pipeline) confirm(question string, skip bool) error {
	if skip {
		return nil
	}
	if p.deps.Prompt == nil {
		return inputErrorf("confirmation required; pass --yes to continue without a terminal")
	}
	ok, err := p.deps.Prompt.Confirm(question, false)
	switch {
	case errors.Is(err, prompt.ErrNotInteractive):
		return inputErrorf("confirmation required; pass --yes to continue without a terminal")
	case errors.Is(err, prompt.ErrAborted):
		return ErrCancelled
	case err != nil:
		return err
	case !ok:
		return ErrCancelled
	}
	return nil
}

var (
	headStyle    = color.New(color.Bold)
	channelStyle = color.New(color.FgCyan)
	dryRunStyle  = color.New(color.FgYellow, color.Bold)
	okStyle      = color.New(color.FgGreen)
	dimStyle     = color.New(color.Faint)
)

func (p *Pipeline) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.deps.Out, format, args...)
}

func (p *Pipeline) dryRunBanner() {
	p.printf("%s\n", dryRunStyle.Sprint("DRY RUN: nothing will be written or published"))
}
