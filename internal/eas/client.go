// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eas drives the external update-hosting CLI.
//
// Read operations run with --json --non-interactive. Their output shape
// varies between tool versions, so only a few well-known keys are looked up.
package eas

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultListLimit is the number of updates fetched when picking a group.
const DefaultListLimit = 20

// Client runs the external tool.
type Client struct {
	Bin     string
	Dir     string
	Exec    executil.Executor
	Timeout time.Duration
	Logger  *zap.Logger

	// Stdout and Stderr receive the streamed output of publish and republish.
	Stdout io.Writer
	Stderr io.Writer
}

// PublishRequest describes one `update` invocation.
type PublishRequest struct {
	Channel  string
	Message  string
	Platform model.Platform
}

// Args returns the subcommand arguments.
func (r PublishRequest) Args() []string {
	args := []string{"update", "--channel", r.Channel, "--message", r.Message}
	if r.Platform != "" {
		args = append(args, "--platform", string(r.Platform))
	}
	return args
}

// RepublishRequest describes one `update:republish` invocation.
type RepublishRequest struct {
	GroupID     string
	Destination string
	Platform    model.Platform
	Message     string
}

// Args returns the subcommand arguments.
func (r RepublishRequest) Args() []string {
	platform := r.Platform
	if platform == "" {
		platform = model.PlatformAll
	}
	args := []string{
		"update:republish",
		"--group", r.GroupID,
		"--destination-channel", r.Destination,
		"--platform", string(platform),
	}
	if r.Message != "" {
		args = append(args, "--message", r.Message)
	}
	return args
}

func (c *Client) bin() string {
	if c.Bin == "" {
		return "eas"
	}
	return c.Bin
}

// FormatCommand renders a display string for args, quoting those with spaces.
func (c *Client) FormatCommand(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, c.bin())
	for _, a := range args {
		if strings.Contains(a, " ") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// CheckInstalled verifies the tool can be executed.
func (c *Client) CheckInstalled(ctx context.Context) (string, error) {
	out, err := c.Exec.Run(ctx, executil.Command{
		Name:    c.bin(),
		Args:    []string{"--version"},
		Dir:     c.Dir,
		Timeout: c.Timeout,
	})
	if err != nil {
		return "", fmt.Errorf("%s is not available; install it with `npm install -g eas-cli`: %w", c.bin(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RunJSON runs a read subcommand and parses its output. Empty output is nil.
func (c *Client) RunJSON(ctx context.Context, args ...string) (any, error) {
	full := append(append([]string{}, args...), "--json", "--non-interactive")
	c.logger().Debug("running", zap.String("command", c.FormatCommand(full)))
	out, err := c.Exec.Run(ctx, executil.Command{
		Name:    c.bin(),
		Args:    full,
		Dir:     c.Dir,
		Timeout: c.Timeout,
	})
	if err != nil {
		return nil, err
	}
	v, err := ParseOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.FormatCommand(full), err)
	}
	return v, nil
}

// ParseOutput parses the whole output as JSON, falling back to its last
// non-empty line.
func ParseOutput(out []byte) (any, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v, nil
	}
	lines := strings.Split(trimmed, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		last := strings.TrimSpace(lines[i])
		if last == "" {
			continue
		}
		if err := json.Unmarshal([]byte(last), &v); err != nil {
			return nil, fmt.Errorf("parsing JSON output: %w", err)
		}
		return v, nil
	}
	return nil, nil
}

// ResolveBranchFromChannel returns the branch the channel points at, or the
// channel name when the tool's answer names none.
func (c *Client) ResolveBranchFromChannel(ctx context.Context, channel string) (string, error) {
	v, err := c.RunJSON(ctx, "channel:view", channel)
	if err != nil {
		return "", err
	}
	if branch := FindBranch(v); branch != "" {
		return branch, nil
	}
	c.logger().Debug("no branch mapping found, using channel name", zap.String("channel", channel))
	return channel, nil
}

// ListRecentUpdateGroups lists recent updates on branch folded into groups,
// newest first. A non-positive limit uses DefaultListLimit.
func (c *Client) ListRecentUpdateGroups(ctx context.Context, branch string, limit int) ([]model.UpdateGroupSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	v, err := c.RunJSON(ctx, "update:list", "--branch", branch, "--platform", "all", "--limit", strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	return FoldGroups(UpdateRecords(v)), nil
}

// Publish runs `update`, streaming the tool's output.
func (c *Client) Publish(ctx context.Context, req PublishRequest) error {
	return c.stream(ctx, req.Args())
}

// Republish runs `update:republish`, streaming the tool's output.
func (c *Client) Republish(ctx context.Context, req RepublishRequest) error {
	return c.stream(ctx, req.Args())
}

func (c *Client) stream(ctx context.Context, args []string) error {
	c.logger().Debug("running", zap.String("command", c.FormatCommand(args)))
	stdout := c.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	_, err := c.Exec.Run(ctx, executil.Command{
		Name:    c.bin(),
		Args:    args,
		Dir:     c.Dir,
		Timeout: c.Timeout,
		Stdout:  stdout,
		Stderr:  c.Stderr,
	})
	return err
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
