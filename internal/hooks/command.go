// SPDX-License-Identifier: AGPL-3.0-or-later
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"

	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Commands holds the shell commands configured under `hooks:`.
type Commands struct {
	BeforePublish     string `mapstructure:"beforePublish" json:"beforePublish,omitempty"`
	AfterPublish      string `mapstructure:"afterPublish" json:"afterPublish,omitempty"`
	OnError           string `mapstructure:"onError" json:"onError,omitempty"`
	GenerateVersion   string `mapstructure:"generateVersion" json:"generateVersion,omitempty"`
	GenerateChangelog string `mapstructure:"generateChangelog" json:"generateChangelog,omitempty"`
}

// CommandRunner runs hook commands through an Executor.
type CommandRunner struct {
	Exec executil.Executor
	Dir  string
	// Output receives the stdout of hooks whose result is not parsed.
	Output io.Writer
}

// FromCommands builds a Hooks set where each configured command becomes a hook.
// The hook receives its context as JSON on stdin and OTA_HOOK=<name> in its
// environment.
func FromCommands(cmds Commands, r CommandRunner) Hooks {
	var h Hooks
	if c := strings.TrimSpace(cmds.BeforePublish); c != "" {
		h.BeforePublish = func(ctx context.Context, in BeforePublishContext) (*PublishOverrides, error) {
			out, err := r.run(ctx, BeforePublish, c, in, nil)
			if err != nil {
				return nil, err
			}
			return decodeOverrides(out)
		}
	}
	if c := strings.TrimSpace(cmds.AfterPublish); c != "" {
		h.AfterPublish = func(ctx context.Context, rec model.VersionRecord, in PublishContext) error {
			payload := struct {
				Version model.VersionRecord `json:"version"`
				PublishContext
			}{rec, in}
			_, err := r.run(ctx, AfterPublish, c, payload, r.Output)
			return err
		}
	}
	if c := strings.TrimSpace(cmds.OnError); c != "" {
		h.OnError = func(ctx context.Context, cause error, in ErrorContext) error {
			payload := struct {
				Error string `json:"error"`
				ErrorContext
			}{cause.Error(), in}
			_, err := r.run(ctx, OnError, c, payload, r.Output)
			return err
		}
	}
	if c := strings.TrimSpace(cmds.GenerateVersion); c != "" {
		h.GenerateVersion = func(ctx context.Context, in VersionContext) (*VersionResult, error) {
			out, err := r.run(ctx, GenerateVersion, c, in, nil)
			if err != nil {
				return nil, err
			}
			return decodeVersionResult(out)
		}
	}
	if c := strings.TrimSpace(cmds.GenerateChangelog); c != "" {
		h.GenerateChangelog = func(ctx context.Context, in ChangelogContext) ([]string, error) {
			out, err := r.run(ctx, GenerateChangelog, c, in, nil)
			if err != nil {
				return nil, err
			}
			return decodeChangelog(out)
		}
	}
	return h
}

func (r CommandRunner) run(ctx context.Context, name, command string, payload any, stdout io.Writer) ([]byte, error) {
	in, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Hook: name, Err: fmt.Errorf("encoding context: %w", err)}
	}
	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}
	out, err := r.Exec.Run(ctx, executil.Command{
		Name:   shell,
		Args:   []string{flag, command},
		Dir:    r.Dir,
		Env:    []string{"OTA_HOOK=" + name},
		Stdin:  bytes.NewReader(in),
		Stdout: stdout,
	})
	if err != nil {
		return nil, &Error{Hook: name, Err: err}
	}
	return out, nil
}

func decodeOverrides(out []byte) (*PublishOverrides, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s must print a JSON object or nothing: %v", ErrContract, BeforePublish, err)
	}
	var ov PublishOverrides
	if err := weakDecode(raw, &ov); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContract, BeforePublish, err)
	}
	return &ov, nil
}

func decodeVersionResult(out []byte) (*VersionResult, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s printed nothing", ErrContract, GenerateVersion)
	}
	switch trimmed[0] {
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrContract, GenerateVersion, err)
		}
		var partial model.PartialRecord
		if err := weakDecode(raw, &partial); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrContract, GenerateVersion, err)
		}
		res := &VersionResult{Partial: &partial}
		if partial.Version != nil {
			res.Version = *partial.Version
		}
		return res, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrContract, GenerateVersion, err)
		}
		return &VersionResult{Version: s}, nil
	default:
		return &VersionResult{Version: string(trimmed)}, nil
	}
}

func decodeChangelog(out []byte) ([]string, error) {
	var raw any
	if err := json.Unmarshal(bytes.TrimSpace(out), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s must print a JSON array of strings", ErrContract, GenerateChangelog)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must print a JSON array of strings", ErrContract, GenerateChangelog)
	}
	entries := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s entry %d is not a string", ErrContract, GenerateChangelog, i)
		}
		entries = append(entries, s)
	}
	return entries, nil
}

func weakDecode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
