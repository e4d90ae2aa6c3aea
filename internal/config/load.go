// SPDX-License-Identifier: AGPL-3.0-or-later
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/bartekus/ota-publish/internal/executil"
	"github.com/bartekus/ota-publish/internal/hooks"
)

// FileName is the name written by Init.
const FileName = "ota-updates.config.yaml"

// Environment variables that override the external tool settings.
const (
	EnvEASBin     = "OTA_EAS_BIN"
	EnvEASTimeout = "OTA_EAS_TIMEOUT"
)

// ErrUnsupportedConfig is returned when only a script config file is found.
var ErrUnsupportedConfig = errors.New("script config files are not supported; use YAML or JSON")

// searchPlaces are checked in order in every directory from the start upward.
var searchPlaces = []string{
	FileName,
	"ota-updates.config.yml",
	"ota-updates.config.json",
	"ota-updates.config.js",
	"ota-updates.config.mjs",
	"ota-updates.config.cjs",
	".ota-updatesrc",
	".ota-updatesrc.json",
	".ota-updatesrc.yaml",
	".ota-updatesrc.yml",
	".ota-updatesrc.js",
}

func isScript(name string) bool {
	switch filepath.Ext(name) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

// LoadOptions carries the collaborators of Load.
type LoadOptions struct {
	FS afero.Fs
	// Hooks are Go hooks; they take precedence over configured commands.
	Hooks hooks.Hooks
	// Exec runs hook commands. Defaults to executil.OS.
	Exec executil.Executor
	// HookOutput receives the stdout of afterPublish and onError commands.
	HookOutput io.Writer
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Find returns the first config file found from start upward, or "" if none.
func Find(fs afero.Fs, start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	for {
		for _, name := range searchPlaces {
			p := filepath.Join(dir, name)
			info, err := fs.Stat(p)
			if err != nil || info.IsDir() {
				continue
			}
			if isScript(name) {
				return "", fmt.Errorf("%s: %w", p, ErrUnsupportedConfig)
			}
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load discovers, decodes, merges and validates the configuration for start.
func Load(start string, opts LoadOptions) (*Config, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Exec == nil {
		opts.Exec = executil.OS{}
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	path, err := Find(opts.FS, start)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	var problems []error
	if path == "" {
		abs, err := filepath.Abs(start)
		if err != nil {
			return nil, err
		}
		cfg.Dir = abs
	} else {
		data, err := afero.ReadFile(opts.FS, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		doc, err := parseDocument(path, data)
		if err != nil {
			return nil, err
		}
		frag, decodeErrs := decodeFragment(doc)
		problems = append(problems, decodeErrs...)
		merged, mergeErrs := merge(cfg, frag)
		problems = append(problems, mergeErrs...)
		cfg = merged
		cfg.Path = path
		cfg.Dir = filepath.Dir(path)
	}

	envErrs := applyEnv(&cfg, opts)
	problems = append(problems, envErrs...)

	cfg.Hooks = hooks.Merge(opts.Hooks, hooks.FromCommands(cfg.HookCommands, hooks.CommandRunner{
		Exec:   opts.Exec,
		Dir:    cfg.Dir,
		Output: opts.HookOutput,
	}))

	if err := validate(&cfg, problems); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides the tool settings from the process environment, then
// from a .env file in the project directory.
func applyEnv(cfg *Config, opts LoadOptions) []error {
	dotenv := map[string]string{}
	if f, err := opts.FS.Open(filepath.Join(cfg.Dir, ".env")); err == nil {
		data, readErr := io.ReadAll(f)
		_ = f.Close()
		if readErr == nil {
			if parsed, err := godotenv.Parse(bytes.NewReader(data)); err == nil {
				dotenv = parsed
			}
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	var errs []error
	if v, ok := lookup(EnvEASBin); ok {
		cfg.EAS.Bin = v
	}
	if v, ok := lookup(EnvEASTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvEASTimeout, err))
		} else {
			cfg.EAS.Timeout = d
		}
	}
	return errs
}
