// SPDX-License-Identifier: AGPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrConfigExists is returned by Init when the config file is already present.
var ErrConfigExists = errors.New("config file already exists")

// Scaffold is the content written by Init. Every value equals its default.
const Scaffold = `# OTA update publishing configuration.
# Every value below is the built-in default; remove what you do not change.

versionFile: ./ota-version.json

# A literal version, or "package.json" to read the version field from it.
baseVersion: 1.0.0

# Tokens: {major} {minor} {patch} {channel} {channelAlias} {build} {timestamp}
versionFormat: "{major}.{minor}.{patch}-{channel}.{build}"

# build | semver | date | custom (custom needs hooks.generateVersion)
versionStrategy: build

changelog:
  # git | manual | file | custom
  source: git
  commitCount: 10
  # short | detailed
  format: short
  includeAuthor: false

eas:
  autoPublish: true
  # Tokens: {version} {channel} {channelAlias} {build} {buildNumber} {firstChange} {date} {changeCount}
  messageFormat: "v{version}: {firstChange}"

channels:
  - development
  - preview
  - production

defaultChannel: development

# Hooks are shell commands. Each receives its context as JSON on stdin.
# hooks:
#   beforePublish: ./scripts/before-publish.sh
#   afterPublish: ./scripts/notify.sh
`

// Init writes Scaffold to dir and returns the written path.
func Init(fs afero.Fs, dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if exists {
		return path, fmt.Errorf("%s: %w", path, ErrConfigExists)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(Scaffold), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
