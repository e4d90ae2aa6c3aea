// SPDX-License-Identifier: AGPL-3.0-or-later
package pipeline

import (
	"errors"

	"github.com/bartekus/ota-publish/internal/config"
)

// Init writes the config scaffold into dir and prints next steps.
func Init(deps Deps, dir string) (string, error) {
	deps.defaults()
	path, err := config.Init(deps.FS, dir)
	if errors.Is(err, config.ErrConfigExists) {
		return path, err
	}
	if err != nil {
		return "", err
	}
	p := &Pipeline{cfg: &config.Config{}, deps: deps}
	p.printf("%s\n", okStyle.Sprintf("Created %s", path))
	p.printf("\nNext steps:\n")
	p.printf("  1. Review channels and versionFormat in %s\n", config.FileName)
	p.printf("  2. Run %s to preview the first update\n", channelStyle.Sprint("ota-publish --dry-run"))
	p.printf("  3. Run %s to publish it\n", channelStyle.Sprint("ota-publish -c development"))
	return path, nil
}
