// SPDX-License-Identifier: AGPL-3.0-or-later
package logging

import "github.com/mattn/go-isatty"

func isattyFd(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
