// SPDX-License-Identifier: GPL-3.0-or-later

package buildinfo

// Version stores the agent's version number. It's set during the build process using build flags.
var Version = "v0.0.0"

// ConfigDir is the default configuration directory. It's set during the build process using build flags.
var ConfigDir = "/etc/hostprobe"
