// SPDX-License-Identifier: GPL-3.0-or-later

package executable

import (
	"os"
	"path/filepath"
	"strings"
)

var (
	Name      = "hostprobe"
	Directory = ""
)

func init() {
	path, err := os.Executable()
	if err != nil || path == "" {
		return
	}

	_, Name = filepath.Split(path)
	Name = strings.TrimSuffix(Name, ".exe")

	if strings.HasSuffix(Name, ".test") {
		Name = "test"
	}

	if dir := filepath.Dir(path); dir != "" {
		Directory = dir
	}
}
