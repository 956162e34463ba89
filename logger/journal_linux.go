// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package logger

import (
	"github.com/coreos/go-systemd/v22/journal"
)

// isStderrConnectedToJournal reports whether the probe runs as a systemd unit with
// stderr wired to journald. The handler then leaves the timestamp to journald.
func isStderrConnectedToJournal() bool {
	if isTerm {
		return false
	}
	ok, err := journal.StderrIsJournalStream()
	return ok && err == nil
}
