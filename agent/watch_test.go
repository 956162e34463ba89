// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/logger"
)

func TestConfigWatcher_check(t *testing.T) {
	tests := map[string]struct {
		rewrite     string
		wantChanged bool
	}{
		"same content": {
			rewrite:     "stats:\n  interval: 15s\n",
			wantChanged: false,
		},
		"same config, different text": {
			rewrite:     "# comment\nstats:\n  interval: 15s\nresolver: auto\n",
			wantChanged: false,
		},
		"interval changed": {
			rewrite:     "stats:\n  interval: 20s\n",
			wantChanged: true,
		},
		"invalid config": {
			rewrite:     "resolver: weblogic\n",
			wantChanged: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, "stats:\n  interval: 15s\n")
			w := newConfigWatcher(path, logger.Nop())

			require.NoError(t, os.WriteFile(path, []byte(test.rewrite), 0o600))
			w.check()

			select {
			case <-w.changed:
				assert.True(t, test.wantChanged, "unexpected change signal")
			default:
				assert.False(t, test.wantChanged, "missing change signal")
			}
		})
	}
}

func TestConfigWatcher_run(t *testing.T) {
	path := writeConfig(t, "stats:\n  interval: 15s\n")
	w := newConfigWatcher(path, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	var n int
	require.Eventually(t, func() bool {
		n++
		content := fmt.Sprintf("stats:\n  interval: %ds\n", 15+n)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return false
		}
		select {
		case <-w.changed:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
