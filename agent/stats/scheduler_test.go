// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/logger"
	"github.com/netdata/hostprobe/pkg/confopt"
)

type testCollectors map[string]*mockCollector

func (tc testCollectors) registry(disabled ...string) Registry {
	reg := Registry{}
	for name, c := range tc {
		reg.Register(name, Creator{
			Disabled: slices.Contains(disabled, name),
			Create:   func(Deps) Collector { return c },
		})
	}
	return reg
}

func jobNames(s *Scheduler) []string {
	var names []string
	for _, j := range s.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

func TestNewScheduler(t *testing.T) {
	tests := map[string]struct {
		enabled  map[string]confopt.AutoBool
		disabled []string
		want     []string
	}{
		"defaults": {
			want: []string{"ok", "panicky"},
		},
		"disabled by default": {
			disabled: []string{"panicky"},
			want:     []string{"ok"},
		},
		"enabled explicitly": {
			enabled:  map[string]confopt.AutoBool{"panicky": confopt.AutoBoolEnabled},
			disabled: []string{"panicky"},
			want:     []string{"ok", "panicky"},
		},
		"auto keeps the default": {
			enabled:  map[string]confopt.AutoBool{"ok": confopt.AutoBoolAuto, "panicky": confopt.AutoBoolAuto},
			disabled: []string{"panicky"},
			want:     []string{"ok"},
		},
		"disabled explicitly": {
			enabled: map[string]confopt.AutoBool{"ok": confopt.AutoBoolDisabled},
			want:    []string{"panicky"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tc := testCollectors{
				"ok":      {},
				"panicky": {collect: func(context.Context, *Base) error { panic("boom") }},
				"broken":  {initErr: errors.New("no such mbean")},
			}
			cfg := DefaultConfig()
			cfg.Collectors = test.enabled

			s := NewScheduler(context.Background(), cfg, tc.registry(test.disabled...), Deps{}, logger.Nop())

			assert.Equal(t, test.want, jobNames(s))
		})
	}
}

func TestNewScheduler_Timing(t *testing.T) {
	tests := map[string]struct {
		interval    time.Duration
		timeout     time.Duration
		wantEvery   int
		wantTimeout time.Duration
	}{
		"defaults": {
			interval:    30 * time.Second,
			timeout:     10 * time.Second,
			wantEvery:   30,
			wantTimeout: 10 * time.Second,
		},
		"sub-second interval": {
			interval:    100 * time.Millisecond,
			timeout:     10 * time.Second,
			wantEvery:   1,
			wantTimeout: time.Second,
		},
		"timeout above the interval": {
			interval:    5 * time.Second,
			timeout:     time.Minute,
			wantEvery:   5,
			wantTimeout: 5 * time.Second,
		},
		"no timeout": {
			interval:    5 * time.Second,
			wantEvery:   5,
			wantTimeout: 5 * time.Second,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{
				Interval: confopt.Duration(test.interval),
				Timeout:  confopt.Duration(test.timeout),
			}
			tc := testCollectors{"ok": {}}

			s := NewScheduler(context.Background(), cfg, tc.registry(), Deps{}, logger.Nop())

			require.Len(t, s.Jobs(), 1)
			assert.Equal(t, test.wantEvery, s.Jobs()[0].updateEvery)
			assert.Equal(t, test.wantTimeout, s.Jobs()[0].timeout)
		})
	}
}

func TestScheduler_Run(t *testing.T) {
	now := time.Now()
	tc := testCollectors{
		"ok": {collect: func(_ context.Context, b *Base) error {
			now = now.Add(time.Second)
			return b.BuildAbsolute("ok.value", 1, now)
		}},
		"failing": {collect: func(context.Context, *Base) error { return errors.New("bus down") }},
		"panicky": {collect: func(context.Context, *Base) error { panic("boom") }},
	}
	cfg := DefaultConfig()
	cfg.Interval = confopt.Duration(time.Second)

	s := NewScheduler(context.Background(), cfg, tc.registry(), Deps{}, logger.Nop())
	s.tickEvery = 5 * time.Millisecond
	require.Len(t, s.Jobs(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return tc["ok"].calls.Load() >= 3 && tc["panicky"].calls.Load() >= 1 && tc["failing"].calls.Load() >= 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.GreaterOrEqual(t, len(s.Store().Series("ok.value")), 3)
	for _, j := range s.Jobs() {
		switch j.Name() {
		case "ok":
			assert.NoError(t, j.LastError())
		case "panicky":
			assert.True(t, j.Panicked())
			assert.Error(t, j.LastError())
		case "failing":
			assert.Error(t, j.LastError())
		}
	}
}

func TestScheduler_RunWithoutJobs(t *testing.T) {
	s := NewScheduler(context.Background(), DefaultConfig(), Registry{}, Deps{}, logger.Nop())

	done := make(chan struct{})
	go func() { defer close(done); s.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestScheduler_CollectOnce(t *testing.T) {
	tc := testCollectors{
		"ok":      {collect: func(_ context.Context, b *Base) error { return b.BuildAbsolute("ok.value", 1, time.Now()) }},
		"panicky": {collect: func(context.Context, *Base) error { panic("boom") }},
	}
	s := NewScheduler(context.Background(), DefaultConfig(), tc.registry(), Deps{}, logger.Nop())

	s.CollectOnce()
	s.CollectOnce()

	assert.Equal(t, int64(2), tc["ok"].calls.Load())
	assert.Equal(t, int64(2), tc["panicky"].calls.Load())
	assert.Len(t, s.Store().Series("ok.value"), 2)
}
