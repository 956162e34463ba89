// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/filelock"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/logger"
)

type testCollector struct {
	stats.Base
	once      sync.Once
	collected chan struct{}
}

func (c *testCollector) Init(context.Context) error { return nil }

func (c *testCollector) Collect(context.Context) error {
	defer c.once.Do(func() { close(c.collected) })
	return c.BuildAbsolute("test.value", 42, time.Now())
}

func newTestAgent(connect func(context.Context, Config, *logger.Logger) (*Session, error)) (*Agent, *testCollector, *bytes.Buffer) {
	c := &testCollector{collected: make(chan struct{})}
	reg := stats.Registry{}
	reg.Register("test", stats.Creator{Create: func(stats.Deps) stats.Collector { return c }})

	var dump bytes.Buffer
	a := New(Options{Registry: reg, Dump: &dump})
	a.Logger = logger.Nop()
	a.connect = connect
	a.retryEvery = 10 * time.Millisecond
	a.exit = func(code int) { panic(fmt.Sprintf("unexpected exit %d", code)) }
	return a, c, &dump
}

func TestAgent_run(t *testing.T) {
	a, c, dump := newTestAgent(func(ctx context.Context, cfg Config, log *logger.Logger) (*Session, error) {
		return Bind(ctx, cfg, newTomcatBus("Apache Tomcat/9.0.85"), log)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); a.run(ctx) }()

	select {
	case <-c.collected:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("instance did not stop")
	}

	var snap []SeriesSummary
	require.NoError(t, yaml.Unmarshal(dump.Bytes(), &snap))
	require.Len(t, snap, 1)
	assert.Equal(t, "test.value", snap[0].Key)
	assert.Equal(t, 42.0, snap[0].Last)
}

func TestAgent_runTargetLocked(t *testing.T) {
	var calls atomic.Int64
	a, _, dump := newTestAgent(func(context.Context, Config, *logger.Logger) (*Session, error) {
		calls.Add(1)
		return &Session{}, nil
	})

	lockDir := t.TempDir()
	a.ConfigPath = writeConfig(t, "lock_dir: "+lockDir+"\n")

	cfg, err := LoadConfig(a.ConfigPath)
	require.NoError(t, err)
	release, err := filelock.New(lockDir).Acquire(lockTarget(cfg))
	require.NoError(t, err)
	defer release()

	done := make(chan struct{})
	go func() { defer close(done); a.run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("instance did not give up on a locked target")
	}
	assert.Zero(t, calls.Load())
	assert.Zero(t, dump.Len())
}

func TestAgent_runExitsOnUnknownBanner(t *testing.T) {
	tests := map[string]struct {
		connectErr error
		wantExit   bool
	}{
		"no variant matches the banner": {
			connectErr: fmt.Errorf("attach: %w", &container.ConfigurationError{Banner: "Unknown Server/1.0"}),
			wantExit:   true,
		},
		"other binding error": {
			connectErr: errors.New("resolver: jboss is not running"),
			wantExit:   false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a, _, _ := newTestAgent(func(context.Context, Config, *logger.Logger) (*Session, error) {
				return nil, test.connectErr
			})
			var codes []int
			a.exit = func(code int) { codes = append(codes, code) }

			a.run(context.Background())

			if test.wantExit {
				assert.Equal(t, []int{1}, codes)
			} else {
				assert.Empty(t, codes)
			}
		})
	}
}

func TestAgent_connectRetry(t *testing.T) {
	tests := map[string]struct {
		errs      []error
		wantErr   bool
		wantCalls int64
	}{
		"connects first time": {
			wantCalls: 1,
		},
		"retries while unavailable": {
			errs: []error{
				&mbus.Error{Op: "version", Err: mbus.ErrUnavailable},
				&mbus.Error{Op: "version", Err: mbus.ErrUnavailable},
			},
			wantCalls: 3,
		},
		"gives up on other errors": {
			errs:      []error{errors.New("no variant")},
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int64
			a, _, _ := newTestAgent(func(context.Context, Config, *logger.Logger) (*Session, error) {
				n := calls.Add(1)
				if int(n) <= len(test.errs) {
					return nil, test.errs[n-1]
				}
				return &Session{}, nil
			})

			sess, err := a.connectRetry(context.Background(), DefaultConfig())

			if test.wantErr {
				assert.Error(t, err)
				assert.Nil(t, sess)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, sess)
			}
			assert.Equal(t, test.wantCalls, calls.Load())
		})
	}
}

func TestAgent_connectRetryCancelled(t *testing.T) {
	a, _, _ := newTestAgent(func(context.Context, Config, *logger.Logger) (*Session, error) {
		return nil, &mbus.Error{Op: "version", Err: mbus.ErrUnavailable}
	})
	a.retryEvery = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.connectRetry(ctx, DefaultConfig())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSnapshot(t *testing.T) {
	store := stats.NewStore(10)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []float64{3, 1, 7, 5} {
		require.NoError(t, store.Append("b.series", stats.Sample{Timestamp: t0.Add(time.Duration(i) * time.Second), Value: v}))
	}
	require.NoError(t, store.Append("a.series", stats.Sample{Timestamp: t0, Value: 2}))

	assert.Equal(t, []SeriesSummary{
		{Key: "a.series", Samples: 1, Last: 2, At: t0, Min: 2, Max: 2},
		{Key: "b.series", Samples: 4, Last: 5, At: t0.Add(3 * time.Second), Min: 1, Max: 7},
	}, Snapshot(store))
}
