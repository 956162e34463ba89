// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/mbus/mbustest"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/logger"
)

const (
	edenPool   = "java.lang:type=MemoryPool,name=G1 Eden Space"
	metaPool   = "java.lang:type=MemoryPool,name=Metaspace"
	brokenPool = "java.lang:type=MemoryPool,name=Broken"
)

func usage(used int64) map[string]any {
	return map[string]any{"committed": used * 2, "init": 0, "max": -1, "used": used}
}

func newTestBus() *mbustest.Bus {
	bus := mbustest.New()
	bus.Add("java.lang:type=Memory", map[string]any{
		"HeapMemoryUsage":    usage(1000),
		"NonHeapMemoryUsage": usage(300),
	})
	bus.Add(edenPool, map[string]any{"Usage": usage(600)})
	bus.Add(metaPool, map[string]any{"Usage": usage(200)})
	bus.Add(brokenPool, map[string]any{"Usage": "n/a"})
	return bus
}

func newTestCollector(bus mbus.Client, ts *time.Time) *Collector {
	c := New(bus)
	c.Attach(stats.NewStore(10), logger.Nop())
	c.now = func() time.Time { return *ts }
	return c
}

func lastValues(c *Collector) map[string]float64 {
	out := make(map[string]float64)
	for _, key := range c.Store().Keys() {
		s, _ := c.Store().Last(key)
		out[key] = s.Value
	}
	return out
}

func TestCollector_Init(t *testing.T) {
	tests := map[string]struct {
		bus     mbus.Client
		wantErr bool
	}{
		"success":          {bus: newTestBus()},
		"no memory object": {bus: mbustest.New(), wantErr: true},
		"no bus":           {wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := New(test.bus).Init(context.Background())
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCollector_Collect(t *testing.T) {
	tests := map[string]struct {
		prepare func() *mbustest.Bus
		want    map[string]float64
		wantErr bool
	}{
		"success": {
			prepare: newTestBus,
			want: map[string]float64{
				"memory.heap":               1000,
				"memory.nonheap":            300,
				"memory.pool.G1 Eden Space": 600,
				"memory.pool.Metaspace":     200,
			},
		},
		"no pools": {
			prepare: func() *mbustest.Bus {
				bus := newTestBus()
				bus.Remove(edenPool)
				bus.Remove(metaPool)
				bus.Remove(brokenPool)
				return bus
			},
			want: map[string]float64{
				"memory.heap":    1000,
				"memory.nonheap": 300,
			},
		},
		"pool search fails": {
			prepare: func() *mbustest.Bus {
				bus := newTestBus()
				bus.FailOn("search", "java.lang:type=MemoryPool,name=*", "", mbustest.Err(mbus.ErrUnavailable, "gone"))
				return bus
			},
			wantErr: true,
		},
		"bus unavailable": {
			prepare: func() *mbustest.Bus {
				bus := newTestBus()
				bus.SetUnavailable(true)
				return bus
			},
			wantErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			c := newTestCollector(test.prepare(), &ts)

			err := c.Collect(context.Background())

			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, lastValues(c))
		})
	}
}

func TestCollector_PoolsComeAndGo(t *testing.T) {
	bus := newTestBus()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCollector(bus, &ts)
	ctx := context.Background()

	require.NoError(t, c.Collect(ctx))
	assert.Equal(t, map[string]bool{"G1 Eden Space": true, "Metaspace": true}, c.seenPools)

	bus.Remove(edenPool)
	bus.Object(metaPool).Set("Usage", usage(250))
	ts = ts.Add(time.Second)
	require.NoError(t, c.Collect(ctx))

	assert.Equal(t, map[string]bool{"Metaspace": true}, c.seenPools)
	assert.Len(t, c.Store().Series("memory.pool.G1 Eden Space"), 1)
	assert.Len(t, c.Store().Series("memory.pool.Metaspace"), 2)
	last, ok := c.Store().Last("memory.pool.Metaspace")
	require.True(t, ok)
	assert.Equal(t, 250.0, last.Value)
}
