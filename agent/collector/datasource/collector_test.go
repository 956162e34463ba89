// SPDX-License-Identifier: GPL-3.0-or-later

package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/agent/mbus/mbustest"
	"github.com/netdata/hostprobe/agent/resource"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/logger"
)

const (
	defaultDS = "jboss.jca:service=ManagedConnectionPool,name=DefaultDS"
	ordersDS  = "jboss.jca:service=ManagedConnectionPool,name=OrdersDS"
)

func newTestBus() *mbustest.Bus {
	bus := mbustest.New()
	bus.Add(defaultDS, map[string]any{"MaxSize": 20, "ConnectionCount": 5, "InUseConnectionCount": 2})
	bus.Add(ordersDS, map[string]any{"MaxSize": 10, "ConnectionCount": 3, "InUseConnectionCount": 3})
	return bus
}

func newTestCollector(t *testing.T, bus *mbustest.Bus, ts *time.Time) *Collector {
	r, err := resource.New(context.Background(), resource.KindJBoss, resource.DefaultConfig(), bus, nil, logger.Nop())
	require.NoError(t, err)

	c := New(r)
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
	assert.Error(t, New(nil).Init(context.Background()))

	ts := time.Now()
	assert.NoError(t, newTestCollector(t, newTestBus(), &ts).Init(context.Background()))
}

func TestCollector_Collect(t *testing.T) {
	tests := map[string]struct {
		prepare func() *mbustest.Bus
		want    map[string]float64
	}{
		"success": {
			prepare: newTestBus,
			want: map[string]float64{
				"ds.est.DefaultDS":  5,
				"ds.busy.DefaultDS": 2,
				"ds.est.OrdersDS":   3,
				"ds.busy.OrdersDS":  3,
			},
		},
		"unreadable pool is skipped": {
			prepare: func() *mbustest.Bus {
				bus := newTestBus()
				bus.Object(ordersDS).Set("ConnectionCount", "many")
				return bus
			},
			want: map[string]float64{
				"ds.est.DefaultDS":  5,
				"ds.busy.DefaultDS": 2,
			},
		},
		"bus unavailable": {
			prepare: func() *mbustest.Bus {
				bus := newTestBus()
				bus.SetUnavailable(true)
				return bus
			},
			want: map[string]float64{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			c := newTestCollector(t, test.prepare(), &ts)

			require.NoError(t, c.Collect(context.Background()))
			assert.Equal(t, test.want, lastValues(c))
		})
	}
}

func TestCollector_PoolsComeAndGo(t *testing.T) {
	bus := newTestBus()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCollector(t, bus, &ts)
	ctx := context.Background()

	require.NoError(t, c.Collect(ctx))
	assert.Equal(t, map[string]bool{"DefaultDS": true, "OrdersDS": true}, c.seen)

	bus.Remove(ordersDS)
	bus.Object(defaultDS).Set("InUseConnectionCount", 4)
	ts = ts.Add(time.Second)
	require.NoError(t, c.Collect(ctx))

	assert.Equal(t, map[string]bool{"DefaultDS": true}, c.seen)
	assert.Len(t, c.Store().Series("ds.busy.DefaultDS"), 2)
	last, _ := c.Store().Last("ds.busy.DefaultDS")
	assert.Equal(t, 4.0, last.Value)
}
