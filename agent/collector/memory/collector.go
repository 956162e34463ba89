// SPDX-License-Identifier: GPL-3.0-or-later

// Package memory samples heap, non-heap and per memory pool usage of the host JVM.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
)

const name = "memory"

var (
	memoryObject = mbus.MustParseObjectName("java.lang:type=Memory")
	poolPattern  = mbus.MustParseObjectName("java.lang:type=MemoryPool,name=*")
)

func init() {
	stats.Register(name, stats.Creator{
		Create: func(deps stats.Deps) stats.Collector { return New(deps.Bus) },
	})
}

func New(bus mbus.Client) *Collector {
	return &Collector{
		bus:       bus,
		now:       time.Now,
		seenPools: make(map[string]bool),
	}
}

type Collector struct {
	stats.Base

	bus mbus.Client
	now func() time.Time

	seenPools map[string]bool
}

func (c *Collector) Init(ctx context.Context) error {
	if c.bus == nil {
		return errors.New("management bus is not set")
	}
	_, err := c.bus.GetAttribute(ctx, memoryObject, "HeapMemoryUsage")
	return err
}

func (c *Collector) Collect(ctx context.Context) error {
	return c.collect(ctx)
}
