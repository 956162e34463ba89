// SPDX-License-Identifier: GPL-3.0-or-later

// Package runtimestats samples operating system figures of the host process.
package runtimestats

import (
	"context"
	"errors"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
)

const name = "runtime"

var osObject = mbus.MustParseObjectName("java.lang:type=OperatingSystem")

func init() {
	stats.Register(name, stats.Creator{
		Create: func(deps stats.Deps) stats.Collector { return New(deps.Bus) },
	})
}

func New(bus mbus.Client) *Collector {
	return &Collector{bus: bus, now: time.Now}
}

type Collector struct {
	stats.Base

	bus mbus.Client
	now func() time.Time

	noFDCounts bool
}

func (c *Collector) Init(ctx context.Context) error {
	if c.bus == nil {
		return errors.New("management bus is not set")
	}
	if _, err := c.bus.GetAttribute(ctx, osObject, "AvailableProcessors"); err != nil {
		return err
	}
	return nil
}

func (c *Collector) Collect(ctx context.Context) error {
	return c.collect(ctx)
}
