// SPDX-License-Identifier: GPL-3.0-or-later

// Package app samples per application request rates, summed over each application's servlets.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
)

const name = "app"

func init() {
	stats.Register(name, stats.Creator{
		Disabled: true,
		Create:   func(deps stats.Deps) stats.Collector { return New(deps.Bus, deps.Adaptor) },
	})
}

func New(bus mbus.Client, adaptor container.Adaptor) *Collector {
	return &Collector{
		bus:     bus,
		adaptor: adaptor,
		now:     time.Now,
		apps:    make(map[string]bool),
		prev:    make(map[string]servletTotals),
	}
}

type Collector struct {
	stats.Base

	bus     mbus.Client
	adaptor container.Adaptor
	now     func() time.Time

	apps map[string]bool
	// prev holds the raw counters of each application at its last successful read.
	prev map[string]servletTotals
	// total accumulates per application increments, so it survives applications that are
	// skipped for a tick, deployed or undeployed.
	total servletTotals
}

func (c *Collector) Init(context.Context) error {
	if c.bus == nil {
		return errors.New("management bus is not set")
	}
	if c.adaptor == nil {
		return errors.New("container adaptor is not set")
	}
	return nil
}

func (c *Collector) Collect(ctx context.Context) error {
	return c.collect(ctx)
}
