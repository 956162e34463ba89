// SPDX-License-Identifier: GPL-3.0-or-later

// Package connector samples request traffic of the host's connectors.
package connector

import (
	"context"
	"errors"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
)

const name = "connector"

func init() {
	stats.Register(name, stats.Creator{
		Create: func(deps stats.Deps) stats.Collector {
			engine := "Catalina"
			if deps.Adaptor != nil {
				engine = deps.Adaptor.EngineName()
			}
			return New(deps.Bus, engine)
		},
	})
}

func New(bus mbus.Client, engine string) *Collector {
	return &Collector{
		bus:        bus,
		engine:     engine,
		now:        time.Now,
		connectors: make(map[string]bool),
	}
}

type Collector struct {
	stats.Base

	bus    mbus.Client
	engine string
	now    func() time.Time

	pattern    mbus.ObjectName
	connectors map[string]bool
}

func (c *Collector) Init(context.Context) error {
	if c.bus == nil {
		return errors.New("management bus is not set")
	}
	on, err := mbus.ParseObjectName(c.engine + ":type=GlobalRequestProcessor,name=*")
	if err != nil {
		return err
	}
	c.pattern = on
	return nil
}

func (c *Collector) Collect(ctx context.Context) error {
	return c.collect(ctx)
}
