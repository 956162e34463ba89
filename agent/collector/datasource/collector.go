// SPDX-License-Identifier: GPL-3.0-or-later

// Package datasource samples connection usage of the host's global connection pools.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netdata/hostprobe/agent/resource"
	"github.com/netdata/hostprobe/agent/stats"
)

const name = "datasource"

func init() {
	stats.Register(name, stats.Creator{
		Create: func(deps stats.Deps) stats.Collector { return New(deps.Resolver) },
	})
}

func New(resolver resource.Resolver) *Collector {
	return &Collector{resolver: resolver, now: time.Now, seen: make(map[string]bool)}
}

type Collector struct {
	stats.Base

	resolver resource.Resolver
	now      func() time.Time

	seen map[string]bool
}

func (c *Collector) Init(context.Context) error {
	if c.resolver == nil {
		return errors.New("resource resolver is not set")
	}
	if !c.resolver.SupportsGlobalResources() {
		return fmt.Errorf("resolver '%s' does not support global resources", c.resolver.Name())
	}
	return nil
}

func (c *Collector) Collect(ctx context.Context) error {
	resources, err := c.resolver.ListGlobalResources(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	seen := make(map[string]bool)
	var errs []error

	for _, res := range resources {
		if res.Pool == nil {
			continue
		}
		seen[res.Name] = true
		if !c.seen[res.Name] {
			c.seen[res.Name] = true
			c.Debugf("new data source '%s'", res.Name)
		}
		errs = append(errs,
			c.BuildAbsolute("ds.est."+res.Name, float64(res.Pool.EstablishedConnections), now),
			c.BuildAbsolute("ds.busy."+res.Name, float64(res.Pool.BusyConnections), now),
		)
	}

	for ds := range c.seen {
		if !seen[ds] {
			delete(c.seen, ds)
			c.Debugf("data source '%s' is gone", ds)
		}
	}
	return errors.Join(errs...)
}
