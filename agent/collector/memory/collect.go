// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
)

const poolPrefix = "memory.pool."

func (c *Collector) collect(ctx context.Context) error {
	now := c.now()

	heap, err := c.readUsed(ctx, memoryObject, "HeapMemoryUsage")
	if err != nil {
		return err
	}
	nonHeap, err := c.readUsed(ctx, memoryObject, "NonHeapMemoryUsage")
	if err != nil {
		return err
	}
	if err := errors.Join(
		c.BuildAbsolute("memory.heap", float64(heap), now),
		c.BuildAbsolute("memory.nonheap", float64(nonHeap), now),
	); err != nil {
		return err
	}

	return c.collectPools(ctx, now)
}

func (c *Collector) collectPools(ctx context.Context, now time.Time) error {
	names, err := c.bus.QueryNames(ctx, poolPattern)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var errs []error
	for _, on := range names {
		pool := on.Key("name")
		used, err := c.readUsed(ctx, on, "Usage")
		if err != nil {
			if mbus.IsUnavailable(err) {
				return err
			}
			c.Debugf("memory pool '%s': %v", pool, err)
			continue
		}

		seen[pool] = true
		if !c.seenPools[pool] {
			c.seenPools[pool] = true
			c.Debugf("new memory pool '%s'", pool)
		}
		errs = append(errs, c.BuildAbsolute(poolPrefix+pool, float64(used), now))
	}

	for pool := range c.seenPools {
		if !seen[pool] {
			delete(c.seenPools, pool)
			c.Debugf("memory pool '%s' is gone", pool)
		}
	}
	return errors.Join(errs...)
}

// readUsed reads the "used" member of a memory usage attribute.
func (c *Collector) readUsed(ctx context.Context, on mbus.ObjectName, attr string) (int64, error) {
	v, err := c.bus.GetAttribute(ctx, on, attr)
	if err != nil {
		return 0, err
	}
	used, err := v.Get("used").Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: %v", attr, err)
	}
	return used, nil
}
