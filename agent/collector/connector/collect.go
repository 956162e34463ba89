// SPDX-License-Identifier: GPL-3.0-or-later

package connector

import (
	"context"
	"errors"

	"github.com/netdata/hostprobe/agent/mbus"
)

// request processor counters and the series suffix they are recorded under
var counters = []struct {
	attr   string
	suffix string
}{
	{"requestCount", "requests"},
	{"errorCount", "errors"},
	{"bytesSent", "sent"},
	{"bytesReceived", "received"},
	{"processingTime", "proc_time"},
}

func (c *Collector) collect(ctx context.Context) error {
	names, err := c.bus.QueryNames(ctx, c.pattern)
	if err != nil {
		return err
	}

	now := c.now()
	seen := make(map[string]bool)
	var errs []error

	for _, on := range names {
		conn := on.Key("name")
		values, err := c.readCounters(ctx, on)
		if err != nil {
			if mbus.IsUnavailable(err) {
				return err
			}
			c.Warningf("connector '%s': %v", conn, err)
			continue
		}

		seen[conn] = true
		if !c.connectors[conn] {
			c.connectors[conn] = true
			c.Debugf("new connector '%s'", conn)
		}
		for i, cnt := range counters {
			errs = append(errs, c.BuildRate(key(conn, cnt.suffix), float64(values[i]), now))
		}
	}

	for conn := range c.connectors {
		if !seen[conn] {
			delete(c.connectors, conn)
			c.Debugf("connector '%s' is gone", conn)
			for _, cnt := range counters {
				c.Forget(key(conn, cnt.suffix))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Collector) readCounters(ctx context.Context, on mbus.ObjectName) ([]int64, error) {
	values := make([]int64, len(counters))
	for i, cnt := range counters {
		v, err := mbus.GetInt64(ctx, c.bus, on, cnt.attr)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func key(conn, suffix string) string {
	return "stat." + conn + "." + suffix
}
