// SPDX-License-Identifier: GPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
)

type servletTotals struct {
	requests int64
	errors   int64
	procTime int64
}

func (c *Collector) collect(ctx context.Context) error {
	apps, err := c.adaptor.FindApplications(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	seen := make(map[string]bool)
	var errs []error

	for _, app := range apps {
		path := app.DisplayPath()
		seen[path] = true

		st, err := c.readServlets(ctx, app)
		if err != nil {
			if mbus.IsUnavailable(err) {
				return err
			}
			c.Warningf("application '%s': %v", path, err)
			continue
		}

		if !c.apps[path] {
			c.apps[path] = true
			c.Debugf("new application '%s'", path)
		}

		if prev, ok := c.prev[path]; ok {
			c.total.requests += increment(prev.requests, st.requests)
			c.total.errors += increment(prev.errors, st.errors)
		}
		c.prev[path] = st

		errs = append(errs,
			c.BuildRate("app.requests."+path, float64(st.requests), now),
			c.BuildRate("app.errors."+path, float64(st.errors), now),
			c.BuildRate("app.proc_time."+path, float64(st.procTime), now),
		)
	}

	for path := range c.apps {
		if !seen[path] {
			delete(c.apps, path)
			delete(c.prev, path)
			c.Debugf("application '%s' is gone", path)
			c.Forget("app.requests." + path)
			c.Forget("app.errors." + path)
			c.Forget("app.proc_time." + path)
		}
	}

	errs = append(errs,
		c.BuildRate("total.requests", float64(c.total.requests), now),
		c.BuildRate("total.errors", float64(c.total.errors), now),
	)
	return errors.Join(errs...)
}

// increment is the growth of a counter between two reads. A counter that went backwards
// was reset by a redeploy and contributes nothing, like a reset in BuildRate.
func increment(prev, cur int64) int64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func (c *Collector) readServlets(ctx context.Context, app *container.Application) (servletTotals, error) {
	var st servletTotals

	module := app.ObjectName.Key("name")
	if module == "" {
		return st, errors.New("no web module name")
	}
	pattern, err := mbus.ParseObjectName(c.adaptor.EngineName() + ":j2eeType=Servlet,WebModule=" + mbus.QuoteIfNeeded(module) + ",*")
	if err != nil {
		return st, err
	}
	names, err := c.bus.QueryNames(ctx, pattern)
	if err != nil {
		return st, err
	}

	for _, on := range names {
		for _, a := range []struct {
			attr string
			dst  *int64
		}{
			{"requestCount", &st.requests},
			{"errorCount", &st.errors},
			{"processingTime", &st.procTime},
		} {
			v, err := mbus.GetInt64(ctx, c.bus, on, a.attr)
			if err != nil {
				return servletTotals{}, fmt.Errorf("servlet '%s': %w", on.Key("name"), err)
			}
			*a.dst += v
		}
	}
	return st, nil
}
