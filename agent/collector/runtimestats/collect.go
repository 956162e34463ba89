// SPDX-License-Identifier: GPL-3.0-or-later

package runtimestats

import (
	"context"
	"errors"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
)

func (c *Collector) collect(ctx context.Context) error {
	read := func(attrs ...string) (int64, error) {
		return mbus.GetFirstInt64(ctx, c.bus, osObject, attrs...)
	}

	committed, err := read("CommittedVirtualMemorySize")
	if err != nil {
		return err
	}
	physTotal, err := read("TotalMemorySize", "TotalPhysicalMemorySize")
	if err != nil {
		return err
	}
	physFree, err := read("FreeMemorySize", "FreePhysicalMemorySize")
	if err != nil {
		return err
	}
	swapTotal, err := read("TotalSwapSpaceSize")
	if err != nil {
		return err
	}
	swapFree, err := read("FreeSwapSpaceSize")
	if err != nil {
		return err
	}
	cpuTimeNs, err := read("ProcessCpuTime")
	if err != nil {
		return err
	}
	cpus, err := read("AvailableProcessors")
	if err != nil {
		return err
	}

	now := c.now()
	if err := errors.Join(
		c.BuildAbsolute("os.memory.committed", float64(committed/1024), now),
		c.BuildAbsolute("os.memory.physical", float64((physTotal-physFree)/1024), now),
		c.BuildAbsolute("os.memory.swap", float64((swapTotal-swapFree)/1024), now),
		c.BuildTimePercentage("os.cpu", float64(cpuTimeNs/1_000_000), now, int(cpus)),
	); err != nil {
		return err
	}

	return c.collectFileDescriptors(ctx, now)
}

// collectFileDescriptors samples descriptor counts. Hosts that do not expose them are skipped.
func (c *Collector) collectFileDescriptors(ctx context.Context, now time.Time) error {
	if c.noFDCounts {
		return nil
	}

	open, err := mbus.GetInt64(ctx, c.bus, osObject, "OpenFileDescriptorCount")
	if err == nil {
		var maxFD int64
		if maxFD, err = mbus.GetInt64(ctx, c.bus, osObject, "MaxFileDescriptorCount"); err == nil {
			return errors.Join(
				c.BuildAbsolute("os.fd.open", float64(open), now),
				c.BuildAbsolute("os.fd.max", float64(maxFD), now),
			)
		}
	}
	if errors.Is(err, mbus.ErrNotFound) {
		c.Info("file descriptor counts are not available on this host, not collecting them")
		c.noFDCounts = true
		return nil
	}
	return err
}
