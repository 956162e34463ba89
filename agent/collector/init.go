// SPDX-License-Identifier: GPL-3.0-or-later

// Package collector registers every stats collector in the default registry.
package collector

import (
	_ "github.com/netdata/hostprobe/agent/collector/app"
	_ "github.com/netdata/hostprobe/agent/collector/connector"
	_ "github.com/netdata/hostprobe/agent/collector/datasource"
	_ "github.com/netdata/hostprobe/agent/collector/memory"
	_ "github.com/netdata/hostprobe/agent/collector/runtimestats"
)
