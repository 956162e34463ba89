// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"context"
	"fmt"
	"slices"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/resource"
)

// Collector samples one aspect of the host.
type Collector interface {
	// Init is called once before the first Collect.
	// If it returns error, the collector is not scheduled.
	Init(context.Context) error

	// Collect records one round of samples. The context carries the per-run timeout.
	Collect(context.Context) error

	GetBase() *Base
}

// Deps are the host handles collectors sample through. Adaptor and Resolver may be nil
// when the host does not provide them.
type Deps struct {
	Bus      mbus.Client
	Adaptor  container.Adaptor
	Resolver resource.Resolver
}

type (
	// Creator is a Collector builder.
	Creator struct {
		// Disabled collectors run only when enabled explicitly.
		Disabled bool
		Create   func(Deps) Collector
	}
	// Registry is a collection of Creators.
	Registry map[string]Creator
)

var DefaultRegistry = Registry{}

// Register registers a collector in the DefaultRegistry.
func Register(name string, creator Creator) {
	DefaultRegistry.Register(name, creator)
}

func (r Registry) Register(name string, creator Creator) {
	if _, ok := r[name]; ok {
		panic(fmt.Sprintf("%s is already in registry", name))
	}
	r[name] = creator
}

func (r Registry) Lookup(name string) (Creator, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the registered names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
