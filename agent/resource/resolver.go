// SPDX-License-Identifier: GPL-3.0-or-later

// Package resource discovers connection pools and messaging resources on the host
// and maps their host-native attributes to model.ApplicationResource.
package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
	"github.com/netdata/hostprobe/logger"
	"github.com/netdata/hostprobe/pkg/matcher"
)

var (
	// ErrUnsupported is returned by operations the resolver variant cannot perform.
	ErrUnsupported = errors.New("not supported by this resolver")
	// ErrInvalidName is returned when a resource name cannot address a host object.
	ErrInvalidName = errors.New("invalid resource name")
)

// Resolver discovers resources of one host runtime.
// Listing never fails because the bus is down: it returns what it could read.
type Resolver interface {
	Name() string
	SupportsPrivateResources() bool
	SupportsGlobalResources() bool
	SupportsDataSourceLookup() bool

	ListGlobalResources(ctx context.Context) ([]model.ApplicationResource, error)
	ListApplicationResources(ctx context.Context, app *container.Application) ([]model.ApplicationResource, error)
	// ResetResource stops then starts a pool. It reports true only if both succeed.
	// A nil app addresses a global resource.
	ResetResource(ctx context.Context, app *container.Application, name string) (bool, error)
	LookupDataSource(ctx context.Context, app *container.Application, name string) (*DataSource, error)
}

const (
	KindAuto   = "auto"
	KindTomcat = "tomcat"
	KindJBoss  = "jboss"
)

type (
	Config struct {
		Filter      matcher.SimpleExpr    `yaml:",inline" json:"filter"`
		Concurrency int                   `yaml:"concurrency,omitempty" json:"concurrency"`
		Credentials map[string]Credential `yaml:"credentials,omitempty" json:"credentials"`
	}
	// Credential supplies what the host does not expose: the pool password,
	// and optionally a different user for direct connections.
	Credential struct {
		Username string `yaml:"username,omitempty" json:"username"`
		Password string `yaml:"password,omitempty" json:"password"`
	}
)

func DefaultConfig() Config {
	return Config{Concurrency: 4}
}

// New creates the resolver of the given kind. KindAuto picks jboss when the bus hosts
// a jboss server and tomcat otherwise.
func New(ctx context.Context, kind string, cfg Config, bus mbus.Client, adaptor container.Adaptor, log *logger.Logger) (Resolver, error) {
	b, err := newBase(cfg, bus, log)
	if err != nil {
		return nil, err
	}

	if kind == "" || kind == KindAuto {
		kind = KindTomcat
		server, err := bus.FindServer(ctx, "jboss")
		if err != nil {
			b.Warningf("resolver detection: %v, assuming %s", err, kind)
		} else if server != nil {
			kind = KindJBoss
		}
	}

	switch kind {
	case KindTomcat:
		if adaptor == nil {
			return nil, errors.New("resolver: tomcat resolver needs a container adaptor")
		}
		b.Logger = b.With("resolver", KindTomcat)
		return newTomcatResolver(b, adaptor), nil
	case KindJBoss:
		b.Logger = b.With("resolver", KindJBoss)
		return newJBossResolver(b), nil
	}
	return nil, fmt.Errorf("resolver: unknown kind '%s'", kind)
}

type base struct {
	*logger.Logger

	bus         mbus.Client
	filter      matcher.Matcher
	concurrency int
	credentials map[string]Credential
}

func newBase(cfg Config, bus mbus.Client, log *logger.Logger) (*base, error) {
	if bus == nil {
		return nil, errors.New("resolver: no management bus")
	}
	filter, err := cfg.Filter.ParseOrTrue()
	if err != nil {
		return nil, fmt.Errorf("resolver: resource filter: %v", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &base{
		Logger:      log.With("component", "resolver"),
		bus:         bus,
		filter:      filter,
		concurrency: cfg.Concurrency,
		credentials: cfg.Credentials,
	}, nil
}

// collect runs read for every item on a bounded pool and returns the successful results
// in input order. Failed reads are logged and skipped.
func collect[T any](ctx context.Context, b *base, items []T, read func(context.Context, T) (*model.ApplicationResource, error)) []model.ApplicationResource {
	results := make([]*model.ApplicationResource, len(items))

	p := pool.New().WithMaxGoroutines(b.concurrency)
	for i, item := range items {
		p.Go(func() {
			r, err := read(ctx, item)
			if err != nil {
				b.Warningf("skip resource '%v': %v", item, err)
				return
			}
			results[i] = r
		})
	}
	p.Wait()

	var out []model.ApplicationResource
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// queryPools lists the pool objects matching pattern whose name key passes the filter.
// An unreachable bus yields no names and no error.
func (b *base) queryPools(ctx context.Context, pattern mbus.ObjectName) ([]mbus.ObjectName, error) {
	names, err := b.bus.QueryNames(ctx, pattern)
	if err != nil {
		if mbus.IsUnavailable(err) {
			b.Warningf("list resources: %v", err)
			return nil, nil
		}
		return nil, err
	}
	var out []mbus.ObjectName
	for _, on := range names {
		if b.filter.MatchString(on.Key("name")) {
			out = append(out, on)
		}
	}
	return out, nil
}

// resetPool stops then starts a pool object.
func (b *base) resetPool(ctx context.Context, on mbus.ObjectName, name string) bool {
	if _, err := b.bus.Invoke(ctx, on, "stop"); err != nil {
		b.Errorf("could not reset resource '%s': stop: %v", name, err)
		return false
	}
	if _, err := b.bus.Invoke(ctx, on, "start"); err != nil {
		b.Errorf("could not reset resource '%s': start: %v", name, err)
		return false
	}
	b.Infof("resource '%s' was reset", name)
	return true
}
