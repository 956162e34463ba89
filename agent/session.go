// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/resource"
	"github.com/netdata/hostprobe/logger"
)

// Session holds the host bindings every operation goes through.
type Session struct {
	Bus      mbus.Client
	Server   *mbus.ServerHandle
	Adaptor  container.Adaptor
	Resolver resource.Resolver
}

// Connect opens the Jolokia bridge described by cfg and binds to the host behind it.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Session, error) {
	bus, err := mbus.NewJolokiaClient(cfg.Jolokia, log)
	if err != nil {
		return nil, err
	}
	return Bind(ctx, cfg, bus, log)
}

// Bind attaches the container adaptor and the resource resolver to bus.
// A host without a servlet container (jboss) gets no adaptor.
func Bind(ctx context.Context, cfg Config, bus mbus.Client, log *logger.Logger) (*Session, error) {
	s := &Session{Bus: bus}

	server, err := bus.FindServer(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("management bus: %w", err)
	}
	if server != nil {
		log.Infof("management bus: %s %s (%s)", server.Product, server.Version, server.Agent)
	}
	s.Server = server

	s.Adaptor, err = container.Attach(ctx, container.HostHandle{
		Bus:          bus,
		Engine:       cfg.Host.Engine,
		Host:         cfg.Host.Name,
		CatalinaBase: cfg.Host.CatalinaBase,
		Banner:       cfg.Host.VersionBanner,
		Logger:       log,
		ClearTimeout: cfg.Host.ClearTimeout.Duration(),
	})
	if err != nil {
		var cfgErr *container.ConfigurationError
		switch {
		case mbus.IsUnavailable(err), cfg.Resolver == resource.KindTomcat:
			return nil, err
		case errors.As(err, &cfgErr) && cfg.Resolver != resource.KindJBoss:
			return nil, err
		}
		log.Infof("no servlet container adaptor: %v", err)
		s.Adaptor = nil
	}

	s.Resolver, err = resource.New(ctx, cfg.Resolver, cfg.Resources, bus, s.Adaptor, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RequireAdaptor fails when the host has no servlet container.
func (s *Session) RequireAdaptor() (container.Adaptor, error) {
	if s.Adaptor == nil {
		return nil, fmt.Errorf("host has no servlet container: %w", resource.ErrUnsupported)
	}
	return s.Adaptor, nil
}
