// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/netdata/hostprobe/agent"
	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/model"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/cli"
	"github.com/netdata/hostprobe/logger"
)

type connectFunc func(ctx context.Context, cfg agent.Config, log *logger.Logger) (*agent.Session, error)

type (
	resetResult struct {
		Name        string `yaml:"name"`
		Application string `yaml:"application,omitempty"`
		Reset       bool   `yaml:"reset"`
	}
	lookupResult struct {
		Name    string `yaml:"name"`
		JDBCURL string `yaml:"jdbc_url"`
		Driver  string `yaml:"driver"`
		DSN     string `yaml:"dsn"`
		Pinged  bool   `yaml:"pinged,omitempty"`
	}
	checkResult struct {
		Application string `yaml:"application"`
		Checked     bool   `yaml:"checked"`
	}
	filtersResult struct {
		Filters  []model.FilterInfo    `yaml:"filters"`
		Mappings []model.FilterMapping `yaml:"mappings"`
	}
)

// runCommand binds to the host, runs one command and writes its result to out as YAML.
func runCommand(ctx context.Context, opts *cli.Option, out io.Writer, connect connectFunc) error {
	cfg, err := agent.LoadConfig(opts.Config)
	if err != nil {
		return err
	}

	log := logger.New().With("component", "cli")
	sess, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}

	v, err := dispatch(ctx, opts, cfg, sess, log)
	if err != nil {
		return err
	}

	bs, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(bs)
	return err
}

func dispatch(ctx context.Context, opts *cli.Option, cfg agent.Config, sess *agent.Session, log *logger.Logger) (any, error) {
	arg := func(i int) string {
		if i < len(opts.Args) {
			return opts.Args[i]
		}
		return ""
	}

	switch opts.Command {
	case "apps":
		a, err := sess.RequireAdaptor()
		if err != nil {
			return nil, err
		}
		return a.FindApplications(ctx)

	case "resources":
		if arg(0) == "" {
			return sess.Resolver.ListGlobalResources(ctx)
		}
		app, err := findApplication(ctx, sess, arg(0))
		if err != nil {
			return nil, err
		}
		return sess.Resolver.ListApplicationResources(ctx, app)

	case "reset":
		app, err := optionalApplication(ctx, sess, arg(1))
		if err != nil {
			return nil, err
		}
		ok, err := sess.Resolver.ResetResource(ctx, app, arg(0))
		if err != nil {
			return nil, err
		}
		return resetResult{Name: arg(0), Application: arg(1), Reset: ok}, nil

	case "lookup":
		app, err := optionalApplication(ctx, sess, arg(1))
		if err != nil {
			return nil, err
		}
		ds, err := sess.Resolver.LookupDataSource(ctx, app, arg(0))
		if err != nil {
			return nil, err
		}
		res := lookupResult{Name: ds.Name, JDBCURL: ds.JDBCURL, Driver: ds.Driver, DSN: ds.DSN()}
		if opts.Ping {
			db, err := ds.Open(ctx)
			if err != nil {
				return nil, err
			}
			_ = db.Close()
			res.Pinged = true
		}
		return res, nil

	case "check-updates":
		a, err := sess.RequireAdaptor()
		if err != nil {
			return nil, err
		}
		app, err := findApplication(ctx, sess, arg(0))
		if err != nil {
			return nil, err
		}
		if err := a.CheckForUpdates(ctx, app.Name); err != nil {
			return nil, err
		}
		return checkResult{Application: app.DisplayPath(), Checked: true}, nil

	case "filters":
		a, err := sess.RequireAdaptor()
		if err != nil {
			return nil, err
		}
		app, err := findApplication(ctx, sess, arg(0))
		if err != nil {
			return nil, err
		}
		var res filtersResult
		if res.Filters, err = a.GetApplicationFilters(ctx, app); err != nil {
			return nil, err
		}
		if res.Mappings, err = a.GetApplicationFilterMaps(ctx, app); err != nil {
			return nil, err
		}
		return res, nil

	case "params":
		a, err := sess.RequireAdaptor()
		if err != nil {
			return nil, err
		}
		app, err := findApplication(ctx, sess, arg(0))
		if err != nil {
			return nil, err
		}
		return a.GetApplicationInitParams(ctx, app)

	case "stats":
		return collectStats(ctx, opts, cfg, sess, log)
	}
	return nil, fmt.Errorf("unknown command '%s'", opts.Command)
}

func collectStats(ctx context.Context, opts *cli.Option, cfg agent.Config, sess *agent.Session, log *logger.Logger) (any, error) {
	sched := stats.NewScheduler(ctx, cfg.Stats, stats.DefaultRegistry, stats.Deps{
		Bus:      sess.Bus,
		Adaptor:  sess.Adaptor,
		Resolver: sess.Resolver,
	}, log)

	for i := 0; i < opts.Rounds; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Every):
			}
		}
		sched.CollectOnce()
	}
	prefix := ""
	if len(opts.Args) > 0 {
		prefix = opts.Args[0]
	}
	return agent.FamilySnapshot(sched.Store(), prefix, opts.Top), nil
}

func findApplication(ctx context.Context, sess *agent.Session, name string) (*container.Application, error) {
	a, err := sess.RequireAdaptor()
	if err != nil {
		return nil, err
	}
	app, err := a.FindApplication(ctx, name)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application '%s': %w", name, container.ErrNotFound)
	}
	return app, nil
}

// optionalApplication resolves name, or returns nil for the global scope when name is empty.
func optionalApplication(ctx context.Context, sess *agent.Session, name string) (*container.Application, error) {
	if name == "" {
		return nil, nil
	}
	return findApplication(ctx, sess, name)
}
