// SPDX-License-Identifier: GPL-3.0-or-later

// Package agent wires the host bindings and the stats scheduler into a long running process.
package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/filelock"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/logger"
)

var isTerminal = isatty.IsTerminal(os.Stdout.Fd())

type Options struct {
	ConfigPath string
	// Registry defaults to stats.DefaultRegistry.
	Registry stats.Registry
	// Dump receives a stats snapshot each time an instance stops. Nil disables it.
	Dump io.Writer
}

type Agent struct {
	*logger.Logger

	ConfigPath string
	Registry   stats.Registry
	Dump       io.Writer

	connect    func(ctx context.Context, cfg Config, log *logger.Logger) (*Session, error)
	retryEvery time.Duration
	exit       func(code int)
}

func New(opts Options) *Agent {
	reg := opts.Registry
	if reg == nil {
		reg = stats.DefaultRegistry
	}
	return &Agent{
		Logger:     logger.New().With(slog.String("component", "agent")),
		ConfigPath: opts.ConfigPath,
		Registry:   reg,
		Dump:       opts.Dump,
		connect:    Connect,
		retryEvery: 10 * time.Second,
		exit:       os.Exit,
	}
}

// Run serves until SIGINT or SIGTERM. SIGHUP, or an edit of the config file that changes it,
// restarts the instance with a freshly read config.
func (a *Agent) Run() {
	serve(a)
}

func serve(a *Agent) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	var wg sync.WaitGroup

	var reload <-chan struct{}
	if a.ConfigPath != "" {
		w := newConfigWatcher(a.ConfigPath, a.Logger)
		reload = w.changed
		go func() {
			if err := w.run(context.Background()); err != nil {
				a.Warningf("config '%s' is not watched: %v", a.ConfigPath, err)
			}
		}()
	}

	var exit bool

	for {
		ctx, cancel := context.WithCancel(context.Background())

		wg.Add(1)
		go func() { defer wg.Done(); a.run(ctx) }()

		select {
		case sig := <-ch:
			switch sig {
			case syscall.SIGHUP:
				a.Infof("received %s signal (%d). Restarting running instance", sig, sig)
			default:
				a.Infof("received %s signal (%d). Terminating...", sig, sig)
				exit = true
			}
		case <-reload:
			a.Infof("config '%s' changed. Restarting running instance", a.ConfigPath)
		}

		cancel()

		func() {
			timeout := time.Second * 10
			t := time.NewTimer(timeout)
			defer t.Stop()
			done := make(chan struct{})

			go func() { wg.Wait(); close(done) }()

			select {
			case <-t.C:
				a.Errorf("stopping all goroutines timed out after %s. Exiting...", timeout)
				os.Exit(0)
			case <-done:
			}
		}()

		if exit {
			os.Exit(0)
		}

		time.Sleep(time.Second)
	}
}

func (a *Agent) run(ctx context.Context) {
	a.Info("instance is started")
	defer func() { a.Info("instance is stopped") }()

	cfg, err := LoadConfig(a.ConfigPath)
	if err != nil {
		a.Error(err)
		if isTerminal {
			os.Exit(1)
		}
		return
	}
	a.Infof("using config: %s", cfg.String())

	if cfg.LockDir != "" {
		release, err := filelock.New(cfg.LockDir).Acquire(lockTarget(cfg))
		if err != nil {
			a.Errorf("host '%s' is not monitored: %v", cfg.Jolokia.URL, err)
			return
		}
		defer release()
	}

	sess, err := a.connectRetry(ctx, cfg)
	if err != nil {
		// a banner no adaptor variant accepts does not fix itself
		var cfgErr *container.ConfigurationError
		if errors.As(err, &cfgErr) {
			a.exit(1)
		}
		return
	}

	sched := stats.NewScheduler(ctx, cfg.Stats, a.Registry, stats.Deps{
		Bus:      sess.Bus,
		Adaptor:  sess.Adaptor,
		Resolver: sess.Resolver,
	}, a.Logger)
	sched.Run(ctx)

	if a.Dump != nil {
		if err := WriteSnapshot(a.Dump, sched.Store()); err != nil {
			a.Warningf("stats snapshot: %v", err)
		}
	}
}

// connectRetry keeps trying while the bus is unreachable. Other errors are final.
func (a *Agent) connectRetry(ctx context.Context, cfg Config) (*Session, error) {
	for {
		sess, err := a.connect(ctx, cfg, a.Logger)
		if err == nil {
			return sess, nil
		}
		if !mbus.IsUnavailable(err) {
			a.Errorf("binding to host: %v", err)
			return nil, err
		}
		a.Warningf("binding to host: %v, retrying in %s", err, a.retryEvery)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.retryEvery):
		}
	}
}

// lockTarget identifies the monitored host: one bus endpoint and one virtual host on it.
func lockTarget(cfg Config) any {
	return struct {
		URL    string
		Engine string
		Host   string
	}{cfg.Jolokia.URL, cfg.Host.Engine, cfg.Host.Name}
}
