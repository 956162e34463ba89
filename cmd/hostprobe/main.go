// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/net/http/httpproxy"

	"github.com/netdata/hostprobe/agent"
	_ "github.com/netdata/hostprobe/agent/collector"
	"github.com/netdata/hostprobe/cli"
	"github.com/netdata/hostprobe/logger"
	"github.com/netdata/hostprobe/pkg/buildinfo"
	"github.com/netdata/hostprobe/pkg/executable"
)

func init() {
	// https://github.com/netdata/netdata/issues/8949#issuecomment-638294959
	if v := os.Getenv("TZ"); strings.HasPrefix(v, ":") {
		_ = os.Unsetenv("TZ")
	}
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, args ...interface{}) {}))

	opts := parseCLI()

	if opts.Version {
		fmt.Printf("%s, version: %s\n", executable.Name, buildinfo.Version)
		return
	}

	logger.Level.SetFromEnv()
	if opts.Debug {
		logger.Level.Set(slog.LevelDebug)
	}

	if opts.Command == "run" {
		runAgent(opts)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, opts, os.Stdout, agent.Connect); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", executable.Name, opts.Command, err)
		stop()
		os.Exit(1)
	}
}

func runAgent(opts *cli.Option) {
	aopts := agent.Options{ConfigPath: opts.Config}
	if opts.Dump {
		aopts.Dump = os.Stdout
	}
	a := agent.New(aopts)

	a.Infof("starting %s, %s", executable.Name, buildinfo.Info())
	if u, err := user.Current(); err == nil {
		a.Debugf("current user: name=%s, uid=%s", u.Username, u.Uid)
	}

	proxyCfg := httpproxy.FromEnvironment()
	a.Infof("env HTTP_PROXY '%s', HTTPS_PROXY '%s'", proxyCfg.HTTPProxy, proxyCfg.HTTPSProxy)

	a.Run()
}

func parseCLI() *cli.Option {
	opt, err := cli.Parse(os.Args)
	if err != nil {
		if cli.IsHelp(err) {
			os.Exit(0)
		}
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", executable.Name, err)
		}
		os.Exit(1)
	}
	return opt
}
