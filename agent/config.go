// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/resource"
	"github.com/netdata/hostprobe/agent/stats"
	"github.com/netdata/hostprobe/pkg/confopt"
)

type Config struct {
	Jolokia   mbus.JolokiaConfig `yaml:"jolokia" json:"jolokia"`
	Host      HostConfig         `yaml:"host" json:"host"`
	Resolver  string             `yaml:"resolver" json:"resolver"`
	Resources resource.Config    `yaml:"resources" json:"resources"`
	Stats     stats.Config       `yaml:"stats" json:"stats"`
	// LockDir holds the per-host lock files. Empty disables locking.
	LockDir string `yaml:"lock_dir,omitempty" json:"lock_dir"`
}

type HostConfig struct {
	Engine       string `yaml:"engine,omitempty" json:"engine"`
	Name         string `yaml:"name,omitempty" json:"name"`
	CatalinaBase string `yaml:"catalina_base,omitempty" json:"catalina_base"`
	// VersionBanner overrides the banner the host reports, e.g. "Apache Tomcat/9.0.85".
	VersionBanner string `yaml:"version_banner,omitempty" json:"version_banner"`
	// ClearTimeout bounds clearing the deployer mark after an update check.
	ClearTimeout confopt.Duration `yaml:"clear_timeout,omitempty" json:"clear_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Jolokia: mbus.DefaultJolokiaConfig(),
		Host: HostConfig{
			Engine:       "Catalina",
			Name:         "localhost",
			ClearTimeout: confopt.Duration(10 * time.Second),
		},
		Resolver:  resource.KindAuto,
		Resources: resource.DefaultConfig(),
		Stats:     stats.DefaultConfig(),
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
// A leading "~" in path, catalina_base and lock_dir is expanded.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return cfg, fmt.Errorf("parse '%s': %v", path, err)
	}
	for _, p := range []*string{&cfg.Host.CatalinaBase, &cfg.LockDir} {
		if *p, err = homedir.Expand(*p); err != nil {
			return cfg, fmt.Errorf("config '%s': %v", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config '%s': %v", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Resolver {
	case "", resource.KindAuto, resource.KindTomcat, resource.KindJBoss:
	default:
		return fmt.Errorf("unknown resolver '%s' (want %s, %s or %s)", c.Resolver, resource.KindAuto, resource.KindTomcat, resource.KindJBoss)
	}
	if c.Jolokia.URL == "" {
		return fmt.Errorf("'jolokia.url' not set")
	}
	if c.Stats.Interval.Duration() < time.Second {
		return fmt.Errorf("'stats.interval' must be at least 1s, got %s", c.Stats.Interval)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("jolokia '%s', host '%s/%s', resolver '%s', stats interval '%s'",
		c.Jolokia.URL, c.Host.Engine, c.Host.Name, c.Resolver, c.Stats.Interval)
}
