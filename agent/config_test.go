// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/pkg/confopt"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "hostprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := map[string]struct {
		content string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		"full": {
			content: `
jolokia:
  url: http://10.0.0.5:8080/jolokia
  username: probe
  password: secret
  timeout: 3s
host:
  engine: Catalina
  name: www
  catalina_base: /opt/tomcat
  version_banner: Apache Tomcat/8.5.99
resolver: tomcat
resources:
  includes: ["jdbc/*"]
  excludes: ["*/legacy"]
  concurrency: 2
  credentials:
    jdbc/main: { password: pw }
stats:
  interval: 15s
  timeout: 5s
  max_series: 60
  collectors:
    runtime: true
    app: yes
    memory: false
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "http://10.0.0.5:8080/jolokia", cfg.Jolokia.URL)
				assert.Equal(t, "probe", cfg.Jolokia.Username)
				assert.Equal(t, 3*time.Second, cfg.Jolokia.Timeout.Duration())
				assert.Equal(t, "www", cfg.Host.Name)
				assert.Equal(t, "/opt/tomcat", cfg.Host.CatalinaBase)
				assert.Equal(t, "Apache Tomcat/8.5.99", cfg.Host.VersionBanner)
				assert.Equal(t, 10*time.Second, cfg.Host.ClearTimeout.Duration())
				assert.Equal(t, "tomcat", cfg.Resolver)
				assert.Equal(t, []string{"jdbc/*"}, cfg.Resources.Filter.Includes)
				assert.Equal(t, []string{"*/legacy"}, cfg.Resources.Filter.Excludes)
				assert.Equal(t, 2, cfg.Resources.Concurrency)
				assert.Equal(t, "pw", cfg.Resources.Credentials["jdbc/main"].Password)
				assert.Equal(t, 15*time.Second, cfg.Stats.Interval.Duration())
				assert.Equal(t, 60, cfg.Stats.MaxSeries)
				assert.Equal(t, map[string]confopt.AutoBool{
					"runtime": confopt.AutoBoolEnabled,
					"app":     confopt.AutoBoolEnabled,
					"memory":  confopt.AutoBoolDisabled,
				}, cfg.Stats.Collectors)
			},
		},
		"partial keeps defaults": {
			content: "jolokia:\n  url: http://tomcat:8080/jolokia\n",
			check: func(t *testing.T, cfg Config) {
				def := DefaultConfig()
				assert.Equal(t, "http://tomcat:8080/jolokia", cfg.Jolokia.URL)
				assert.Equal(t, def.Jolokia.Timeout, cfg.Jolokia.Timeout)
				assert.Equal(t, def.Host, cfg.Host)
				assert.Equal(t, def.Stats, cfg.Stats)
				assert.Equal(t, "auto", cfg.Resolver)
			},
		},
		"unknown resolver": {
			content: "resolver: weblogic\n",
			wantErr: true,
		},
		"interval below a second": {
			content: "stats:\n  interval: 100ms\n",
			wantErr: true,
		},
		"empty jolokia url": {
			content: "jolokia:\n  url: \"\"\n",
			wantErr: true,
		},
		"not yaml": {
			content: "jolokia: [",
			wantErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, test.content))
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, cfg)
		})
	}
}

func TestLoadConfig_NoPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	require.NoError(t, os.WriteFile(filepath.Join(home, "hostprobe.yaml"),
		[]byte("lock_dir: ~/locks\nhost:\n  catalina_base: ~/tomcat\n"), 0o600))

	cfg, err := LoadConfig("~/hostprobe.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "locks"), cfg.LockDir)
	assert.Equal(t, filepath.Join(home, "tomcat"), cfg.Host.CatalinaBase)
}
