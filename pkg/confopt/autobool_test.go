// SPDX-License-Identifier: GPL-3.0-or-later

package confopt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestAutoBool_States(t *testing.T) {
	tests := map[string]struct {
		value    AutoBool
		wantStr  string
		enabled  bool
		disabled bool
		auto     bool
	}{
		"empty":       {value: AutoBool(""), wantStr: "auto", auto: true},
		"auto":        {value: AutoBoolAuto, wantStr: "auto", auto: true},
		"enabled":     {value: AutoBoolEnabled, wantStr: "enabled", enabled: true},
		"disabled":    {value: AutoBoolDisabled, wantStr: "disabled", disabled: true},
		"upper case":  {value: AutoBool("ENABLED"), wantStr: "enabled", enabled: true},
		"yes synonym": {value: AutoBool("yes"), wantStr: "enabled", enabled: true},
		"off synonym": {value: AutoBool("off"), wantStr: "disabled", disabled: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.wantStr, test.value.String())
			assert.Equal(t, test.enabled, test.value.IsEnabled())
			assert.Equal(t, test.disabled, test.value.IsDisabled())
			assert.Equal(t, test.auto, test.value.IsAuto())
		})
	}
}

func TestAutoBool_Bool(t *testing.T) {
	assert.True(t, AutoBoolAuto.Bool(true))
	assert.False(t, AutoBoolAuto.Bool(false))
	assert.True(t, AutoBoolEnabled.Bool(false))
	assert.False(t, AutoBoolDisabled.Bool(true))
}

func TestAutoBool_WithDefault(t *testing.T) {
	assert.Equal(t, AutoBoolEnabled, AutoBoolAuto.WithDefault(true))
	assert.Equal(t, AutoBoolDisabled, AutoBoolAuto.WithDefault(false))
	assert.Equal(t, AutoBoolEnabled, AutoBoolEnabled.WithDefault(false))
}

func TestAutoBool_YAML(t *testing.T) {
	var cfg struct {
		Runtime AutoBool `yaml:"runtime"`
		App     AutoBool `yaml:"app"`
		Pool    AutoBool `yaml:"pool"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("runtime: true\napp: no\npool: auto\n"), &cfg))

	assert.Equal(t, AutoBoolEnabled, cfg.Runtime)
	assert.Equal(t, AutoBoolDisabled, cfg.App)
	assert.Equal(t, AutoBoolAuto, cfg.Pool)

	var bad AutoBool
	assert.Error(t, yaml.Unmarshal([]byte("maybe"), &bad))
}

func TestAutoBool_JSON(t *testing.T) {
	for _, v := range []AutoBool{AutoBoolAuto, AutoBoolEnabled, AutoBoolDisabled} {
		bs, err := json.Marshal(v)
		require.NoError(t, err)

		var back AutoBool
		require.NoError(t, json.Unmarshal(bs, &back))
		assert.Equal(t, v, back)
	}

	var bad AutoBool
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}
