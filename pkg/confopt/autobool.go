// SPDX-License-Identifier: GPL-3.0-or-later

package confopt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AutoBool is a tri-state switch: "auto" lets the agent decide from what the host supports.
type AutoBool string

const (
	AutoBoolAuto     AutoBool = "auto"
	AutoBoolEnabled  AutoBool = "enabled"
	AutoBoolDisabled AutoBool = "disabled"
)

func AutoBoolFromBool(v bool) AutoBool {
	if v {
		return AutoBoolEnabled
	}
	return AutoBoolDisabled
}

func (a AutoBool) normalized() AutoBool {
	switch strings.ToLower(string(a)) {
	case "", "auto":
		return AutoBoolAuto
	case "enabled", "enable", "yes", "true", "on":
		return AutoBoolEnabled
	case "disabled", "disable", "no", "false", "off":
		return AutoBoolDisabled
	}
	return a
}

func (a AutoBool) String() string   { return string(a.normalized()) }
func (a AutoBool) IsAuto() bool     { return a.normalized() == AutoBoolAuto }
func (a AutoBool) IsEnabled() bool  { return a.normalized() == AutoBoolEnabled }
func (a AutoBool) IsDisabled() bool { return a.normalized() == AutoBoolDisabled }

// Bool resolves the switch, using def for "auto".
func (a AutoBool) Bool(def bool) bool {
	switch a.normalized() {
	case AutoBoolEnabled:
		return true
	case AutoBoolDisabled:
		return false
	}
	return def
}

// WithDefault replaces "auto" with the given decision.
func (a AutoBool) WithDefault(def bool) AutoBool {
	if a.IsAuto() {
		return AutoBoolFromBool(def)
	}
	return a.normalized()
}

func (a AutoBool) valid() bool {
	switch a.normalized() {
	case AutoBoolAuto, AutoBoolEnabled, AutoBoolDisabled:
		return true
	}
	return false
}

func (a *AutoBool) set(raw any) error {
	var v AutoBool
	switch x := raw.(type) {
	case nil:
		v = AutoBoolAuto
	case bool:
		v = AutoBoolFromBool(x)
	case string:
		v = AutoBool(x)
	default:
		return fmt.Errorf("invalid auto bool value: %v", raw)
	}
	if !v.valid() {
		return fmt.Errorf("invalid auto bool value: %q", v)
	}
	*a = v.normalized()
	return nil
}

func (a *AutoBool) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return a.set(raw)
}

func (a AutoBool) MarshalYAML() (any, error) {
	return a.String(), nil
}

func (a *AutoBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return a.set(raw)
}

func (a AutoBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}
