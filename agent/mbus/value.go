// SPDX-License-Identifier: GPL-3.0-or-later

package mbus

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Value is a typed view over a JSON value returned by the bus.
// Conversions fail with ErrTypeMismatch.
type Value struct {
	r gjson.Result
}

// NewValue wraps raw JSON.
func NewValue(raw string) Value {
	return Value{r: gjson.Parse(raw)}
}

// ValueOf marshals v to JSON and wraps it.
func ValueOf(v any) (Value, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return Value{r: gjson.ParseBytes(bs)}, nil
}

func valueFromResult(r gjson.Result) Value { return Value{r: r} }

func (v Value) IsNull() bool {
	return !v.r.Exists() || v.r.Type == gjson.Null
}

func (v Value) Raw() string { return v.r.Raw }

func (v Value) Int64() (int64, error) {
	switch v.r.Type {
	case gjson.Number:
		return v.r.Int(), nil
	case gjson.String:
		n, err := strconv.ParseInt(v.r.Str, 10, 64)
		if err != nil {
			return 0, v.mismatch("integer")
		}
		return n, nil
	}
	return 0, v.mismatch("integer")
}

func (v Value) Float64() (float64, error) {
	switch v.r.Type {
	case gjson.Number:
		return v.r.Num, nil
	case gjson.String:
		f, err := strconv.ParseFloat(v.r.Str, 64)
		if err != nil {
			return 0, v.mismatch("number")
		}
		return f, nil
	}
	return 0, v.mismatch("number")
}

// String returns strings and numbers as text. Null is the empty string.
func (v Value) String() (string, error) {
	switch {
	case v.IsNull():
		return "", nil
	case v.r.Type == gjson.String:
		return v.r.Str, nil
	case v.r.Type == gjson.Number, v.r.Type == gjson.True, v.r.Type == gjson.False:
		return v.r.Raw, nil
	}
	return "", v.mismatch("string")
}

func (v Value) Bool() (bool, error) {
	switch v.r.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		b, err := strconv.ParseBool(v.r.Str)
		if err != nil {
			return false, v.mismatch("boolean")
		}
		return b, nil
	}
	return false, v.mismatch("boolean")
}

// Strings returns an array of strings. Null is an empty slice.
func (v Value) Strings() ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.r.IsArray() {
		return nil, v.mismatch("string array")
	}
	var out []string
	for _, e := range v.r.Array() {
		if e.Type != gjson.String {
			return nil, v.mismatch("string array")
		}
		out = append(out, e.Str)
	}
	return out, nil
}

// Array returns the elements of an array value. Null is an empty slice.
func (v Value) Array() ([]Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.r.IsArray() {
		return nil, v.mismatch("array")
	}
	var out []Value
	for _, e := range v.r.Array() {
		out = append(out, Value{r: e})
	}
	return out, nil
}

// Map returns the members of an object value.
func (v Value) Map() (map[string]Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.r.IsObject() {
		return nil, v.mismatch("object")
	}
	out := make(map[string]Value)
	for k, e := range v.r.Map() {
		out[k] = Value{r: e}
	}
	return out, nil
}

// Get looks up a gjson path.
func (v Value) Get(path string) Value {
	return Value{r: v.r.Get(path)}
}

// Field looks up one object member whose name may contain path syntax such as '.'.
func (v Value) Field(name string) Value {
	return Value{r: v.r.Get(gjson.Escape(name))}
}

func (v Value) mismatch(want string) error {
	raw := v.r.Raw
	if len(raw) > 64 {
		raw = raw[:64] + "..."
	}
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, raw)
}
