// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an application or a static resource does not exist.
var ErrNotFound = errors.New("not found")

// ConfigurationError means no adaptor variant, or more than one, accepts the host banner.
type ConfigurationError struct {
	Banner  string
	Matches []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("no container adaptor supports host %q", e.Banner)
	}
	return fmt.Sprintf("host %q is claimed by several container adaptors: %s", e.Banner, strings.Join(e.Matches, ", "))
}

// BindingError means the caller could not be associated with an application's naming scope.
type BindingError struct {
	App string
	Err error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("bind to naming context of '%s': %v", e.App, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

var (
	errInvalidToken = errors.New("no valid security token")
	errNotBound     = errors.New("scope is not bound")
)
