// SPDX-License-Identifier: GPL-3.0-or-later

package matcher

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type globMatcher string

// NewGlobMatcher compiles a doublestar glob. Patterns without meta characters become exact matchers.
func NewGlobMatcher(expr string) (Matcher, error) {
	if expr == "*" || expr == "**" {
		return TRUE(), nil
	}
	if !doublestar.ValidatePattern(expr) {
		return nil, fmt.Errorf("invalid glob pattern %q", expr)
	}
	if !strings.ContainsAny(expr, `*?[{\`) {
		return stringFullMatcher(expr), nil
	}
	return globMatcher(expr), nil
}

func (m globMatcher) Match(b []byte) bool { return m.MatchString(string(b)) }

func (m globMatcher) MatchString(s string) bool {
	ok, _ := doublestar.Match(string(m), s)
	return ok
}
