// SPDX-License-Identifier: GPL-3.0-or-later

package matcher

import (
	"errors"
	"fmt"
)

// SimpleExpr matches a name when any include matches and no exclude does.
// An empty include list includes everything.
type SimpleExpr struct {
	Includes []string `yaml:"includes,omitempty" json:"includes"`
	Excludes []string `yaml:"excludes,omitempty" json:"excludes"`
}

var ErrEmptyExpr = errors.New("empty expression")

func (s SimpleExpr) Empty() bool {
	return len(s.Includes) == 0 && len(s.Excludes) == 0
}

func (s SimpleExpr) Parse() (Matcher, error) {
	if s.Empty() {
		return nil, ErrEmptyExpr
	}

	includes := TRUE()
	if len(s.Includes) > 0 {
		m, err := parseAny(s.Includes)
		if err != nil {
			return nil, err
		}
		includes = m
	}

	excludes, err := parseAny(s.Excludes)
	if err != nil {
		return nil, err
	}

	return And(includes, Not(excludes)), nil
}

// ParseOrTrue is Parse that treats an empty expression as match-all.
func (s SimpleExpr) ParseOrTrue() (Matcher, error) {
	if s.Empty() {
		return TRUE(), nil
	}
	m, err := s.Parse()
	if err != nil {
		return nil, err
	}
	return WithCache(m), nil
}

func parseAny(lines []string) (Matcher, error) {
	m := FALSE()
	for _, line := range lines {
		v, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parse matcher %q: %v", line, err)
		}
		m = Or(m, v)
	}
	return m, nil
}
