// SPDX-License-Identifier: GPL-3.0-or-later

// Package matcher filters resource and application names.
//
// A pattern is written as "<format> <expr>" or as a bare expression:
//
//	= jdbc/main      exact string
//	* jdbc/**        glob (doublestar syntax, '/' separated)
//	~ ^jms/.+Queue$  regular expression
//	jdbc/*           bare expressions are globs
package matcher

import (
	"errors"
	"fmt"
	"strings"
)

// Matcher reports whether a name matches.
type Matcher interface {
	Match(b []byte) bool
	MatchString(s string) bool
}

const (
	fmtString = '='
	fmtGlob   = '*'
	fmtRegExp = '~'
)

var errInvalidFormat = errors.New("invalid pattern format")

// Parse builds a Matcher from one pattern line.
func Parse(line string) (Matcher, error) {
	if len(line) >= 2 && line[1] == ' ' {
		expr := line[2:]
		switch line[0] {
		case fmtString:
			return stringFullMatcher(expr), nil
		case fmtGlob:
			return NewGlobMatcher(expr)
		case fmtRegExp:
			return NewRegExpMatcher(expr)
		}
	}
	if strings.HasPrefix(line, " ") {
		return nil, fmt.Errorf("%w: %q", errInvalidFormat, line)
	}
	return NewGlobMatcher(line)
}

// Must is like Parse but panics on error.
func Must(m Matcher, err error) Matcher {
	if err != nil {
		panic(err)
	}
	return m
}
