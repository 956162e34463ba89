// SPDX-License-Identifier: GPL-3.0-or-later

package matcher

import "regexp"

// NewRegExpMatcher compiles expr. Expressions that are plain text with optional ^ and $ anchors
// are turned into string matchers.
func NewRegExpMatcher(expr string) (Matcher, error) {
	switch expr {
	case "", "^", "$":
		return TRUE(), nil
	case "^$", "$^":
		return stringFullMatcher(""), nil
	}

	body := expr
	anchorStart := body[0] == '^'
	if anchorStart {
		body = body[1:]
	}
	anchorEnd := len(body) > 0 && body[len(body)-1] == '$'
	if anchorEnd {
		body = body[:len(body)-1]
	}

	lit := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' {
			if i == len(body)-1 || !isRegExpMeta(body[i+1]) {
				return regexp.Compile(expr)
			}
			lit = append(lit, body[i+1])
			i++
			continue
		}
		if isRegExpMeta(c) {
			return regexp.Compile(expr)
		}
		lit = append(lit, c)
	}

	return NewStringMatcher(string(lit), anchorStart, anchorEnd), nil
}

func isRegExpMeta(c byte) bool {
	switch c {
	case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
		return true
	}
	return false
}
