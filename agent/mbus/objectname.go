// SPDX-License-Identifier: GPL-3.0-or-later

package mbus

import (
	"fmt"
	"slices"
	"strings"
)

// ObjectName addresses an object on the management bus: "domain:key=value,key=value".
// Values may be quoted. A trailing ",*" (or a lone "*") makes the name a property-list pattern,
// and '*' or '?' in the domain or in an unquoted value make it a wildcard pattern.
type ObjectName struct {
	domain      string
	props       []property
	listPattern bool
}

type property struct {
	key, value string
	quoted     bool
}

// ParseObjectName parses s. It fails with ErrMalformedName.
func ParseObjectName(s string) (ObjectName, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return ObjectName{}, fmt.Errorf("%w: %q: missing domain separator", ErrMalformedName, s)
	}

	on := ObjectName{domain: s[:i]}
	if strings.ContainsAny(on.domain, "\n=,") {
		return ObjectName{}, fmt.Errorf("%w: %q: invalid domain", ErrMalformedName, s)
	}

	parts, err := splitProperties(s[i+1:])
	if err != nil {
		return ObjectName{}, fmt.Errorf("%w: %q: %v", ErrMalformedName, s, err)
	}

	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		if part == "*" {
			if on.listPattern {
				return ObjectName{}, fmt.Errorf("%w: %q: repeated '*'", ErrMalformedName, s)
			}
			on.listPattern = true
			continue
		}

		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" || v == "" {
			return ObjectName{}, fmt.Errorf("%w: %q: bad property %q", ErrMalformedName, s, part)
		}
		if seen[k] {
			return ObjectName{}, fmt.Errorf("%w: %q: duplicate key %q", ErrMalformedName, s, k)
		}
		seen[k] = true

		p := property{key: k, value: v}
		if strings.HasPrefix(v, `"`) {
			uv, err := unquote(v)
			if err != nil {
				return ObjectName{}, fmt.Errorf("%w: %q: %v", ErrMalformedName, s, err)
			}
			p.value, p.quoted = uv, true
		} else if strings.ContainsAny(v, "\":=\n") {
			return ObjectName{}, fmt.Errorf("%w: %q: value %q must be quoted", ErrMalformedName, s, v)
		}
		on.props = append(on.props, p)
	}

	if len(on.props) == 0 && !on.listPattern {
		return ObjectName{}, fmt.Errorf("%w: %q: no properties", ErrMalformedName, s)
	}

	return on, nil
}

// MustParseObjectName is ParseObjectName that panics. For constant names only.
func MustParseObjectName(s string) ObjectName {
	on, err := ParseObjectName(s)
	if err != nil {
		panic(err)
	}
	return on
}

// NewObjectName builds a name from key/value pairs, quoting values where needed.
func NewObjectName(domain string, kv ...string) (ObjectName, error) {
	if len(kv)%2 != 0 {
		return ObjectName{}, fmt.Errorf("%w: odd number of key/value arguments", ErrMalformedName)
	}
	var sb strings.Builder
	sb.WriteString(domain)
	sb.WriteByte(':')
	for i := 0; i < len(kv); i += 2 {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(kv[i])
		sb.WriteByte('=')
		sb.WriteString(QuoteIfNeeded(kv[i+1]))
	}
	return ParseObjectName(sb.String())
}

func (on ObjectName) Domain() string { return on.domain }

func (on ObjectName) IsZero() bool { return on.domain == "" && len(on.props) == 0 && !on.listPattern }

// Key returns the (unquoted) value of key, or "".
func (on ObjectName) Key(key string) string {
	for _, p := range on.props {
		if p.key == key {
			return p.value
		}
	}
	return ""
}

// Keys returns the property keys in the order they were written.
func (on ObjectName) Keys() []string {
	keys := make([]string, 0, len(on.props))
	for _, p := range on.props {
		keys = append(keys, p.key)
	}
	return keys
}

// IsPattern reports whether the name can match more than one object.
func (on ObjectName) IsPattern() bool {
	if on.listPattern || hasWildcard(on.domain) {
		return true
	}
	for _, p := range on.props {
		if !p.quoted && hasWildcard(p.value) {
			return true
		}
	}
	return false
}

// String returns the name with properties in their original order.
func (on ObjectName) String() string {
	return on.format(on.props)
}

// Canonical returns the name with properties sorted by key. Two names denote the same object
// when their canonical forms are equal.
func (on ObjectName) Canonical() string {
	props := slices.Clone(on.props)
	slices.SortFunc(props, func(a, b property) int { return strings.Compare(a.key, b.key) })
	return on.format(props)
}

func (on ObjectName) format(props []property) string {
	var sb strings.Builder
	sb.WriteString(on.domain)
	sb.WriteByte(':')
	for i, p := range props {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.key)
		sb.WriteByte('=')
		if p.quoted {
			sb.WriteString(Quote(p.value))
		} else {
			sb.WriteString(p.value)
		}
	}
	if on.listPattern {
		if len(props) > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('*')
	}
	return sb.String()
}

// Match reports whether the concrete name matches on used as a pattern.
func (on ObjectName) Match(name ObjectName) bool {
	if !wildcardMatch(on.domain, name.domain) {
		return false
	}
	if !on.listPattern && len(on.props) != len(name.props) {
		return false
	}
	for _, p := range on.props {
		v, ok := name.lookup(p.key)
		if !ok {
			return false
		}
		if p.quoted || !hasWildcard(p.value) {
			if p.value != v {
				return false
			}
			continue
		}
		if !wildcardMatch(p.value, v) {
			return false
		}
	}
	return true
}

func (on ObjectName) lookup(key string) (string, bool) {
	for _, p := range on.props {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Quote returns s as a quoted object name value.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '*', '?', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// QuoteIfNeeded quotes s only if it contains characters not allowed in an unquoted value.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, ",=:\"*?\n") {
		return Quote(s)
	}
	return s
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[len(s)-1] != '"' {
		return "", fmt.Errorf("unterminated quoted value %s", s)
	}
	body := s[1 : len(s)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			return "", fmt.Errorf("unescaped quote in %s", s)
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(body) {
			return "", fmt.Errorf("dangling escape in %s", s)
		}
		i++
		switch body[i] {
		case '"', '*', '?', '\\':
			sb.WriteByte(body[i])
		case 'n':
			sb.WriteByte('\n')
		default:
			return "", fmt.Errorf("bad escape \\%c in %s", body[i], s)
		}
	}
	return sb.String(), nil
}

// splitProperties splits on commas outside quoted values.
func splitProperties(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var (
		parts    []string
		start    int
		inQuotes bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuotes {
				i++
			}
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote")
	}
	return append(parts, s[start:]), nil
}

func hasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// wildcardMatch matches s against a pattern where '*' is any run and '?' any single byte.
// '/' has no special meaning, web module names contain it.
func wildcardMatch(pattern, s string) bool {
	px, sx := 0, 0
	star, mark := -1, 0
	for sx < len(s) {
		switch {
		case px < len(pattern) && (pattern[px] == '?' || pattern[px] == s[sx]):
			px++
			sx++
		case px < len(pattern) && pattern[px] == '*':
			star, mark = px, sx
			px++
		case star >= 0:
			px = star + 1
			mark++
			sx = mark
		default:
			return false
		}
	}
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}
