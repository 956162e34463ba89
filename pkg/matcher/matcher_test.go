// SPDX-License-Identifier: GPL-3.0-or-later

package matcher

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		line    string
		want    Matcher
		wantErr bool
	}{
		"exact":          {line: "= jdbc/main", want: stringFullMatcher("jdbc/main")},
		"glob":           {line: "* jdbc/*", want: globMatcher("jdbc/*")},
		"bare glob":      {line: "jms/**", want: globMatcher("jms/**")},
		"bare literal":   {line: "jdbc/main", want: stringFullMatcher("jdbc/main")},
		"star":           {line: "*", want: TRUE()},
		"regexp literal": {line: "~ ^jdbc/", want: stringPrefixMatcher("jdbc/")},
		"regexp":         {line: "~ ^jms/.+Queue$", want: &regexp.Regexp{}},
		"bad regexp":     {line: "~ (ab", wantErr: true},
		"bad glob":       {line: "* jdbc/[", wantErr: true},
		"leading space":  {line: " jdbc", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Parse(test.line)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, test.want, m)
			if _, ok := test.want.(*regexp.Regexp); !ok {
				assert.Equal(t, test.want, m)
			}
		})
	}
}

func TestGlobMatcher_MatchString(t *testing.T) {
	tests := []struct {
		expr string
		name string
		want bool
	}{
		{"jdbc/*", "jdbc/main", true},
		{"jdbc/*", "jdbc/a/b", false},
		{"jdbc/**", "jdbc/a/b", true},
		{"jms/{orders,invoices}", "jms/orders", true},
		{"jms/{orders,invoices}", "jms/refunds", false},
		{"*Pool", "MainPool", true},
		{"ds?", "ds1", true},
	}

	for _, test := range tests {
		t.Run(test.expr+"|"+test.name, func(t *testing.T) {
			m, err := NewGlobMatcher(test.expr)
			require.NoError(t, err)
			assert.Equal(t, test.want, m.MatchString(test.name))
			assert.Equal(t, test.want, m.Match([]byte(test.name)))
		})
	}
}

func TestLogical(t *testing.T) {
	a := stringFullMatcher("a")
	b := stringFullMatcher("b")

	assert.Equal(t, FALSE(), And(a, FALSE()))
	assert.Equal(t, a, And(TRUE(), a))
	assert.Equal(t, andMatcher{andMatcher{a, b}, a}, And(a, b, a))

	assert.Equal(t, TRUE(), Or(a, TRUE()))
	assert.Equal(t, b, Or(FALSE(), b))
	assert.Equal(t, orMatcher{a, b}, Or(a, b))

	assert.Equal(t, FALSE(), Not(TRUE()))
	assert.Equal(t, TRUE(), Not(FALSE()))
	assert.True(t, Not(a).MatchString("b"))
	assert.False(t, Not(a).MatchString("a"))
}

func TestSimpleExpr_Parse(t *testing.T) {
	tests := map[string]struct {
		expr    SimpleExpr
		matches map[string]bool
		wantErr bool
	}{
		"includes only": {
			expr:    SimpleExpr{Includes: []string{"jdbc/*"}},
			matches: map[string]bool{"jdbc/main": true, "jms/queue": false},
		},
		"excludes only": {
			expr:    SimpleExpr{Excludes: []string{"~ Test$"}},
			matches: map[string]bool{"jdbc/main": true, "jdbc/mainTest": false},
		},
		"both": {
			expr: SimpleExpr{
				Includes: []string{"jdbc/*", "= jms/orders"},
				Excludes: []string{"jdbc/legacy*"},
			},
			matches: map[string]bool{
				"jdbc/main":      true,
				"jms/orders":     true,
				"jdbc/legacyOld": false,
				"jms/refunds":    false,
			},
		},
		"bad include": {
			expr:    SimpleExpr{Includes: []string{"~ (ab"}},
			wantErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := test.expr.Parse()
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for s, want := range test.matches {
				assert.Equalf(t, want, m.MatchString(s), "name %q", s)
			}
		})
	}
}

func TestSimpleExpr_Empty(t *testing.T) {
	_, err := SimpleExpr{}.Parse()
	assert.ErrorIs(t, err, ErrEmptyExpr)

	m, err := SimpleExpr{}.ParseOrTrue()
	require.NoError(t, err)
	assert.Equal(t, TRUE(), m)
}

func TestWithCache(t *testing.T) {
	assert.Equal(t, TRUE(), WithCache(TRUE()))

	m := WithCache(globMatcher("jdbc/*"))
	for i := 0; i < 3; i++ {
		assert.True(t, m.MatchString("jdbc/main"))
		assert.False(t, m.Match([]byte("jms/x")))
	}
	assert.Len(t, m.(*cachedMatcher).cache, 2)
}
