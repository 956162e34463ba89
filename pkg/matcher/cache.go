// SPDX-License-Identifier: GPL-3.0-or-later

package matcher

import "sync"

type cachedMatcher struct {
	matcher Matcher

	mu    sync.RWMutex
	cache map[string]bool
}

// WithCache memoizes results of m. Names seen by the agent come from a small, stable set.
func WithCache(m Matcher) Matcher {
	if m == TRUE() || m == FALSE() {
		return m
	}
	return &cachedMatcher{matcher: m, cache: make(map[string]bool)}
}

func (m *cachedMatcher) Match(b []byte) bool { return m.MatchString(string(b)) }

func (m *cachedMatcher) MatchString(s string) bool {
	m.mu.RLock()
	v, ok := m.cache[s]
	m.mu.RUnlock()
	if ok {
		return v
	}

	v = m.matcher.MatchString(s)

	m.mu.Lock()
	m.cache[s] = v
	m.mu.Unlock()
	return v
}
