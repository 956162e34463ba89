// SPDX-License-Identifier: GPL-3.0-or-later

// Package stats samples the host on a fixed schedule and keeps bounded in-memory series.
package stats

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrOutOfOrder is returned when a sample is older than the last sample of its series.
var ErrOutOfOrder = errors.New("sample is older than the last one")

const DefaultMaxSeries = 120

type Sample struct {
	Timestamp time.Time `yaml:"ts" json:"ts"`
	Value     float64   `yaml:"value" json:"value"`
}

// Store holds one bounded series per key. The oldest samples are evicted first.
type Store struct {
	maxLen int

	mu     sync.RWMutex
	series map[string]*series
}

type series struct {
	mu      sync.Mutex
	samples []Sample
}

func NewStore(maxLen int) *Store {
	if maxLen <= 0 {
		maxLen = DefaultMaxSeries
	}
	return &Store{maxLen: maxLen, series: make(map[string]*series)}
}

// Append adds a sample to the series of key.
func (s *Store) Append(key string, sample Sample) error {
	sr := s.getOrCreate(key)

	sr.mu.Lock()
	defer sr.mu.Unlock()

	if n := len(sr.samples); n > 0 && sample.Timestamp.Before(sr.samples[n-1].Timestamp) {
		return fmt.Errorf("series '%s': %w", key, ErrOutOfOrder)
	}
	if len(sr.samples) == s.maxLen {
		copy(sr.samples, sr.samples[1:])
		sr.samples = sr.samples[:len(sr.samples)-1]
	}
	sr.samples = append(sr.samples, sample)
	return nil
}

// Series returns a copy of the samples of key, oldest first.
func (s *Store) Series(key string) []Sample {
	sr := s.get(key)
	if sr == nil {
		return nil
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return slices.Clone(sr.samples)
}

func (s *Store) Last(key string) (Sample, bool) {
	sr := s.get(key)
	if sr == nil {
		return Sample{}, false
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if len(sr.samples) == 0 {
		return Sample{}, false
	}
	return sr.samples[len(sr.samples)-1], true
}

// Keys returns the series keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.series))
	for k := range s.series {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SeriesWithPrefix returns copies of the series whose keys start with prefix, for charting a
// family such as "ds.busy." together. With top > 0 only the top series are kept, ranked by the
// mean of their last avgFrame samples (the last sample when avgFrame < 2), ties broken by key.
// Empty series are left out.
func (s *Store) SeriesWithPrefix(prefix string, top, avgFrame int) map[string][]Sample {
	type ranked struct {
		key     string
		score   float64
		samples []Sample
	}

	var found []ranked
	for _, key := range s.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		samples := s.Series(key)
		if len(samples) == 0 {
			continue
		}
		found = append(found, ranked{key: key, score: tailMean(samples, avgFrame), samples: samples})
	}

	if top > 0 && len(found) > top {
		slices.SortStableFunc(found, func(a, b ranked) int {
			return cmp.Compare(b.score, a.score)
		})
		found = found[:top]
	}

	out := make(map[string][]Sample, len(found))
	for _, r := range found {
		out[r.key] = r.samples
	}
	return out
}

func tailMean(samples []Sample, frame int) float64 {
	frame = max(1, min(frame, len(samples)))
	var sum float64
	for _, smp := range samples[len(samples)-frame:] {
		sum += smp.Value
	}
	return sum / float64(frame)
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = make(map[string]*series)
}

func (s *Store) get(key string) *series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series[key]
}

func (s *Store) getOrCreate(key string) *series {
	if sr := s.get(key); sr != nil {
		return sr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.series[key]
	if !ok {
		sr = &series{samples: make([]Sample, 0, min(s.maxLen, 16))}
		s.series[key] = sr
	}
	return sr
}
