// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/netdata/hostprobe/logger"
)

// Base is embedded by every collector. It records samples into the shared store and keeps
// the previous raw value per key for the rate and percentage modes.
type Base struct {
	*logger.Logger

	store *Store

	mu   sync.Mutex
	prev map[string]rawSample
}

type rawSample struct {
	value float64
	ts    time.Time
}

func (b *Base) GetBase() *Base { return b }

// Store returns the store the collector writes to.
func (b *Base) Store() *Store { return b.store }

// Attach points the collector at store and log, dropping previous baselines.
func (b *Base) Attach(store *Store, log *logger.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store = store
	b.Logger = log
	b.prev = make(map[string]rawSample)
}

// BuildAbsolute records value as is.
func (b *Base) BuildAbsolute(key string, value float64, ts time.Time) error {
	return b.store.Append(key, Sample{Timestamp: ts, Value: value})
}

// BuildRate records the per second change of a counter.
// The first sample of a key, and a counter that went backwards, record 0.
func (b *Base) BuildRate(key string, value float64, ts time.Time) error {
	return b.buildDelta(key, value, ts, func(dv float64, dt time.Duration) float64 {
		return dv / dt.Seconds()
	})
}

// BuildTimePercentage records the share of wall time a time counter (in milliseconds) advanced,
// clamped to 0..100. divisor spreads the counter over several processors; values below 1 mean 1.
func (b *Base) BuildTimePercentage(key string, valueMs float64, ts time.Time, divisor int) error {
	if divisor < 1 {
		divisor = 1
	}
	return b.buildDelta(key, valueMs/float64(divisor), ts, func(dv float64, dt time.Duration) float64 {
		return clamp(dv*100/float64(dt.Milliseconds()), 0, 100)
	})
}

func (b *Base) buildDelta(key string, value float64, ts time.Time, calc func(float64, time.Duration) float64) error {
	b.mu.Lock()
	prev, ok := b.prev[key]
	dt := ts.Sub(prev.ts)
	if ok && dt <= 0 {
		b.mu.Unlock()
		if dt < 0 {
			return fmt.Errorf("series '%s': %w", key, ErrOutOfOrder)
		}
		return nil
	}
	b.prev[key] = rawSample{value: value, ts: ts}
	b.mu.Unlock()

	var v float64
	if ok && value >= prev.value && dt.Milliseconds() > 0 {
		v = calc(value-prev.value, dt)
	}
	return b.store.Append(key, Sample{Timestamp: ts, Value: v})
}

// Forget drops the baseline of key, e.g. when the object it samples went away.
func (b *Base) Forget(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.prev, key)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
