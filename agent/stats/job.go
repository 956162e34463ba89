// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/netdata/hostprobe/logger"
)

const (
	penaltyStep = 5
	maxPenalty  = 600
)

type JobConfig struct {
	Name      string
	Collector Collector
	Store     *Store
	Logger    *logger.Logger
	// UpdateEvery is the collection interval in scheduler ticks (seconds).
	UpdateEvery int
	// Timeout bounds one collection run.
	Timeout time.Duration
}

// Job runs one collector on the scheduler clock.
type Job struct {
	*logger.Logger

	name        string
	collector   Collector
	updateEvery int
	timeout     time.Duration

	tick chan int
	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	retries  int
	panicked bool
	skipped  int
	runStart time.Time
	lastErr  error
}

func NewJob(cfg JobConfig) *Job {
	if cfg.UpdateEvery <= 0 {
		cfg.UpdateEvery = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(cfg.UpdateEvery) * time.Second
	}

	j := &Job{
		Logger:      cfg.Logger.With(slog.String("collector", cfg.Name)),
		name:        cfg.Name,
		collector:   cfg.Collector,
		updateEvery: cfg.UpdateEvery,
		timeout:     cfg.Timeout,
		tick:        make(chan int),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	cfg.Collector.GetBase().Attach(cfg.Store, j.Logger)
	return j
}

func (j *Job) Name() string { return j.name }

// Tick hands the clock to the job. It never blocks: a tick that arrives while the previous
// run is still in flight is dropped.
func (j *Job) Tick(clock int) {
	select {
	case j.tick <- clock:
	default:
		if clock%(j.updateEvery+j.penalty()) != 0 {
			return
		}
		j.mu.Lock()
		j.skipped++
		skipped, started := j.skipped, j.runStart
		j.mu.Unlock()

		switch {
		case started.IsZero():
			j.Debug("skipping collection: job is not running yet")
		case skipped >= 2:
			j.Warningf("skipping collection: previous run is still in progress for %s (skipped %d times in a row)", time.Since(started), skipped)
		default:
			j.Infof("skipping collection: previous run is still in progress for %s", time.Since(started))
		}
	}
}

// Start collects once, then follows the clock until Stop.
func (j *Job) Start() {
	j.Infof("started, collection interval %ds", j.updateEvery)
	defer func() { j.Info("stopped"); close(j.done) }()

	select {
	case <-j.stop:
		return
	default:
		j.runOnce()
	}

	for {
		select {
		case <-j.stop:
			return
		case clock := <-j.tick:
			if clock%(j.updateEvery+j.penalty()) == 0 {
				j.runOnce()
			}
		}
	}
}

// Stop stops the job loop and waits for the current run to finish.
func (j *Job) Stop() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
}

// LastError returns the error of the last run, nil after a successful one.
func (j *Job) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Skipped returns the ticks dropped since the last run started.
func (j *Job) Skipped() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.skipped
}

func (j *Job) Panicked() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.panicked
}

func (j *Job) runOnce() {
	j.mu.Lock()
	if j.skipped > 0 {
		j.Infof("collection resumed (skipped %d times)", j.skipped)
	}
	j.skipped = 0
	j.runStart = time.Now()
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.collect(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastErr = err
	if err != nil {
		j.retries++
		j.Warningf("collection failed (%d in a row): %v", j.retries, err)
		return
	}
	j.retries = 0
}

func (j *Job) collect(ctx context.Context) (err error) {
	j.mu.Lock()
	j.panicked = false
	j.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			j.mu.Lock()
			j.panicked = true
			j.mu.Unlock()
			j.Errorf("PANIC: %v", r)
			if logger.Level.Enabled(slog.LevelDebug) {
				j.Errorf("STACK: %s", debug.Stack())
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.collector.Collect(ctx)
}

// penalty stretches the interval after consecutive failures.
func (j *Job) penalty() int {
	j.mu.Lock()
	retries := j.retries
	j.mu.Unlock()

	v := retries / penaltyStep * penaltyStep * j.updateEvery / 2
	if v > maxPenalty {
		return maxPenalty
	}
	return v
}
