// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/netdata/hostprobe/logger"
	"github.com/netdata/hostprobe/pkg/confopt"
)

type Config struct {
	Interval  confopt.Duration `yaml:"interval,omitempty" json:"interval"`
	Timeout   confopt.Duration `yaml:"timeout,omitempty" json:"timeout"`
	MaxSeries int              `yaml:"max_series,omitempty" json:"max_series"`
	// Collectors enables or disables collectors by name. Unlisted and "auto" collectors use their default.
	Collectors map[string]confopt.AutoBool `yaml:"collectors,omitempty" json:"collectors"`
}

func DefaultConfig() Config {
	return Config{
		Interval:  confopt.Duration(30 * time.Second),
		Timeout:   confopt.Duration(10 * time.Second),
		MaxSeries: DefaultMaxSeries,
	}
}

// Scheduler drives every enabled collector from one clock.
type Scheduler struct {
	*logger.Logger

	store *Store
	jobs  []*Job
	// tickEvery is the clock resolution. Tests shorten it.
	tickEvery time.Duration
}

// NewScheduler creates and initializes the enabled collectors of reg.
// A collector whose Init fails is logged and left out.
func NewScheduler(ctx context.Context, cfg Config, reg Registry, deps Deps, log *logger.Logger) *Scheduler {
	s := &Scheduler{
		Logger:    log.With("component", "stats"),
		store:     NewStore(cfg.MaxSeries),
		tickEvery: time.Second,
	}

	every := max(1, int(cfg.Interval.Duration()/time.Second))
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 || timeout > time.Duration(every)*time.Second {
		timeout = time.Duration(every) * time.Second
	}

	for _, name := range reg.Names() {
		creator := reg[name]
		if !cfg.Collectors[name].Bool(!creator.Disabled) {
			s.Debugf("collector '%s' is disabled", name)
			continue
		}

		job := NewJob(JobConfig{
			Name:        name,
			Collector:   creator.Create(deps),
			Store:       s.store,
			Logger:      log,
			UpdateEvery: every,
			Timeout:     timeout,
		})

		initCtx, cancel := context.WithTimeout(ctx, timeout)
		err := job.collector.Init(initCtx)
		cancel()
		if err != nil {
			s.Warningf("collector '%s' init failed, not scheduling it: %v", name, err)
			continue
		}
		s.jobs = append(s.jobs, job)
	}
	return s
}

func (s *Scheduler) Store() *Store { return s.store }

func (s *Scheduler) Jobs() []*Job { return s.jobs }

// Run starts the jobs and feeds them the clock until ctx is done. It returns after every job stopped.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.jobs) == 0 {
		s.Info("no collectors to run")
		return
	}
	s.Infof("running %d collectors", len(s.jobs))

	var wg conc.WaitGroup
	for _, job := range s.jobs {
		wg.Go(job.Start)
	}

	tk := time.NewTicker(s.tickEvery)
	defer tk.Stop()

	var clock int
	for {
		select {
		case <-ctx.Done():
			for _, job := range s.jobs {
				job.Stop()
			}
			wg.Wait()
			return
		case <-tk.C:
			clock++
			s.tick(clock)
		}
	}
}

func (s *Scheduler) tick(clock int) {
	for _, job := range s.jobs {
		job.Tick(clock)
	}
}

// CollectOnce runs every job once, concurrently, and waits for them.
func (s *Scheduler) CollectOnce() {
	var wg conc.WaitGroup
	for _, job := range s.jobs {
		wg.Go(job.runOnce)
	}
	wg.Wait()
}
