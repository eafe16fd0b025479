// Package scheduler runs the periodic maintenance jobs: retention purge and
// remote sync.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type JobFunc func(ctx context.Context)

type job struct {
	id  cron.EntryID
	run func()
}

// Scheduler wraps a cron instance. Overlapping runs of the same job are
// skipped and a panicking job does not take the process down.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	// ctx is handed to every job and cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]job
}

func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(
				cron.SkipIfStillRunning(cl),
				cron.Recover(cl),
			),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]job),
	}
}

// Add registers fn under name with a standard 5-field spec or a descriptor
// such as "@daily" or "@every 15m".
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	run := func() {
		start := time.Now()
		fn(s.ctx)
		s.log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
	}

	id, err := s.cron.AddFunc(spec, run)
	if err != nil {
		return fmt.Errorf("invalid spec %q for job %q: %w", spec, name, err)
	}
	s.jobs[name] = job{id: id, run: run}
	return nil
}

// RunNow runs a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	j.run()
	return nil
}

// Next returns the next activation of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(j.id).Next, true
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels the jobs' context and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("timeout waiting for scheduled jobs to complete")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
