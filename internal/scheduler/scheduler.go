package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of background work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs jobs on 6-field cron schedules (seconds granularity)
// and supports out-of-schedule invocation for operator endpoints.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.entries)).Msg("Scheduler started")
}

// Stop halts scheduling and blocks until in-flight jobs drain.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job under a cron schedule such as
// "0 30 18 * * 1-5" (18:30 on weekdays). Registering a second job with
// the same name is an error.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("register job %q: %w", name, err)
	}
	s.entries[name] = id

	s.log.Info().
		Str("job", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// RunNow executes the job synchronously, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job on demand")
	return s.execute(job)
}

func (s *Scheduler) execute(job Job) error {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Job starting")

	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Job failed")
		return err
	}

	s.log.Debug().
		Str("job", job.Name()).
		Dur("elapsed", time.Since(start)).
		Msg("Job completed")
	return nil
}
