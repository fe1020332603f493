package daemon

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fenilsonani/reclaim/internal/config"
)

// stopTimeout bounds how long Stop waits for running jobs
const stopTimeout = 10 * time.Second

// Scheduler runs one job per configured scan schedule
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]scheduledJob
	jobsMu  sync.RWMutex
	running bool
	run     func(config.ScanSchedule)
	log     *slog.Logger
}

type scheduledJob struct {
	id       cron.EntryID
	schedule cron.Schedule
}

// NewScheduler creates a scheduler that calls run for every firing
func NewScheduler(run func(config.ScanSchedule), log *slog.Logger) *Scheduler {
	c := cron.New(
		cron.WithParser(config.ScheduleParser),
		// Recover sits inside SkipIfStillRunning so a panic still releases the run slot
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger), cron.Recover(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron: c,
		jobs: make(map[string]scheduledJob),
		run:  run,
		log:  log,
	}
}

// AddJob registers a schedule. Names must be unique.
func (s *Scheduler) AddJob(schedule config.ScanSchedule) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if _, exists := s.jobs[schedule.Name]; exists {
		return fmt.Errorf("job %s already exists", schedule.Name)
	}

	parsed, err := config.ScheduleParser.Parse(schedule.Schedule)
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", schedule.Name, err)
	}
	id := s.cron.Schedule(parsed, cron.FuncJob(func() {
		s.log.Info("running scheduled scan", "job", schedule.Name)
		s.run(schedule)
	}))
	s.jobs[schedule.Name] = scheduledJob{id: id, schedule: parsed}

	s.log.Info("job added", "job", schedule.Name, "schedule", schedule.Schedule, "next", s.nextRun(s.jobs[schedule.Name]))
	return nil
}

// RemoveJob unregisters a schedule
func (s *Scheduler) RemoveJob(name string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(job.id)
	delete(s.jobs, name)
	return nil
}

// Start begins firing jobs
func (s *Scheduler) Start() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops firing jobs and waits for running ones to return
func (s *Scheduler) Stop() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(stopTimeout):
		s.log.Warn("scheduler stop timed out")
	}

	s.running = false
	s.log.Info("scheduler stopped")
}

// NextRun returns the next firing time of a job
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, exists := s.jobs[name]
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", name)
	}
	return s.nextRun(job), nil
}

// nextRun falls back to the parsed schedule until cron has started and
// filled in the entry.
func (s *Scheduler) nextRun(job scheduledJob) time.Time {
	if next := s.cron.Entry(job.id).Next; !next.IsZero() {
		return next
	}
	return job.schedule.Next(time.Now())
}

// JobInfo describes a registered job
type JobInfo struct {
	Name    string
	NextRun time.Time
	PrevRun time.Time
}

// ListJobs returns every registered job
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		jobs = append(jobs, JobInfo{
			Name:    name,
			NextRun: s.nextRun(job),
			PrevRun: s.cron.Entry(job.id).Prev,
		})
	}
	slices.SortFunc(jobs, func(a, b JobInfo) int {
		if c := a.NextRun.Compare(b.NextRun); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return jobs
}
