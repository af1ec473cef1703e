package server

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// scheduler runs periodic rebuilds and a one-off rebuild when the next
// scheduled blog post comes due.
type scheduler struct {
	scheduler gocron.Scheduler
	request   func(trigger string)

	mu      sync.Mutex
	dueJob  uuid.UUID
	dueTime time.Time
}

func newScheduler(request func(trigger string)) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &scheduler{scheduler: s, request: request}, nil
}

func (s *scheduler) start() {
	slog.Debug("Starting scheduler")
	s.scheduler.Start()
}

func (s *scheduler) stop() error {
	slog.Debug("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// every schedules a rebuild at a fixed interval.
func (s *scheduler) every(interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.request, TriggerSchedule),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	slog.Info("Periodic rebuild scheduled", slog.Duration("interval", interval))
	return nil
}

// dueAt replaces the pending due-post rebuild. A zero time only clears it.
func (s *scheduler) dueAt(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.Equal(s.dueTime) {
		return nil
	}
	if s.dueJob != uuid.Nil {
		if err := s.scheduler.RemoveJob(s.dueJob); err != nil {
			slog.Debug("Due-post job already gone", slog.String("job", s.dueJob.String()))
		}
		s.dueJob, s.dueTime = uuid.Nil, time.Time{}
	}
	if at.IsZero() {
		return nil
	}
	if !at.After(time.Now()) {
		go s.request(TriggerSchedule)
		return nil
	}
	job, err := s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(s.request, TriggerSchedule),
		gocron.WithName("scheduled-post"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule rebuild for due post: %w", err)
	}
	s.dueJob, s.dueTime = job.ID(), at
	slog.Info("Rebuild scheduled for next blog post", slog.Time("at", at))
	return nil
}
