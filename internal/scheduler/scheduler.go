package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler owns the two recurring sweeps: unpaid-penalty retries and
// contribution reminders. It is injected where needed and carries an explicit
// lifecycle so tests can run isolated instances.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	logger   *zap.Logger
	penalty  string
	reminder string

	mu      sync.Mutex
	started bool
}

func New(jobs *Jobs, logger *zap.Logger, penaltySchedule, reminderSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		logger:   logger,
		penalty:  penaltySchedule,
		reminder: reminderSchedule,
	}
}

// Start registers the sweeps and starts the cron loop. Calling Start twice is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	if _, err := s.cron.AddFunc(s.penalty, s.jobs.SweepUnpaidPenalties); err != nil {
		s.logger.Error("failed to schedule penalty sweep", zap.Error(err))
	} else {
		s.logger.Info("scheduled penalty sweep", zap.String("schedule", s.penalty))
	}

	if _, err := s.cron.AddFunc(s.reminder, s.jobs.SendContributionReminders); err != nil {
		s.logger.Error("failed to schedule contribution reminders", zap.Error(err))
	} else {
		s.logger.Info("scheduled contribution reminders", zap.String("schedule", s.reminder))
	}

	s.cron.Start()
}

// Stop drains the cron loop; the returned context completes when running
// sweeps have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false

	return s.cron.Stop()
}

// Started reports whether the scheduler is running.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started
}
