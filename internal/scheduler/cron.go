package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ytwatch/internal/controllers"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	sessions *controllers.SessionManager
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(sessions *controllers.SessionManager, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		logger:   logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every 5 minutes: reap player sessions whose browser went away
	_, err := s.cron.AddFunc("*/5 * * * *", func() {
		s.runSessionSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add session sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runSessionSweep executes the idle session sweep job
func (s *Scheduler) runSessionSweep() {
	s.logger.Debug("Running idle session sweep")

	if reaped := s.sessions.SweepIdle(); reaped > 0 {
		s.logger.WithField("count", reaped).Info("Idle sessions reaped")
	}
}
