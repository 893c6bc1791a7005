package session

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/integrales/pkg/logger"
)

// Sweeper runs housekeeping jobs on cron schedules.
type Sweeper struct {
	cron *cron.Cron
	log  *logger.Logger
}

// NewSweeper creates a stopped sweeper.
func NewSweeper(log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("sweeper")
	}
	cronLog := cron.PrintfLogger(log)
	return &Sweeper{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		log: log,
	}
}

// Schedule adds a job. spec is a standard cron line or a descriptor such
// as "@every 1m".
func (s *Sweeper) Schedule(name, spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, func() {
		s.log.WithField("job", name).Debug("running housekeeping job")
		job()
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start runs the scheduler in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done when running jobs finish.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// Jobs returns the number of scheduled jobs.
func (s *Sweeper) Jobs() int {
	return len(s.cron.Entries())
}
