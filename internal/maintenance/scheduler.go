package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Optimizer is the database work the scheduler runs.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// Scheduler runs database maintenance on a cron schedule.
type Scheduler struct {
	db      Optimizer
	spec    string
	timeout time.Duration
	cron    *cron.Cron
}

// NewScheduler creates a scheduler for a standard cron spec or descriptor
// such as "@daily".
func NewScheduler(db Optimizer, spec string) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		db:      db,
		spec:    spec,
		timeout: time.Minute,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.runOnce))
	return s, nil
}

// Run starts the schedule in the background.
func (s *Scheduler) Run() {
	log.Info().Str("schedule", s.spec).Msg("Starting database maintenance scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped database maintenance scheduler")
}

// runOnce performs one maintenance pass. Failures are logged only.
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.db.Optimize(ctx); err != nil {
		log.Error().Err(err).Msg("Database maintenance failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Database maintenance completed")
}
