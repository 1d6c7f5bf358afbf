// Package jobs runs the recalculation periodically on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunFunc performs one recalculation.
type RunFunc func(ctx context.Context) error

// Scheduler triggers RunFunc on a cron schedule. A run that is still in
// progress when the next one is due causes that next one to be skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	run  RunFunc
}

// NewScheduler creates a scheduler for spec in the given time zone.
// spec accepts standard five-field expressions and descriptors like "@hourly".
func NewScheduler(spec, timezone string, run RunFunc) (*Scheduler, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("loading time zone %q: %w", timezone, err)
		}
		loc = l
	}

	logger := cronLogger{logger: log.Logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, spec: spec, run: run}, nil
}

// Start registers the job and blocks until ctx is cancelled. Running jobs
// are allowed to finish before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		started := time.Now()
		log.Info().Msg("[CRON] Recalculating rewards")
		if err := s.run(ctx); err != nil {
			log.Error().Err(err).Msg("[CRON] Recalculation failed")
			return
		}
		log.Info().Dur("took", time.Since(started)).Msg("[CRON] Recalculation finished")
	})
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Time("next_run", s.Next(time.Now())).
		Msg("Scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
	return nil
}

// Next returns the next activation time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(s.cron.Location()))
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[CRON] " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("[CRON] " + msg)
}
