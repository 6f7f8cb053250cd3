// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RunFunc is one pipeline execution, invoked on each tick.
type RunFunc func(ctx context.Context) error

// Scheduler automates repeated pipeline executions. Supported cadences:
// daily at a fixed time, or every N days.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
}

// New creates a scheduler around the given run function.
func New(run RunFunc) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		run:  run,
	}
}

// Daily schedules the pipeline every day at the given "HH:MM" time.
func (s *Scheduler) Daily(at string) error {
	hour, minute, err := parseClock(at)
	if err != nil {
		return err
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("failed to schedule daily run: %w", err)
	}
	log.Info().Str("at", at).Msg("scheduled daily pipeline run")
	return nil
}

// EveryNDays schedules the pipeline once every n days.
func (s *Scheduler) EveryNDays(n int) error {
	if n <= 0 {
		return fmt.Errorf("interval days must be positive, got %d", n)
	}
	spec := fmt.Sprintf("@every %dh", n*24)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("failed to schedule interval run: %w", err)
	}
	log.Info().Int("days", n).Msg("scheduled interval pipeline run")
	return nil
}

// Start runs the scheduler until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	// Let an in-flight run finish before returning.
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Minute):
		log.Warn().Msg("gave up waiting for in-flight run to finish")
	}
}

func (s *Scheduler) tick() {
	if err := s.run(context.Background()); err != nil {
		log.Error().Err(err).Msg("scheduled pipeline run failed")
	}
}

func parseClock(at string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(at), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", at)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", at)
	}
	return hour, minute, nil
}
