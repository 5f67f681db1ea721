// Package scheduler runs the bot's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"shi-bot/internal/model"
)

// SessionSweeper drops purchase sessions older than ttl.
type SessionSweeper interface {
	Sweep(ttl time.Duration) int
}

// StatsSource provides economy aggregates.
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// Specs holds cron expressions with a leading seconds field.
// An empty spec disables its job.
type Specs struct {
	SessionSweep string
	StatsReport  string
}

// Scheduler wraps a cron runner with the session sweep and stats jobs.
type Scheduler struct {
	cron       *cron.Cron
	sessions   SessionSweeper
	stats      StatsSource
	sessionTTL time.Duration
	specs      Specs
}

// New creates a Scheduler. Jobs are registered by Start.
func New(sessions SessionSweeper, stats StatsSource, sessionTTL time.Duration, specs Specs) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		sessions:   sessions,
		stats:      stats,
		sessionTTL: sessionTTL,
		specs:      specs,
	}
}

// Start registers the jobs and starts the runner in the background.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"session_sweep", s.specs.SessionSweep, s.sweepSessions},
		{"stats_report", s.specs.StatsReport, s.reportStats},
	}

	for _, j := range jobs {
		if j.spec == "" {
			log.Info().Str("job", j.name).Msg("Scheduled job disabled")
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", j.spec, j.name, err)
		}
	}

	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) sweepSessions() {
	if n := s.sessions.Sweep(s.sessionTTL); n > 0 {
		log.Info().Int("removed", n).Dur("ttl", s.sessionTTL).Msg("Expired purchase sessions")
	}
}

func (s *Scheduler) reportStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := s.stats.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect economy stats")
		return
	}

	log.Info().
		Int64("users", stats.Users).
		Str("total_shi", stats.TotalShi.String()).
		Int64("transactions", stats.Transactions).
		Msg("Economy stats")
}
