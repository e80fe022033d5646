// Package scheduler runs the background sweeps that move competitions out of
// their sales window and flag stalled draws.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/exp/slog"

	"github.com/prizepool/draw-engine-backend/internal/config"
	"github.com/prizepool/draw-engine-backend/internal/services"
)

// Scheduler owns the recurring jobs of the draw engine.
type Scheduler struct {
	cron               *gocron.Scheduler
	cfg                *config.Config
	competitionService services.CompetitionService
	drawService        services.DrawService
}

// New creates a scheduler. Jobs run in UTC since competition sales windows
// are stored in UTC.
func New(cfg *config.Config, competitionService services.CompetitionService, drawService services.DrawService) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SetMaxConcurrentJobs(1, gocron.RescheduleMode)

	return &Scheduler{
		cron:               s,
		cfg:                cfg,
		competitionService: competitionService,
		drawService:        drawService,
	}
}

// Start registers the jobs and begins running them asynchronously.
func (s *Scheduler) Start() {
	interval := s.cfg.Scheduler.CloseIntervalSeconds
	if interval <= 0 {
		interval = 60
	}

	s.cron.Every(interval).Seconds().Do(s.closeExpired)
	s.cron.Every(interval).Seconds().Do(s.warnSnapshotBacklog)
	slog.Info("Scheduler started", "closeIntervalSeconds", interval)

	s.cron.StartAsync()
}

// Stop halts the scheduler. Running jobs finish first.
func (s *Scheduler) Stop() {
	slog.Info("Scheduler stopping")
	s.cron.Stop()
}

// closeExpired sweeps ACTIVE competitions whose sales window has passed.
func (s *Scheduler) closeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.competitionService.CloseExpired(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("Expired competition sweep failed", "error", err)
		return
	}
	if closed > 0 {
		slog.Info("Closed expired competitions", "count", closed)
	}
}

// warnSnapshotBacklog flags CLOSED competitions that have sat without a
// snapshot past the configured grace period. Taking the snapshot stays a
// deliberate operator action; this only makes the backlog visible.
func (s *Scheduler) warnSnapshotBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	grace := s.cfg.Scheduler.SnapshotGraceSeconds
	if grace <= 0 {
		grace = 900
	}
	cutoff := time.Now().UTC().Add(-time.Duration(grace) * time.Second)

	stalled, err := s.drawService.SnapshotBacklog(ctx, cutoff)
	if err != nil {
		slog.Error("Snapshot backlog sweep failed", "error", err)
		return
	}
	for _, competition := range stalled {
		slog.Warn("Closed competition has no draw snapshot",
			"competitionId", competition.ID,
			"salesCloseAt", competition.SalesCloseAt,
			"graceSeconds", grace)
	}
}
