// Package rollover refreshes the streak on a timer so that a day with nothing
// to study is still counted without any user activity.
package rollover

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/conorfennell/realflash/internal/streak"
)

// Counter reports today's played and available card counts.
type Counter interface {
	PlayedToday(now time.Time) int
	AvailableToday(now time.Time) int
}

// Scheduler runs the streak refresh every hour.
type Scheduler struct {
	scheduler *gocron.Scheduler
	counts    Counter
	tracker   *streak.Tracker
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a scheduler that uses loc for its clock.
func New(counts Counter, tracker *streak.Tracker, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		counts:    counts,
		tracker:   tracker,
		now:       func() time.Time { return time.Now().In(loc) },
		logger:    logger.With("component", "rollover"),
	}
}

// Start schedules the hourly refresh, runs it once immediately and returns.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.Refresh); err != nil {
		return fmt.Errorf("schedule streak refresh: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the scheduled refresh.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Refresh feeds today's counts to the streak tracker.
func (s *Scheduler) Refresh() {
	now := s.now()
	state, err := s.tracker.Observe(s.counts.PlayedToday(now), s.counts.AvailableToday(now), now)
	if err != nil {
		s.logger.Error("Streak refresh failed", "error", err)
		return
	}
	s.logger.Debug("Streak refreshed", "streak", state.CurrentStreak, "status", state.TodayStatus)
}
