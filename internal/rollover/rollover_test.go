package rollover

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/realflash/internal/storage"
	"github.com/conorfennell/realflash/internal/streak"
)

type fixedCounts struct{ played, available int }

func (f fixedCounts) PlayedToday(time.Time) int    { return f.played }
func (f fixedCounts) AvailableToday(time.Time) int { return f.available }

func newTracker(t *testing.T) *streak.Tracker {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return streak.NewTracker(db, streak.DefaultThreshold, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRefreshAcrossDays(t *testing.T) {
	tracker := newTracker(t)
	s := New(fixedCounts{played: 4, available: 10}, tracker, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Refresh()
	s.Refresh()
	assert.Equal(t, 1, tracker.Snapshot().CurrentStreak, "hourly refreshes within a day are idempotent")

	clock = clock.Add(3 * time.Hour)
	s.Refresh()
	got := tracker.Snapshot()
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, streak.Completed, got.TodayStatus)
}

func TestRefreshLeavesNeglectedDayOpen(t *testing.T) {
	tracker := newTracker(t)
	s := New(fixedCounts{played: 5, available: 5}, tracker, time.UTC, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
	s.Refresh()

	// A refresh before any study does not spend the new day.
	s.counts = fixedCounts{played: 0, available: 8}
	s.now = func() time.Time { return time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC) }
	s.Refresh()
	assert.Equal(t, 1, tracker.Snapshot().CurrentStreak)

	s.counts = fixedCounts{played: 3, available: 8}
	s.now = func() time.Time { return time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC) }
	s.Refresh()
	assert.Equal(t, 2, tracker.Snapshot().CurrentStreak)
	assert.Equal(t, streak.Completed, tracker.Snapshot().TodayStatus)

	// Nothing qualifies on the 4th, so the 5th starts over.
	s.counts = fixedCounts{played: 0, available: 8}
	s.now = func() time.Time { return time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC) }
	s.Refresh()
	s.counts = fixedCounts{played: 0, available: 1}
	s.now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	s.Refresh()
	assert.Equal(t, 1, tracker.Snapshot().CurrentStreak)
	assert.Equal(t, streak.Maintained, tracker.Snapshot().TodayStatus)
}

func TestStartStop(t *testing.T) {
	tracker := newTracker(t)
	s := New(fixedCounts{}, tracker, time.UTC, nil)
	require.NoError(t, s.Start())
	s.Stop()
}
