// Package streak tracks consecutive study days.
package streak

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/storage"
)

const streakKey = "streak"

// DefaultThreshold is how many cards count as a day of study, and how few
// available cards excuse a day without study.
const DefaultThreshold = 3

// Status describes how today counts towards the streak.
type Status string

const (
	None       Status = "none"
	Maintained Status = "maintained"
	Completed  Status = "completed"
)

// State is the persisted streak.
type State struct {
	CurrentStreak  int       `json:"currentStreak"`
	LastPlayedDate time.Time `json:"lastPlayedDate"`
	TodayStatus    Status    `json:"todayStatus"`
}

// Tracker applies at most one streak transition per calendar day.
type Tracker struct {
	mu        sync.Mutex
	docs      storage.Documents
	logger    *slog.Logger
	threshold int
	state     State
}

// NewTracker loads the streak from docs. threshold values below 1 fall back to
// DefaultThreshold.
func NewTracker(docs storage.Documents, threshold int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	t := &Tracker{docs: docs, threshold: threshold, logger: logger.With("component", "streak")}
	t.state, _ = storage.LoadJSON[State](docs, streakKey, t.logger)
	switch {
	case t.state.CurrentStreak < 0:
		t.logger.Warn("Negative streak in stored state, resetting", "streak", t.state.CurrentStreak)
		t.state = State{}
	case t.state.TodayStatus != None && t.state.TodayStatus != Maintained && t.state.TodayStatus != Completed:
		t.state.TodayStatus = None
	}
	return t
}

// Update evaluates today from the number of cards played and the number that
// were available to play.
//
// The first call on a new calendar day moves the streak: enough cards played
// completes the day, too few cards available maintains it, anything else
// resets it to zero. A whole day with no transition before today also breaks
// the streak. Further calls on the same day only refresh TodayStatus.
func (t *Tracker) Update(playedToday, availableToday int, now time.Time) (State, error) {
	if err := domain.CheckTime(now); err != nil {
		return State{}, fmt.Errorf("update streak: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commit(t.classify(playedToday, availableToday), playedToday, availableToday, now), nil
}

// Observe is Update for callers that report counts throughout the day. A new
// day is committed only once it qualifies; until then the returned state is a
// preview and nothing is stored. A day that never qualifies is settled by the
// gap rule on the next committed day.
func (t *Tracker) Observe(playedToday, availableToday int, now time.Time) (State, error) {
	if err := domain.CheckTime(now); err != nil {
		return State{}, fmt.Errorf("observe streak: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	status := t.classify(playedToday, availableToday)
	if status != None || t.committedOn(now) {
		return t.commit(status, playedToday, availableToday, now), nil
	}
	preview := t.state
	preview.TodayStatus = None
	if t.brokenBy(now) {
		preview.CurrentStreak = 0
	}
	return preview, nil
}

// commit applies status to the day of now. Callers hold t.mu.
func (t *Tracker) commit(status Status, played, available int, now time.Time) State {
	if t.committedOn(now) {
		if t.state.TodayStatus != status {
			t.state.TodayStatus = status
			storage.SaveJSON(t.docs, streakKey, t.state, t.logger)
		}
		return t.state
	}

	switch {
	case status == None:
		t.state.CurrentStreak = 0
	case t.brokenBy(now):
		t.state.CurrentStreak = 1
	default:
		t.state.CurrentStreak++
	}
	t.state.TodayStatus = status
	t.state.LastPlayedDate = domain.StartOfDay(now)
	storage.SaveJSON(t.docs, streakKey, t.state, t.logger)

	t.logger.Info("Streak updated",
		"streak", t.state.CurrentStreak,
		"status", status,
		"played", played,
		"available", available,
	)
	return t.state
}

func (t *Tracker) committedOn(now time.Time) bool {
	return !t.state.LastPlayedDate.IsZero() && domain.SameDay(t.state.LastPlayedDate, now)
}

// brokenBy reports whether at least one calendar day passed between the last
// committed day and now.
func (t *Tracker) brokenBy(now time.Time) bool {
	if t.state.LastPlayedDate.IsZero() {
		return false
	}
	yesterday := domain.StartOfDay(now).AddDate(0, 0, -1)
	return domain.StartOfDay(t.state.LastPlayedDate.In(now.Location())).Before(yesterday)
}

func (t *Tracker) classify(played, available int) Status {
	switch {
	case played >= t.threshold:
		return Completed
	case available < t.threshold:
		return Maintained
	default:
		return None
	}
}

// Snapshot returns the current streak state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
