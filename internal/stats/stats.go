// Package stats keeps the all-time answer counters.
package stats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/realflash/internal/storage"
)

const statsKey = "stats"

// Counters is the persisted form of the ledger.
type Counters struct {
	CorrectAnswers   int           `json:"correctAnswers"`
	IncorrectAnswers int           `json:"incorrectAnswers"`
	TotalAnswerTime  time.Duration `json:"totalAnswerTime"`
	TotalAnswers     int           `json:"totalAnswers"`
}

// AverageAnswerTime is TotalAnswerTime / TotalAnswers, or 0 with no answers.
func (c Counters) AverageAnswerTime() time.Duration {
	if c.TotalAnswers <= 0 {
		return 0
	}
	return c.TotalAnswerTime / time.Duration(c.TotalAnswers)
}

// Accuracy is the share of answers that were correct, or 0 with no answers.
func (c Counters) Accuracy() float64 {
	if c.TotalAnswers <= 0 {
		return 0
	}
	return float64(c.CorrectAnswers) / float64(c.TotalAnswers)
}

// Ledger accumulates answer counters and persists them after every answer.
// Counters only ever grow.
type Ledger struct {
	mu       sync.Mutex
	docs     storage.Documents
	logger   *slog.Logger
	counters Counters
}

// NewLedger loads the counters from docs. Missing or malformed data starts at zero.
func NewLedger(docs storage.Documents, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{docs: docs, logger: logger.With("component", "stats")}
	l.counters, _ = storage.LoadJSON[Counters](docs, statsKey, l.logger)
	if l.counters.CorrectAnswers < 0 || l.counters.IncorrectAnswers < 0 ||
		l.counters.TotalAnswers < 0 || l.counters.TotalAnswerTime < 0 {
		l.logger.Warn("Negative counters in stored stats, resetting")
		l.counters = Counters{}
	}
	return l
}

// AddCorrectAnswer records one correct answer that took elapsed.
func (l *Ledger) AddCorrectAnswer(elapsed time.Duration) {
	l.record(true, elapsed)
}

// AddIncorrectAnswer records one incorrect answer that took elapsed.
func (l *Ledger) AddIncorrectAnswer(elapsed time.Duration) {
	l.record(false, elapsed)
}

func (l *Ledger) record(correct bool, elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if correct {
		l.counters.CorrectAnswers++
	} else {
		l.counters.IncorrectAnswers++
	}
	l.counters.TotalAnswerTime += elapsed
	l.counters.TotalAnswers++
	storage.SaveJSON(l.docs, statsKey, l.counters, l.logger)
}

// Snapshot returns the current counters.
func (l *Ledger) Snapshot() Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters
}

// AverageAnswerTime is the mean time per recorded answer.
func (l *Ledger) AverageAnswerTime() time.Duration {
	return l.Snapshot().AverageAnswerTime()
}
