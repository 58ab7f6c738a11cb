// Package session runs one review sitting over a set of decks: a shuffled
// queue of cards due today followed by a retry queue of cards missed during
// the sitting.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/srs"
)

// ErrNoActiveCard is returned when answering a session that has nothing left to show.
var ErrNoActiveCard = errors.New("no active card in session")

// CardStore is the part of the library repository a session reads and writes.
type CardStore interface {
	ListByDeck(deckID uuid.UUID) []domain.Flashcard
	Flashcard(id uuid.UUID) (domain.Flashcard, bool)
	UpdateFlashcard(card domain.Flashcard) bool
}

// AnswerRecorder receives every answer exactly once.
type AnswerRecorder interface {
	AddCorrectAnswer(elapsed time.Duration)
	AddIncorrectAnswer(elapsed time.Duration)
}

// State is the lifecycle position of a session.
type State int

const (
	// Empty means nothing was due when the session started.
	Empty State = iota
	// Active means a card is waiting for an answer.
	Active
	// Completed means every due card, including retries, has been answered.
	Completed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Active:
		return "active"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Source tells which queue supplied the current card.
type Source int

const (
	Primary Source = iota
	Retry
)

func (s Source) String() string {
	if s == Retry {
		return "retry"
	}
	return "primary"
}

// Summary is the outcome of the sitting so far.
type Summary struct {
	State            State
	Passed           int
	Failed           int
	RemainingPrimary int
	RemainingRetry   int
}

// DeckProgress counts, for one deck, the due cards of the sitting and how many
// of them have been answered at least once.
type DeckProgress struct {
	DeckID   uuid.UUID
	Total    int
	Answered int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand fixes the random source used to shuffle the primary queue.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is a single review sitting. It holds card ids only and re-reads the
// card from the CardStore before every use. An Engine is not safe for
// concurrent use.
type Engine struct {
	cards    CardStore
	recorder AnswerRecorder
	logger   *slog.Logger
	rng      *rand.Rand

	deckIDs    []uuid.UUID
	primary    []uuid.UUID
	pos        int
	retry      []uuid.UUID
	deckOf     map[uuid.UUID]uuid.UUID
	answered   map[uuid.UUID]bool
	log        []domain.ReviewLog
	elapsed    time.Duration
	nextReview time.Time
	passed     int
	failed     int
	state      State
}

// New starts a session over deckIDs. Cards scheduled on or before the calendar
// day of now are shuffled into the primary queue.
func New(cards CardStore, recorder AnswerRecorder, deckIDs []uuid.UUID, now time.Time, opts ...Option) (*Engine, error) {
	if err := domain.CheckTime(now); err != nil {
		return nil, err
	}
	e := &Engine{
		cards:    cards,
		recorder: recorder,
		logger:   slog.Default(),
		deckIDs:  slices.Clone(deckIDs),
		deckOf:   make(map[uuid.UUID]uuid.UUID),
		answered: make(map[uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.logger = e.logger.With("component", "session")

	seen := make(map[uuid.UUID]bool)
	for _, deckID := range e.deckIDs {
		if seen[deckID] {
			continue
		}
		seen[deckID] = true
		for _, c := range cards.ListByDeck(deckID) {
			if c.DueOn(now) {
				e.primary = append(e.primary, c.ID)
				e.deckOf[c.ID] = c.DeckID
			} else if e.nextReview.IsZero() || c.NextReviewDate.Before(e.nextReview) {
				e.nextReview = c.NextReviewDate
			}
		}
	}
	e.rng.Shuffle(len(e.primary), func(i, j int) {
		e.primary[i], e.primary[j] = e.primary[j], e.primary[i]
	})

	e.state = Active
	if len(e.primary) == 0 {
		e.state = Empty
	}
	e.logger.Info("Session started", "decks", len(e.deckIDs), "due", len(e.primary), "state", e.state)
	return e, nil
}

// State reports where the session is in its lifecycle.
func (e *Engine) State() State {
	return e.state
}

// NextReviewDate is the earliest upcoming review among the selected decks'
// cards that were not due when the session started. It is zero when there is none.
func (e *Engine) NextReviewDate() time.Time {
	return e.nextReview
}

// Current returns a fresh copy of the card to show and the queue it came from.
// Cards deleted from the store since the session started are skipped.
func (e *Engine) Current() (domain.Flashcard, Source, bool) {
	for e.state == Active {
		id, src := e.head()
		card, ok := e.cards.Flashcard(id)
		if ok {
			return card, src, true
		}
		e.logger.Warn("Card vanished during session, skipping", "card_id", id)
		e.advance(id, src)
		e.finishIfDone()
	}
	return domain.Flashcard{}, Primary, false
}

// Tick adds d to the active card's elapsed time.
func (e *Engine) Tick(d time.Duration) {
	if e.state == Active && d > 0 {
		e.elapsed += d
	}
}

// Elapsed is the time spent on the active card so far.
func (e *Engine) Elapsed() time.Duration {
	return e.elapsed
}

// Answer records an outcome for the current card: it reschedules and persists
// the card, reports the answer to the recorder and moves the queues on.
//
// A card missed from the primary queue joins the tail of the retry queue. A
// card answered from the retry queue always leaves the head; if it is missed
// again it is appended to the tail once more, so the sitting only completes
// when every missed card has been answered correctly.
func (e *Engine) Answer(correct bool, now time.Time) (domain.Flashcard, error) {
	if err := domain.CheckTime(now); err != nil {
		return domain.Flashcard{}, err
	}
	card, src, ok := e.Current()
	if !ok {
		return domain.Flashcard{}, ErrNoActiveCard
	}

	elapsed := e.elapsed
	updated := srs.Schedule(card, correct, elapsed, now)
	if !e.cards.UpdateFlashcard(updated) {
		e.logger.Warn("Answered card no longer stored", "card_id", card.ID)
	}
	if correct {
		e.recorder.AddCorrectAnswer(elapsed)
		e.passed++
	} else {
		e.recorder.AddIncorrectAnswer(elapsed)
		e.failed++
	}
	e.answered[card.ID] = true
	e.log = append(e.log, domain.ReviewLog{CardID: card.ID, Timestamp: now, Correct: correct, Elapsed: elapsed})

	e.advance(card.ID, src)
	if !correct {
		e.enqueueRetry(card.ID)
	}
	e.elapsed = 0
	e.finishIfDone()

	e.logger.Debug("Answer recorded",
		"card_id", card.ID,
		"correct", correct,
		"source", src,
		"elapsed", elapsed,
		"interval", updated.Interval,
	)
	return updated, nil
}

// Summary reports pass/fail counts for the sitting and what is left.
func (e *Engine) Summary() Summary {
	return Summary{
		State:            e.state,
		Passed:           e.passed,
		Failed:           e.failed,
		RemainingPrimary: len(e.primary) - e.pos,
		RemainingRetry:   len(e.retry),
	}
}

// Progress reports, per selected deck in selection order, how many of the
// sitting's due cards have been answered at least once.
func (e *Engine) Progress() []DeckProgress {
	index := make(map[uuid.UUID]int)
	var out []DeckProgress
	for _, deckID := range e.deckIDs {
		if _, dup := index[deckID]; dup {
			continue
		}
		index[deckID] = len(out)
		out = append(out, DeckProgress{DeckID: deckID})
	}
	for _, id := range e.primary {
		p := &out[index[e.deckOf[id]]]
		p.Total++
		if e.answered[id] {
			p.Answered++
		}
	}
	return out
}

// History returns the answers given so far, oldest first.
func (e *Engine) History() []domain.ReviewLog {
	return slices.Clone(e.log)
}

func (e *Engine) head() (uuid.UUID, Source) {
	if e.pos < len(e.primary) {
		return e.primary[e.pos], Primary
	}
	return e.retry[0], Retry
}

func (e *Engine) advance(id uuid.UUID, src Source) {
	if src == Primary {
		e.pos++
		return
	}
	if len(e.retry) > 0 && e.retry[0] == id {
		e.retry = e.retry[1:]
	}
}

func (e *Engine) enqueueRetry(id uuid.UUID) {
	if !slices.Contains(e.retry, id) {
		e.retry = append(e.retry, id)
	}
}

func (e *Engine) finishIfDone() {
	if e.state == Active && e.pos >= len(e.primary) && len(e.retry) == 0 {
		e.state = Completed
		e.logger.Info("Session completed", "passed", e.passed, "failed", e.failed)
	}
}
