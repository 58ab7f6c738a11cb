package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is a single question/answer pair together with its review schedule.
type Flashcard struct {
	ID               uuid.UUID       `json:"id" validate:"required"`
	Question         string          `json:"question" validate:"required"`
	Answer           string          `json:"answer" validate:"required"`
	DeckID           uuid.UUID       `json:"deckId" validate:"required"`
	Interval         float64         `json:"interval" validate:"gte=1"`
	NextReviewDate   time.Time       `json:"nextReviewDate"`
	CorrectReviews   int             `json:"correctReviews" validate:"gte=0"`
	IncorrectReviews int             `json:"incorrectReviews" validate:"gte=0"`
	ReviewTimes      []time.Duration `json:"reviewTimes"`
	LastReviewDate   time.Time       `json:"lastReviewDate"`
}

// NewFlashcard returns a card with a fresh id that is due immediately.
func NewFlashcard(question, answer string, deckID uuid.UUID, now time.Time) Flashcard {
	return Flashcard{
		ID:             uuid.New(),
		Question:       question,
		Answer:         answer,
		DeckID:         deckID,
		Interval:       1,
		NextReviewDate: now,
	}
}

// Clone returns a copy that shares no slices with c.
func (c Flashcard) Clone() Flashcard {
	if c.ReviewTimes != nil {
		times := make([]time.Duration, len(c.ReviewTimes))
		copy(times, c.ReviewTimes)
		c.ReviewTimes = times
	}
	return c
}

// DueOn reports whether the card is scheduled on or before the calendar day of now.
func (c Flashcard) DueOn(now time.Time) bool {
	return !StartOfDay(c.NextReviewDate.In(now.Location())).After(StartOfDay(now))
}

// ReviewLog records a single answer given during a session.
type ReviewLog struct {
	CardID    uuid.UUID
	Timestamp time.Time
	Correct   bool
	Elapsed   time.Duration
}
