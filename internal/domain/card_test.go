package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewFlashcard(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	deckID := uuid.New()
	card := NewFlashcard("Q", "A", deckID, now)

	if card.ID == uuid.Nil {
		t.Error("Expected a generated id")
	}
	if card.Interval != 1 {
		t.Errorf("Expected interval 1, got %v", card.Interval)
	}
	if !card.NextReviewDate.Equal(now) {
		t.Errorf("Expected new card to be due now, got %v", card.NextReviewDate)
	}
	if !card.LastReviewDate.IsZero() {
		t.Errorf("Expected zero last review date, got %v", card.LastReviewDate)
	}
	if err := Validate(card); err != nil {
		t.Errorf("Expected new card to validate, got %v", err)
	}
}

func TestCloneDoesNotShareReviewTimes(t *testing.T) {
	card := Flashcard{ReviewTimes: []time.Duration{time.Second}}
	clone := card.Clone()
	clone.ReviewTimes[0] = time.Minute

	if card.ReviewTimes[0] != time.Second {
		t.Errorf("Expected original review times untouched, got %v", card.ReviewTimes)
	}
}

func TestDueOn(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	testCases := []struct {
		name string
		next time.Time
		due  bool
	}{
		{"earlier today", now.Add(-time.Hour), true},
		{"later today", now.Add(10 * time.Hour), true},
		{"yesterday", now.AddDate(0, 0, -1), true},
		{"tomorrow", now.AddDate(0, 0, 1), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := Flashcard{NextReviewDate: tc.next}
			if got := card.DueOn(now); got != tc.due {
				t.Errorf("Expected DueOn=%v, got %v", tc.due, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	deckID := uuid.New()
	testCases := []struct {
		name    string
		record  any
		wantErr bool
	}{
		{"valid card", NewFlashcard("Q", "A", deckID, time.Now()), false},
		{"missing question", Flashcard{ID: uuid.New(), Answer: "A", DeckID: deckID, Interval: 1}, true},
		{"interval below one", Flashcard{ID: uuid.New(), Question: "Q", Answer: "A", DeckID: deckID, Interval: 0.5}, true},
		{"missing deck", Flashcard{ID: uuid.New(), Question: "Q", Answer: "A", Interval: 1}, true},
		{"valid deck", NewDeck("Spanish", Teal), false},
		{"unknown color", Deck{ID: uuid.New(), Name: "Spanish", Color: "mauve"}, true},
		{"unnamed folder", Folder{ID: uuid.New()}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.record)
			if tc.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	if !SameDay(late.UTC(), late) {
		t.Error("Expected the same instant to be on the same day regardless of zone")
	}
	if SameDay(late, late.Add(time.Hour)) {
		t.Error("Expected crossing midnight to change the day")
	}
	if CheckTime(time.Time{}) != ErrInvalidTime {
		t.Error("Expected zero time to be rejected")
	}
}
