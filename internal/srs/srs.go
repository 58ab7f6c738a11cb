package srs

import (
	"time"

	"github.com/conorfennell/realflash/internal/domain"
)

// MinInterval is the shortest interval a card can be scheduled with, in days.
const MinInterval = 1.0

// Schedule applies a review outcome to a card and returns the updated copy.
//
// A correct answer doubles the interval and pushes the next review out by the
// whole number of days in the new interval. An incorrect answer resets the
// interval to MinInterval; a card reset to MinInterval is due again at now so it
// can be retried in the same sitting.
func Schedule(card domain.Flashcard, correct bool, elapsed time.Duration, now time.Time) domain.Flashcard {
	next := card.Clone()
	if next.Interval < MinInterval {
		next.Interval = MinInterval
	}

	if correct {
		next.Interval *= 2
		next.CorrectReviews++
		next.NextReviewDate = NextDueDate(now, next.Interval)
	} else {
		next.Interval = MinInterval
		next.IncorrectReviews++
		next.NextReviewDate = now
	}

	next.LastReviewDate = now
	next.ReviewTimes = append(next.ReviewTimes, elapsed)
	return next
}

// NextDueDate adds the interval, truncated to whole calendar days, to now.
func NextDueDate(now time.Time, interval float64) time.Time {
	return now.AddDate(0, 0, int(interval))
}

// AverageReviewTime is the mean of the card's recorded answer durations.
func AverageReviewTime(card domain.Flashcard) time.Duration {
	if len(card.ReviewTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range card.ReviewTimes {
		total += d
	}
	return total / time.Duration(len(card.ReviewTimes))
}
