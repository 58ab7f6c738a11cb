package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/session"
	"github.com/conorfennell/realflash/internal/srs"
)

var errNoSession = fmt.Errorf("no review session: %w", domain.ErrNotFound)

type startRequest struct {
	DeckIDs []uuid.UUID `json:"deckIds"`
}

type answerRequest struct {
	Correct bool `json:"correct"`
}

type tickRequest struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

type cardView struct {
	ID       uuid.UUID `json:"id"`
	DeckID   uuid.UUID `json:"deckId"`
	Label    string    `json:"label"`
	Question string    `json:"question"`
	Answer   string    `json:"answer,omitempty"`
	Source   string    `json:"source"`
}

type progressView struct {
	DeckID   uuid.UUID `json:"deckId"`
	Total    int       `json:"total"`
	Answered int       `json:"answered"`
}

type sessionView struct {
	State            string         `json:"state"`
	Passed           int            `json:"passed"`
	Failed           int            `json:"failed"`
	RemainingPrimary int            `json:"remainingPrimary"`
	RemainingRetry   int            `json:"remainingRetry"`
	ElapsedMs        int64          `json:"elapsedMs"`
	NextReviewDate   *time.Time     `json:"nextReviewDate,omitempty"`
	Card             *cardView      `json:"card,omitempty"`
	Progress         []progressView `json:"progress"`
}

type answerView struct {
	Answered      domain.Flashcard `json:"answered"`
	AverageTimeMs int64            `json:"averageTimeMs"`
	Session       sessionView      `json:"session"`
}

type statsView struct {
	CorrectAnswers      int     `json:"correctAnswers"`
	IncorrectAnswers    int     `json:"incorrectAnswers"`
	TotalAnswers        int     `json:"totalAnswers"`
	TotalAnswerTimeMs   int64   `json:"totalAnswerTimeMs"`
	AverageAnswerTimeMs int64   `json:"averageAnswerTimeMs"`
	Accuracy            float64 `json:"accuracy"`
}

// handleStartSession replaces any running session with a new one over the
// given decks.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if len(req.DeckIDs) == 0 {
			s.respondWithErr(w, r, validationError("at least one deck is required"))
			return
		}
		for _, id := range req.DeckIDs {
			if _, ok := s.repo.Deck(id); !ok {
				s.respondWithErr(w, r, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound))
				return
			}
		}

		engine, err := session.New(s.repo, s.ledger, req.DeckIDs, s.now(), session.WithLogger(s.logger))
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.session = engine
		s.revealed = false
		RespondWithJSON(w, r, http.StatusCreated, s.viewLocked())
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			s.respondWithErr(w, r, errNoSession)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, s.viewLocked())
	}
}

func (s *Server) handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			s.respondWithErr(w, r, errNoSession)
			return
		}
		s.session = nil
		s.revealed = false
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleReveal shows the answer side of the current card.
func (s *Server) handleReveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			s.respondWithErr(w, r, errNoSession)
			return
		}
		if _, _, ok := s.session.Current(); !ok {
			s.respondWithErr(w, r, session.ErrNoActiveCard)
			return
		}
		s.revealed = true
		RespondWithJSON(w, r, http.StatusOK, s.viewLocked())
	}
}

// handleAnswer grades the current card, then reports today's counts to the
// streak tracker.
func (s *Server) handleAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			s.respondWithErr(w, r, errNoSession)
			return
		}
		now := s.now()
		updated, err := s.session.Answer(req.Correct, now)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		s.revealed = false

		if _, err := s.tracker.Observe(s.repo.PlayedToday(now), s.repo.AvailableToday(now), now); err != nil {
			s.logger.Warn("Streak update after answer failed", "error", err)
		}

		RespondWithJSON(w, r, http.StatusOK, answerView{
			Answered:      updated,
			AverageTimeMs: srs.AverageReviewTime(updated).Milliseconds(),
			Session:       s.viewLocked(),
		})
	}
}

// handleTick adds client-measured thinking time to the current card.
func (s *Server) handleTick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tickRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if req.ElapsedMs < 0 {
			s.respondWithErr(w, r, validationError("elapsedMs must not be negative"))
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			s.respondWithErr(w, r, errNoSession)
			return
		}
		s.session.Tick(time.Duration(req.ElapsedMs) * time.Millisecond)
		RespondWithJSON(w, r, http.StatusOK, s.viewLocked())
	}
}

func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.ledger.Snapshot()
		RespondWithJSON(w, r, http.StatusOK, statsView{
			CorrectAnswers:      c.CorrectAnswers,
			IncorrectAnswers:    c.IncorrectAnswers,
			TotalAnswers:        c.TotalAnswers,
			TotalAnswerTimeMs:   c.TotalAnswerTime.Milliseconds(),
			AverageAnswerTimeMs: c.AverageAnswerTime().Milliseconds(),
			Accuracy:            c.Accuracy(),
		})
	}
}

// handleGetStreak re-evaluates today before reporting the streak.
func (s *Server) handleGetStreak() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.now()
		state, err := s.tracker.Observe(s.repo.PlayedToday(now), s.repo.AvailableToday(now), now)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, state)
	}
}

// viewLocked renders the running session. Callers hold s.mu.
func (s *Server) viewLocked() sessionView {
	e := s.session
	// Current skips vanished cards and may complete the sitting, so it runs
	// before the summary is taken.
	card, src, ok := e.Current()
	sum := e.Summary()
	v := sessionView{
		State:            sum.State.String(),
		Passed:           sum.Passed,
		Failed:           sum.Failed,
		RemainingPrimary: sum.RemainingPrimary,
		RemainingRetry:   sum.RemainingRetry,
		ElapsedMs:        e.Elapsed().Milliseconds(),
		Progress:         []progressView{},
	}
	if next := e.NextReviewDate(); !next.IsZero() {
		v.NextReviewDate = &next
	}
	if ok {
		v.Card = &cardView{
			ID:       card.ID,
			DeckID:   card.DeckID,
			Label:    s.folders.Label(card.DeckID),
			Question: card.Question,
			Source:   src.String(),
		}
		if s.revealed {
			v.Card.Answer = card.Answer
		}
	}
	for _, p := range e.Progress() {
		v.Progress = append(v.Progress, progressView{DeckID: p.DeckID, Total: p.Total, Answered: p.Answered})
	}
	return v
}
