// Package library owns the canonical flashcard and deck records and the folder
// tree that references decks by id.
package library

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/storage"
)

const (
	flashcardsKey = "flashcards"
	decksKey      = "decks"
)

// Repository holds every flashcard and deck in memory and writes the whole
// collection back to storage after each mutation.
type Repository struct {
	mu     sync.RWMutex
	docs   storage.Documents
	logger *slog.Logger
	cards  []domain.Flashcard
	decks  []domain.Deck
}

// NewRepository loads flashcards and decks from docs. Missing or malformed
// documents start out empty.
func NewRepository(docs storage.Documents, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		docs:   docs,
		logger: logger.With("component", "repository"),
	}
	r.cards, _ = storage.LoadJSON[[]domain.Flashcard](docs, flashcardsKey, r.logger)
	r.decks, _ = storage.LoadJSON[[]domain.Deck](docs, decksKey, r.logger)
	r.logger.Debug("Repository loaded", "flashcards", len(r.cards), "decks", len(r.decks))
	return r
}

// AddFlashcard validates and stores a new card.
func (r *Repository) AddFlashcard(card domain.Flashcard) error {
	if err := domain.Validate(card); err != nil {
		return fmt.Errorf("add flashcard: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, card.Clone())
	r.saveFlashcards()
	return nil
}

// DeleteFlashcard removes the card with the given id and reports whether it existed.
func (r *Repository) DeleteFlashcard(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.removeCards(func(c domain.Flashcard) bool { return c.ID == id })
	if removed > 0 {
		r.saveFlashcards()
	}
	return removed > 0
}

// UpdateFlashcard replaces the stored card that has card.ID. An unknown id is
// a silent no-op and reports false.
func (r *Repository) UpdateFlashcard(card domain.Flashcard) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cards {
		if r.cards[i].ID == card.ID {
			r.cards[i] = card.Clone()
			r.saveFlashcards()
			return true
		}
	}
	return false
}

// Flashcard returns a copy of the card with the given id.
func (r *Repository) Flashcard(id uuid.UUID) (domain.Flashcard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return domain.Flashcard{}, false
}

// Flashcards returns copies of every card in insertion order.
func (r *Repository) Flashcards() []domain.Flashcard {
	return r.filter(func(domain.Flashcard) bool { return true })
}

// ListByDeck returns the cards that belong to deckID.
func (r *Repository) ListByDeck(deckID uuid.UUID) []domain.Flashcard {
	return r.filter(func(c domain.Flashcard) bool { return c.DeckID == deckID })
}

// DueForDeck returns the cards of deckID whose next review is at or before now.
func (r *Repository) DueForDeck(deckID uuid.UUID, now time.Time) []domain.Flashcard {
	return r.filter(func(c domain.Flashcard) bool {
		return c.DeckID == deckID && !c.NextReviewDate.After(now)
	})
}

// DueCount counts the cards of deckID that are due on or before today.
func (r *Repository) DueCount(deckID uuid.UUID, now time.Time) int {
	return r.count(func(c domain.Flashcard) bool { return c.DeckID == deckID && c.DueOn(now) })
}

// PlayedToday counts the cards last reviewed on the calendar day of now.
func (r *Repository) PlayedToday(now time.Time) int {
	return r.count(func(c domain.Flashcard) bool {
		return !c.LastReviewDate.IsZero() && domain.SameDay(c.LastReviewDate, now)
	})
}

// AvailableToday counts the cards that were already due at the start of today.
func (r *Repository) AvailableToday(now time.Time) int {
	today := domain.StartOfDay(now)
	return r.count(func(c domain.Flashcard) bool { return !c.NextReviewDate.After(today) })
}

// AddDeck validates and stores a new deck.
func (r *Repository) AddDeck(deck domain.Deck) error {
	if err := domain.Validate(deck); err != nil {
		return fmt.Errorf("add deck: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks = append(r.decks, deck)
	r.saveDecks()
	return nil
}

// UpdateDeck replaces the name and color of an existing deck.
func (r *Repository) UpdateDeck(deck domain.Deck) error {
	if err := domain.Validate(deck); err != nil {
		return fmt.Errorf("update deck: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.decks {
		if r.decks[i].ID == deck.ID {
			r.decks[i] = deck
			r.saveDecks()
			return nil
		}
	}
	return fmt.Errorf("deck %s: %w", deck.ID, domain.ErrNotFound)
}

// DeleteDeck removes a deck and every flashcard that belongs to it. It returns
// the number of flashcards removed.
func (r *Repository) DeleteDeck(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.decks {
		if r.decks[i].ID == id {
			r.decks = append(r.decks[:i], r.decks[i+1:]...)
			break
		}
	}
	removed := r.removeCards(func(c domain.Flashcard) bool { return c.DeckID == id })
	r.saveDecks()
	r.saveFlashcards()
	r.logger.Info("Deck deleted", "deck_id", id, "flashcards_removed", removed)
	return removed
}

// Deck returns the deck with the given id.
func (r *Repository) Deck(id uuid.UUID) (domain.Deck, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.decks {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Deck{}, false
}

// Decks returns every deck in insertion order.
func (r *Repository) Decks() []domain.Deck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Deck, len(r.decks))
	copy(out, r.decks)
	return out
}

func (r *Repository) filter(keep func(domain.Flashcard) bool) []domain.Flashcard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Flashcard
	for _, c := range r.cards {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (r *Repository) count(match func(domain.Flashcard) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.cards {
		if match(c) {
			n++
		}
	}
	return n
}

// removeCards drops matching cards in place. Callers hold the write lock.
func (r *Repository) removeCards(match func(domain.Flashcard) bool) int {
	kept := r.cards[:0]
	for _, c := range r.cards {
		if !match(c) {
			kept = append(kept, c)
		}
	}
	removed := len(r.cards) - len(kept)
	clear(r.cards[len(kept):])
	r.cards = kept
	return removed
}

func (r *Repository) saveFlashcards() {
	if r.cards == nil {
		r.cards = []domain.Flashcard{}
	}
	storage.SaveJSON(r.docs, flashcardsKey, r.cards, r.logger)
}

func (r *Repository) saveDecks() {
	if r.decks == nil {
		r.decks = []domain.Deck{}
	}
	storage.SaveJSON(r.docs, decksKey, r.decks, r.logger)
}
