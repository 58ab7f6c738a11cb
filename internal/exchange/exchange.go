// Package exchange moves flashcards in and out of the library, either as full
// JSON records or as quick-entry text.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/knol"
	"github.com/conorfennell/realflash/internal/parser"
)

// Store is the part of the library repository that imports write to.
type Store interface {
	AddFlashcard(card domain.Flashcard) error
	ListByDeck(deckID uuid.UUID) []domain.Flashcard
	Deck(id uuid.UUID) (domain.Deck, bool)
}

// Bundle is the exported document.
type Bundle struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// Result counts what an import did.
type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Export writes cards as a JSON bundle, scheduling state included.
func Export(w io.Writer, cards []domain.Flashcard) error {
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Bundle{Flashcards: cards}); err != nil {
		return fmt.Errorf("export flashcards: %w", err)
	}
	return nil
}

// Import reads a bundle written by Export. Every record must validate.
func Import(r io.Reader) ([]domain.Flashcard, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode bundle: %v", domain.ErrValidation, err)
	}
	for i, c := range b.Flashcards {
		if err := domain.Validate(c); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return b.Flashcards, nil
}

// ImportInto adds records to store under fresh ids. A non-nil deckID moves
// every record into that deck; otherwise records keep their own deck. All
// scheduling fields are preserved. Nothing is added unless every record
// validates and every target deck exists.
func ImportInto(store Store, deckID uuid.UUID, records []domain.Flashcard) (int, error) {
	prepared := make([]domain.Flashcard, 0, len(records))
	for i, rec := range records {
		c := rec.Clone()
		c.ID = uuid.New()
		if deckID != uuid.Nil {
			c.DeckID = deckID
		}
		if err := domain.Validate(c); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := store.Deck(c.DeckID); !ok {
			return 0, fmt.Errorf("record %d: deck %s: %w", i, c.DeckID, domain.ErrNotFound)
		}
		prepared = append(prepared, c)
	}
	for i, c := range prepared {
		if err := store.AddFlashcard(c); err != nil {
			return i, err
		}
	}
	return len(prepared), nil
}

// ImportQuickEntry creates fresh cards in deckID from quick-entry text.
// Entries whose content already exists in the deck, or that repeat an earlier
// entry of the same text, are skipped. So are entries with a blank answer.
func ImportQuickEntry(store Store, deckID uuid.UUID, text string, now time.Time) (Result, error) {
	if err := domain.CheckTime(now); err != nil {
		return Result{}, err
	}
	if _, ok := store.Deck(deckID); !ok {
		return Result{}, fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}

	seen := make(map[string]bool)
	for _, c := range store.ListByDeck(deckID) {
		seen[knol.CardHash(c)] = true
	}

	var res Result
	for _, e := range parser.ParseString(text) {
		h := knol.Hash(e.Question, e.Answer)
		if seen[h] {
			res.Skipped++
			continue
		}
		err := store.AddFlashcard(domain.NewFlashcard(e.Question, e.Answer, deckID, now))
		if errors.Is(err, domain.ErrValidation) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}
		seen[h] = true
		res.Added++
	}
	return res, nil
}

// ExportQuickEntry writes the question and answer of each card as quick-entry text.
func ExportQuickEntry(w io.Writer, cards []domain.Flashcard) error {
	entries := make([]parser.Entry, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, parser.Entry{Question: c.Question, Answer: c.Answer})
	}
	if _, err := io.WriteString(w, parser.Format(entries)); err != nil {
		return fmt.Errorf("export quick entry: %w", err)
	}
	return nil
}
