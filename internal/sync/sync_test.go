package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/library"
	"github.com/conorfennell/realflash/internal/storage"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	now        = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
)

func newSyncer(t *testing.T) (*Syncer, *library.Repository, *library.Folders) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := library.NewRepository(db, testLogger)
	folders := library.NewFolders(db, repo, testLogger)
	return New(repo, folders, t.TempDir(), testLogger), repo, folders
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func deckNamed(t *testing.T, repo *library.Repository, name string) domain.Deck {
	t.Helper()
	for _, d := range repo.Decks() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("deck %q not found", name)
	return domain.Deck{}
}

func TestRunLocalSource(t *testing.T) {
	s, repo, folders := newSyncer(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spanish.cards"), "+uno::one\n+dos::two\n")
	writeFile(t, filepath.Join(dir, "nested", "german.cards"), "+eins::one\n")
	writeFile(t, filepath.Join(dir, "README.md"), "+ignored::entry")

	report, err := s.Run(context.Background(), []string{dir}, now)
	require.NoError(t, err)
	assert.Equal(t, Report{Sources: 1, Files: 2, DecksCreated: 2, Added: 3}, report)

	spanish := deckNamed(t, repo, "spanish")
	assert.Len(t, repo.ListByDeck(spanish.ID), 2)
	assert.Equal(t, sourceDeckColor, spanish.Color)
	assert.Contains(t, folders.Root().DeckIDs, spanish.ID)
}

func TestRunKeepsScheduleAndRemovesOrphans(t *testing.T) {
	s, repo, _ := newSyncer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.cards")
	writeFile(t, path, "+uno::one+dos::two")

	_, err := s.Run(context.Background(), []string{dir}, now)
	require.NoError(t, err)

	deck := deckNamed(t, repo, "vocab")
	var uno domain.Flashcard
	for _, c := range repo.ListByDeck(deck.ID) {
		if c.Question == "uno" {
			uno = c
		}
	}
	uno.Interval = 8
	uno.CorrectReviews = 3
	require.True(t, repo.UpdateFlashcard(uno))

	writeFile(t, path, "+UNO::one+tres::three")
	report, err := s.Run(context.Background(), []string{dir}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 0, report.DecksCreated)

	cards := repo.ListByDeck(deck.ID)
	require.Len(t, cards, 2)
	kept, ok := repo.Flashcard(uno.ID)
	require.True(t, ok)
	assert.Equal(t, 8.0, kept.Interval)
	assert.Equal(t, 3, kept.CorrectReviews)
}

func TestRunGitSource(t *testing.T) {
	s, repo, _ := newSyncer(t)
	var fetched []string
	s.fetch = func(_ context.Context, url, localPath string, _ io.Writer, _ *slog.Logger) error {
		fetched = append(fetched, url)
		writeFile(t, filepath.Join(localPath, "remote.cards"), "+q::a")
		return nil
	}

	report, err := s.Run(context.Background(), []string{"https://example.com/owner/decks.git"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/owner/decks.git"}, fetched)
	assert.Equal(t, 1, report.Added)
	assert.Len(t, repo.ListByDeck(deckNamed(t, repo, "remote").ID), 1)
}

func TestRunContinuesPastFailingSource(t *testing.T) {
	s, repo, _ := newSyncer(t)
	s.fetch = func(context.Context, string, string, io.Writer, *slog.Logger) error {
		return errors.New("network down")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "local.cards"), "+q::a")

	report, err := s.Run(context.Background(), []string{
		"https://example.com/owner/decks.git",
		filepath.Join(dir, "missing"),
		dir,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Sources)
	assert.Equal(t, 2, report.Errors)
	assert.Equal(t, 1, report.Added)
	assert.Len(t, repo.Flashcards(), 1)
}

func TestRunRejectsZeroTime(t *testing.T) {
	s, _, _ := newSyncer(t)
	_, err := s.Run(context.Background(), []string{t.TempDir()}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidTime)
}

func TestDeckName(t *testing.T) {
	assert.Equal(t, "spanish", DeckName("/decks/spanish.cards"))
	assert.Equal(t, "verbs.v2", DeckName("verbs.v2.cards"))
}
