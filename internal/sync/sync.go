// Package sync keeps decks in line with *.cards files from local directories
// or git repositories. Each file becomes a deck named after the file.
package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/gitsource"
	"github.com/conorfennell/realflash/internal/knol"
	"github.com/conorfennell/realflash/internal/library"
	"github.com/conorfennell/realflash/internal/parser"
)

// FileExt is the suffix of quick-entry deck files.
const FileExt = ".cards"

const sourceDeckColor = domain.Teal

// FetchFunc brings a git checkout at localPath up to date with url.
type FetchFunc func(ctx context.Context, url, localPath string, progress io.Writer, logger *slog.Logger) error

// Report summarises one run.
type Report struct {
	Sources      int `json:"sources"`
	Files        int `json:"files"`
	DecksCreated int `json:"decksCreated"`
	Added        int `json:"added"`
	Removed      int `json:"removed"`
	Errors       int `json:"errors"`
}

// Syncer reconciles sources into the library.
type Syncer struct {
	repo     *library.Repository
	folders  *library.Folders
	reposDir string
	fetch    FetchFunc
	logger   *slog.Logger
}

// New returns a Syncer that checks git sources out under reposDir.
func New(repo *library.Repository, folders *library.Folders, reposDir string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		repo:     repo,
		folders:  folders,
		reposDir: reposDir,
		fetch:    gitsource.Sync,
		logger:   logger.With("component", "sync"),
	}
}

// Run iterates over all sources and reconciles them. A failing source is
// logged and counted; the others still run.
func (s *Syncer) Run(ctx context.Context, sources []string, now time.Time) (Report, error) {
	if err := domain.CheckTime(now); err != nil {
		return Report{}, err
	}
	var report Report
	if len(sources) == 0 {
		s.logger.Info("No sources configured. Add one with --source <path/or/url.git>")
		return report, nil
	}

	s.logger.Info("Starting sync process for all sources...", "sources", len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Sources++

		dir := source
		if gitsource.IsGitURL(source) {
			localRepoPath, err := gitsource.LocalPath(s.reposDir, source)
			if err != nil {
				s.logger.Error("Error determining local path for git repo", "url", source, "error", err)
				report.Errors++
				continue
			}
			if err := s.fetch(ctx, source, localRepoPath, nil, s.logger); err != nil {
				s.logger.Error("Error syncing git repo", "url", source, "error", err)
				report.Errors++
				continue
			}
			dir = localRepoPath
		}

		if err := s.reconcileDir(dir, now, &report); err != nil {
			s.logger.Error("Error walking directory", "path", dir, "error", err)
			report.Errors++
		}
	}

	s.logger.Info("Sync process complete.",
		"files", report.Files,
		"decks_created", report.DecksCreated,
		"added", report.Added,
		"removed", report.Removed,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *Syncer) reconcileDir(dir string, now time.Time, report *Report) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), FileExt) {
			return nil
		}
		report.Files++
		if err := s.reconcileFile(path, now, report); err != nil {
			s.logger.Warn("Failed to reconcile file", "path", path, "error", err)
			report.Errors++
		}
		return nil
	})
}

func (s *Syncer) reconcileFile(path string, now time.Time, report *Report) error {
	entries, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	name := DeckName(path)
	deck, created, err := s.deckFor(name)
	if err != nil {
		return err
	}
	if created {
		report.DecksCreated++
	}

	existing := make(map[string]bool)
	for _, c := range s.repo.ListByDeck(deck.ID) {
		existing[knol.CardHash(c)] = true
	}

	found := make(map[string]bool, len(entries))
	for _, e := range entries {
		h := knol.Hash(e.Question, e.Answer)
		if found[h] {
			continue
		}
		found[h] = true
		if existing[h] {
			continue
		}
		if err := s.repo.AddFlashcard(domain.NewFlashcard(e.Question, e.Answer, deck.ID, now)); err != nil {
			s.logger.Warn("Skipping entry", "path", path, "question", e.Question, "error", err)
			continue
		}
		s.logger.Debug("New card found, inserting", "deck", name, "hash", h)
		report.Added++
	}

	for _, c := range s.repo.ListByDeck(deck.ID) {
		if h := knol.CardHash(c); !found[h] {
			s.logger.Info("Orphaned card, deleting", "deck", name, "hash", h)
			if s.repo.DeleteFlashcard(c.ID) {
				report.Removed++
			}
		}
	}
	return nil
}

// deckFor finds the deck called name, creating it in the root folder when missing.
func (s *Syncer) deckFor(name string) (domain.Deck, bool, error) {
	for _, d := range s.repo.Decks() {
		if d.Name == name {
			return d, false, nil
		}
	}
	d, err := s.folders.AddDeck(s.folders.Root().ID, name, sourceDeckColor)
	if err != nil {
		return domain.Deck{}, false, fmt.Errorf("create deck %q: %w", name, err)
	}
	s.logger.Info("Created deck for source file", "deck", name, "deck_id", d.ID)
	return d, true, nil
}

// DeckName is the deck a *.cards file feeds: its base name without extension.
func DeckName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
