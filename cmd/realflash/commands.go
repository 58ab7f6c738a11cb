package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/exchange"
	"github.com/conorfennell/realflash/internal/rollover"
	"github.com/conorfennell/realflash/internal/session"
	"github.com/conorfennell/realflash/internal/web"
)

type commandFlags struct {
	decks  *[]string
	format *string
}

type commandFunc func(ctx context.Context, a *app, opts commandFlags, args []string, stdin io.Reader, stdout io.Writer) error

var commands = map[string]commandFunc{
	"serve":  cmdServe,
	"review": cmdReview,
	"import": cmdImport,
	"export": cmdExport,
	"sync":   cmdSync,
	"stats":  cmdStats,
}

func cmdServe(ctx context.Context, a *app, _ commandFlags, _ []string, _ io.Reader, _ io.Writer) error {
	roll := rollover.New(a.repo, a.tracker, time.Local, a.logger)
	if err := roll.Start(); err != nil {
		return err
	}
	defer roll.Stop()

	srv := &http.Server{
		Addr: a.cfg.Listen,
		Handler: web.NewServer(web.Deps{
			Repo:    a.repo,
			Folders: a.folders,
			Ledger:  a.ledger,
			Tracker: a.tracker,
			Syncer:  a.syncer,
			Sources: a.cfg.Sources,
			Logger:  a.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", a.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// cmdReview runs one sitting over the chosen decks, or every deck, reading
// answers from stdin.
func cmdReview(ctx context.Context, a *app, opts commandFlags, _ []string, stdin io.Reader, stdout io.Writer) error {
	decks, err := a.selectDecks(*opts.decks)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(decks))
	for _, d := range decks {
		ids = append(ids, d.ID)
	}

	engine, err := session.New(a.repo, a.ledger, ids, time.Now(), session.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if engine.State() == session.Empty {
		fmt.Fprintln(stdout, "Nothing is due.")
		if next := engine.NextReviewDate(); !next.IsZero() {
			fmt.Fprintf(stdout, "Next review: %s\n", next.Local().Format("Mon 2 Jan 2006"))
		}
		return nil
	}

	in := bufio.NewScanner(stdin)
	for engine.State() == session.Active {
		if err := ctx.Err(); err != nil {
			return err
		}
		card, src, ok := engine.Current()
		if !ok {
			break
		}
		shown := time.Now()
		fmt.Fprintf(stdout, "\n[%s] %s\n", a.folders.Label(card.DeckID), card.Question)
		if src == session.Retry {
			fmt.Fprintln(stdout, "(retry)")
		}
		fmt.Fprint(stdout, "Press Enter to reveal...")
		if !in.Scan() {
			break
		}
		fmt.Fprintf(stdout, "Answer: %s\nCorrect? [y/n] ", card.Answer)
		if !in.Scan() {
			break
		}
		correct := strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.Text())), "y")

		engine.Tick(time.Since(shown))
		if _, err := engine.Answer(correct, time.Now()); err != nil {
			return err
		}
	}
	if err := in.Err(); err != nil {
		return err
	}

	sum := engine.Summary()
	fmt.Fprintf(stdout, "\nPassed %d, failed %d.\n", sum.Passed, sum.Failed)
	if sum.State == session.Completed {
		fmt.Fprintln(stdout, "Session complete.")
	}

	now := time.Now()
	st, err := a.tracker.Observe(a.repo.PlayedToday(now), a.repo.AvailableToday(now), now)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Streak: %d (%s)\n", st.CurrentStreak, st.TodayStatus)
	return nil
}

// cmdImport reads the file named by the first argument, or stdin, into the
// single --deck, creating that deck in the root folder if needed.
func cmdImport(_ context.Context, a *app, opts commandFlags, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(*opts.decks) != 1 {
		return fmt.Errorf("import needs exactly one --deck")
	}
	deck, err := a.deckOrCreate((*opts.decks)[0])
	if err != nil {
		return err
	}

	in := stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	switch *opts.format {
	case "text":
		text, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		res, err := exchange.ImportQuickEntry(a.repo, deck.ID, string(text), time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d cards into %s, skipped %d.\n", res.Added, deck.Name, res.Skipped)
	case "json":
		records, err := exchange.Import(in)
		if err != nil {
			return err
		}
		n, err := exchange.ImportInto(a.repo, deck.ID, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d cards into %s.\n", n, deck.Name)
	default:
		return fmt.Errorf("unknown format %q", *opts.format)
	}
	return nil
}

// cmdExport writes the chosen decks, or every deck, to stdout.
func cmdExport(_ context.Context, a *app, opts commandFlags, _ []string, _ io.Reader, stdout io.Writer) error {
	decks, err := a.selectDecks(*opts.decks)
	if err != nil {
		return err
	}
	var cards []domain.Flashcard
	for _, d := range decks {
		cards = append(cards, a.repo.ListByDeck(d.ID)...)
	}
	switch *opts.format {
	case "text":
		return exchange.ExportQuickEntry(stdout, cards)
	case "json":
		return exchange.Export(stdout, cards)
	default:
		return fmt.Errorf("unknown format %q", *opts.format)
	}
}

func cmdSync(ctx context.Context, a *app, _ commandFlags, _ []string, _ io.Reader, stdout io.Writer) error {
	report, err := a.syncer.Run(ctx, a.cfg.Sources, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Found %d files in %d sources: %d decks created, %d cards added, %d removed, %d errors.\n",
		report.Files, report.Sources, report.DecksCreated, report.Added, report.Removed, report.Errors)
	return nil
}

func cmdStats(_ context.Context, a *app, _ commandFlags, _ []string, _ io.Reader, stdout io.Writer) error {
	c := a.ledger.Snapshot()
	now := time.Now()
	st, err := a.tracker.Observe(a.repo.PlayedToday(now), a.repo.AvailableToday(now), now)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Correct:   %d\n", c.CorrectAnswers)
	fmt.Fprintf(stdout, "Incorrect: %d\n", c.IncorrectAnswers)
	fmt.Fprintf(stdout, "Accuracy:  %.0f%%\n", c.Accuracy()*100)
	fmt.Fprintf(stdout, "Avg time:  %s\n", c.AverageAnswerTime().Round(100*time.Millisecond))
	fmt.Fprintf(stdout, "Streak:    %d (%s)\n", st.CurrentStreak, st.TodayStatus)
	return nil
}

// findDeck resolves a deck by id or by name.
func (a *app) findDeck(ref string) (domain.Deck, bool) {
	if id, err := uuid.Parse(ref); err == nil {
		return a.repo.Deck(id)
	}
	for _, d := range a.repo.Decks() {
		if d.Name == ref {
			return d, true
		}
	}
	return domain.Deck{}, false
}

// selectDecks resolves refs, or returns every deck when refs is empty.
func (a *app) selectDecks(refs []string) ([]domain.Deck, error) {
	if len(refs) == 0 {
		return a.repo.Decks(), nil
	}
	decks := make([]domain.Deck, 0, len(refs))
	for _, ref := range refs {
		d, ok := a.findDeck(ref)
		if !ok {
			return nil, fmt.Errorf("deck %q: %w", ref, domain.ErrNotFound)
		}
		decks = append(decks, d)
	}
	return decks, nil
}

func (a *app) deckOrCreate(ref string) (domain.Deck, error) {
	if d, ok := a.findDeck(ref); ok {
		return d, nil
	}
	return a.folders.AddDeck(a.folders.Root().ID, ref, domain.Blue)
}
