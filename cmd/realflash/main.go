package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/conorfennell/realflash/internal/config"
	"github.com/conorfennell/realflash/internal/library"
	"github.com/conorfennell/realflash/internal/stats"
	"github.com/conorfennell/realflash/internal/storage"
	"github.com/conorfennell/realflash/internal/streak"
	srcsync "github.com/conorfennell/realflash/internal/sync"
)

const usage = `usage: realflash <command> [flags]

commands:
  serve    run the JSON API and the hourly streak refresh
  review   review due cards in the terminal
  import   add cards to a deck from a JSON bundle or quick-entry text
  export   write a deck as a JSON bundle or quick-entry text
  sync     reconcile decks with the configured *.cards sources
  stats    print answer counters and the current streak
`

var errUsage = errors.New("unknown command")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "realflash: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs, opened from one database.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.DB
	repo    *library.Repository
	folders *library.Folders
	ledger  *stats.Ledger
	tracker *streak.Tracker
	syncer  *srcsync.Syncer
}

func openApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("Database opened successfully", "path", cfg.DB)

	repo := library.NewRepository(db, logger)
	folders := library.NewFolders(db, repo, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		repo:    repo,
		folders: folders,
		ledger:  stats.NewLedger(db, logger),
		tracker: streak.NewTracker(db, cfg.StreakThreshold, logger),
		syncer:  srcsync.New(repo, folders, cfg.SourcesDir, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	name := args[0]
	command, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w %q", errUsage, name)
	}

	fs := config.NewFlagSet("realflash " + name)
	fs.SetOutput(stderr)
	opts := commandFlags{
		decks:  fs.StringSlice("deck", nil, "Deck name or id (repeatable)"),
		format: fs.String("format", "json", "Import/export format: json or text"),
	}
	cfg, rest, err := config.Load(fs, args[1:])
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)
	slog.SetDefault(logger)

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return command(ctx, a, opts, rest, stdin, stdout)
}
