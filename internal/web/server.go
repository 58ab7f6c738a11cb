// Package web exposes the library, review sessions, stats and streak as a
// JSON HTTP API.
package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/library"
	"github.com/conorfennell/realflash/internal/session"
	"github.com/conorfennell/realflash/internal/stats"
	"github.com/conorfennell/realflash/internal/streak"
	srcsync "github.com/conorfennell/realflash/internal/sync"
)

// Deps are the stores and services the server reads and writes.
type Deps struct {
	Repo    *library.Repository
	Folders *library.Folders
	Ledger  *stats.Ledger
	Tracker *streak.Tracker
	Syncer  *srcsync.Syncer
	Sources []string
	Now     func() time.Time
	Logger  *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	repo    *library.Repository
	folders *library.Folders
	ledger  *stats.Ledger
	tracker *streak.Tracker
	syncer  *srcsync.Syncer
	sources []string
	now     func() time.Time
	logger  *slog.Logger
	router  chi.Router

	// One review sitting at a time.
	mu       sync.Mutex
	session  *session.Engine
	revealed bool
}

// NewServer creates and configures a new server.
func NewServer(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &Server{
		repo:    d.Repo,
		folders: d.Folders,
		ledger:  d.Ledger,
		tracker: d.Tracker,
		syncer:  d.Syncer,
		sources: d.Sources,
		now:     d.Now,
		logger:  d.Logger.With("component", "web"),
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/folders", func(r chi.Router) {
		r.Get("/", s.handleGetFolders())
		r.Post("/", s.handlePostFolder())
		r.Patch("/{folderID}", s.handlePatchFolder())
		r.Delete("/{folderID}", s.handleDeleteFolder())
		r.Post("/{folderID}/move", s.handleMoveFolder())
	})

	s.router.Route("/decks", func(r chi.Router) {
		r.Get("/", s.handleGetDecks())
		r.Post("/", s.handlePostDeck())
		r.Patch("/{deckID}", s.handlePatchDeck())
		r.Delete("/{deckID}", s.handleDeleteDeck())
		r.Post("/{deckID}/move", s.handleMoveDeck())
		r.Get("/{deckID}/cards", s.handleGetDeckCards())
		r.Post("/{deckID}/cards", s.handlePostCard())
		r.Get("/{deckID}/export", s.handleExportDeck())
		r.Post("/{deckID}/import", s.handleImportDeck())
	})
	s.router.Get("/playable", s.handleGetPlayable())

	s.router.Route("/cards/{cardID}", func(r chi.Router) {
		r.Put("/", s.handlePutCard())
		r.Delete("/", s.handleDeleteCard())
	})

	s.router.Route("/session", func(r chi.Router) {
		r.Post("/", s.handleStartSession())
		r.Get("/", s.handleGetSession())
		r.Delete("/", s.handleEndSession())
		r.Post("/reveal", s.handleReveal())
		r.Post("/answer", s.handleAnswer())
		r.Post("/tick", s.handleTick())
	})

	s.router.Get("/stats", s.handleGetStats())
	s.router.Get("/streak", s.handleGetStreak())
	s.router.Post("/sync", s.handlePostSync())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// idParam parses a uuid path parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, validationError("invalid " + name)
	}
	return id, nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == domain.ErrValidation }
