package web

import (
	"io"
	"net/http"

	"github.com/conorfennell/realflash/internal/exchange"
)

// maxImportBytes caps the size of an uploaded deck.
const maxImportBytes = 4 << 20

// handleExportDeck downloads a deck as a JSON bundle, or as quick-entry text
// with ?format=text.
func (s *Server) handleExportDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.deckParam(w, r)
		if !ok {
			return
		}
		cards := s.repo.ListByDeck(id)

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if err := exchange.ExportQuickEntry(w, cards); err != nil {
				s.logger.Error("Failed to write quick-entry export", "deck_id", id, "error", err)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := exchange.Export(w, cards); err != nil {
			s.logger.Error("Failed to write export", "deck_id", id, "error", err)
		}
	}
}

// handleImportDeck adds cards to a deck from a JSON bundle, or from
// quick-entry text with ?format=text.
func (s *Server) handleImportDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.deckParam(w, r)
		if !ok {
			return
		}
		body := http.MaxBytesReader(w, r.Body, maxImportBytes)

		if r.URL.Query().Get("format") == "text" {
			text, err := io.ReadAll(body)
			if err != nil {
				s.respondWithErr(w, r, validationError("could not read body"))
				return
			}
			res, err := exchange.ImportQuickEntry(s.repo, id, string(text), s.now())
			if err != nil {
				s.respondWithErr(w, r, err)
				return
			}
			RespondWithJSON(w, r, http.StatusOK, res)
			return
		}

		records, err := exchange.Import(body)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		added, err := exchange.ImportInto(s.repo, id, records)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, exchange.Result{Added: added})
	}
}

// handlePostSync triggers a manual sync of the configured sources.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.syncer == nil {
			RespondWithError(w, r, http.StatusServiceUnavailable, "sync is not configured")
			return
		}
		// Run in the foreground to make the caller wait.
		report, err := s.syncer.Run(r.Context(), s.sources, s.now())
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, report)
	}
}
