package web

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/library"
)

type deckView struct {
	domain.Deck
	Label string `json:"label"`
	Due   int    `json:"due"`
	Total int    `json:"total"`
}

type folderRequest struct {
	ParentID uuid.UUID `json:"parentId"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
}

type deckRequest struct {
	FolderID uuid.UUID        `json:"folderId"`
	Name     string           `json:"name"`
	Color    domain.DeckColor `json:"color"`
}

type moveRequest struct {
	DestID uuid.UUID `json:"destId"`
}

type cardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// handleGetFolders returns the whole folder tree.
func (s *Server) handleGetFolders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, s.folders.Root())
	}
}

// handlePostFolder creates a folder. A missing parent means the root.
func (s *Server) handlePostFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if req.ParentID == uuid.Nil {
			req.ParentID = s.folders.Root().ID
		}
		if req.Icon == "" {
			req.Icon = library.RootIcon
		}
		folder, err := s.folders.AddFolder(req.ParentID, req.Name, req.Icon)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusCreated, folder)
	}
}

func (s *Server) handlePatchFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "folderID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		folder, err := s.folders.Folder(id)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		req := folderRequest{Name: folder.Name, Icon: folder.Icon}
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if err := s.folders.EditFolder(id, req.Name, req.Icon); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		folder, err = s.folders.Folder(id)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, folder)
	}
}

// handleDeleteFolder removes a folder together with every deck and card under it.
func (s *Server) handleDeleteFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "folderID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if err := s.folders.DeleteFolder(id); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMoveFolder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "folderID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		var req moveRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if err := s.folders.MoveFolder(id, req.DestID); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, s.folders.Root())
	}
}

// handleGetDecks lists every deck with its label and today's due count.
func (s *Server) handleGetDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.now()
		decks := s.repo.Decks()
		views := make([]deckView, 0, len(decks))
		for _, d := range decks {
			views = append(views, deckView{
				Deck:  d,
				Label: s.folders.Label(d.ID),
				Due:   s.repo.DueCount(d.ID, now),
				Total: len(s.repo.ListByDeck(d.ID)),
			})
		}
		RespondWithJSON(w, r, http.StatusOK, views)
	}
}

func (s *Server) handlePostDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deckRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if req.FolderID == uuid.Nil {
			req.FolderID = s.folders.Root().ID
		}
		if req.Color == "" {
			req.Color = domain.Blue
		}
		deck, err := s.folders.AddDeck(req.FolderID, req.Name, req.Color)
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusCreated, deck)
	}
}

func (s *Server) handlePatchDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "deckID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		deck, ok := s.repo.Deck(id)
		if !ok {
			s.respondWithErr(w, r, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound))
			return
		}
		var req deckRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if req.Name != "" {
			deck.Name = req.Name
		}
		if req.Color != "" {
			deck.Color = req.Color
		}
		if err := s.repo.UpdateDeck(deck); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, deck)
	}
}

// handleDeleteDeck removes a deck and its cards.
func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "deckID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if err := s.folders.RemoveDeck(id); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMoveDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "deckID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		var req moveRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if err := s.folders.MoveDeck(id, req.DestID); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusOK, s.folders.Root())
	}
}

// handleGetPlayable groups the decks with cards due today by folder.
func (s *Server) handleGetPlayable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups := s.folders.PlayableDecks(s.now())
		if groups == nil {
			groups = []library.DeckGroup{}
		}
		RespondWithJSON(w, r, http.StatusOK, groups)
	}
}

func (s *Server) handleGetDeckCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.deckParam(w, r)
		if !ok {
			return
		}
		cards := s.repo.ListByDeck(id)
		if cards == nil {
			cards = []domain.Flashcard{}
		}
		RespondWithJSON(w, r, http.StatusOK, cards)
	}
}

func (s *Server) handlePostCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.deckParam(w, r)
		if !ok {
			return
		}
		var req cardRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		card := domain.NewFlashcard(req.Question, req.Answer, id, s.now())
		if err := s.repo.AddFlashcard(card); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		RespondWithJSON(w, r, http.StatusCreated, card)
	}
}

// handlePutCard edits a card's text. Its schedule is kept.
func (s *Server) handlePutCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "cardID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		card, ok := s.repo.Flashcard(id)
		if !ok {
			s.respondWithErr(w, r, fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound))
			return
		}
		var req cardRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		card.Question, card.Answer = req.Question, req.Answer
		if err := domain.Validate(card); err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if !s.repo.UpdateFlashcard(card) {
			s.respondWithErr(w, r, fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound))
			return
		}
		RespondWithJSON(w, r, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "cardID")
		if err != nil {
			s.respondWithErr(w, r, err)
			return
		}
		if !s.repo.DeleteFlashcard(id) {
			s.respondWithErr(w, r, fmt.Errorf("flashcard %s: %w", id, domain.ErrNotFound))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// deckParam resolves the deckID path parameter to an existing deck, writing
// the error response itself when it cannot.
func (s *Server) deckParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := idParam(r, "deckID")
	if err != nil {
		s.respondWithErr(w, r, err)
		return uuid.Nil, false
	}
	if _, ok := s.repo.Deck(id); !ok {
		s.respondWithErr(w, r, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound))
		return uuid.Nil, false
	}
	return id, true
}
