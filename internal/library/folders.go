package library

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/storage"
)

const foldersKey = "folders"

// Root folder defaults for a fresh store.
const (
	RootName = "File Manager"
	RootIcon = "folder"
)

// Folders is the folder tree. It references decks by id; deck records and
// their cards are owned by the Repository, so removing a deck from the tree
// deletes it there as well.
type Folders struct {
	mu     sync.RWMutex
	docs   storage.Documents
	repo   *Repository
	logger *slog.Logger
	root   domain.Folder
}

// DeckGroup is a folder together with the decks in it that have cards due.
type DeckGroup struct {
	FolderID   uuid.UUID `json:"folderId"`
	FolderName string    `json:"folderName"`
	Decks      []DueDeck `json:"decks"`
}

// DueDeck is a deck and its number of cards due today.
type DueDeck struct {
	domain.Deck
	Due int `json:"due"`
}

// NewFolders loads the tree from docs, creating the root folder when none is
// stored. Decks present in the repository but missing from the tree are
// attached to the root, and references to unknown decks are dropped.
func NewFolders(docs storage.Documents, repo *Repository, logger *slog.Logger) *Folders {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Folders{
		docs:   docs,
		repo:   repo,
		logger: logger.With("component", "folders"),
	}
	root, ok := storage.LoadJSON[domain.Folder](docs, foldersKey, f.logger)
	if !ok || root.ID == uuid.Nil {
		root = domain.NewFolder(RootName, RootIcon)
	}
	f.root = root
	if f.reconcile() || !ok {
		f.save()
	}
	return f
}

func (f *Folders) reconcile() bool {
	known := make(map[uuid.UUID]bool)
	for _, d := range f.repo.Decks() {
		known[d.ID] = true
	}
	changed := false
	seen := make(map[uuid.UUID]bool)
	walk(&f.root, func(folder *domain.Folder) bool {
		kept := folder.DeckIDs[:0]
		for _, id := range folder.DeckIDs {
			if known[id] && !seen[id] {
				kept = append(kept, id)
				seen[id] = true
			} else {
				changed = true
			}
		}
		folder.DeckIDs = kept
		return true
	})
	for _, d := range f.repo.Decks() {
		if !seen[d.ID] {
			f.root.DeckIDs = append(f.root.DeckIDs, d.ID)
			changed = true
		}
	}
	if changed {
		f.logger.Info("Folder tree reconciled with decks")
	}
	return changed
}

// Root returns a deep copy of the whole tree.
func (f *Folders) Root() domain.Folder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneFolder(f.root)
}

// Folder returns a deep copy of the folder with the given id.
func (f *Folders) Folder(id uuid.UUID) (domain.Folder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	folder := find(&f.root, id)
	if folder == nil {
		return domain.Folder{}, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return cloneFolder(*folder), nil
}

// AddFolder creates a folder as the last child of parentID.
func (f *Folders) AddFolder(parentID uuid.UUID, name, icon string) (domain.Folder, error) {
	folder := domain.NewFolder(name, icon)
	if err := domain.Validate(folder); err != nil {
		return domain.Folder{}, fmt.Errorf("add folder: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := find(&f.root, parentID)
	if parent == nil {
		return domain.Folder{}, fmt.Errorf("parent folder %s: %w", parentID, domain.ErrNotFound)
	}
	parent.Subfolders = append(parent.Subfolders, folder)
	f.save()
	return folder, nil
}

// EditFolder renames a folder and changes its icon.
func (f *Folders) EditFolder(id uuid.UUID, name, icon string) error {
	if name == "" {
		return fmt.Errorf("edit folder: %w: name is required", domain.ErrValidation)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	folder := find(&f.root, id)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	folder.Name = name
	folder.Icon = icon
	f.save()
	return nil
}

// DeleteFolder removes a folder and its subtree. Every deck referenced in the
// subtree is deleted from the repository together with its cards. The root
// folder cannot be deleted.
func (f *Folders) DeleteFolder(id uuid.UUID) error {
	f.mu.Lock()
	if id == f.root.ID {
		f.mu.Unlock()
		return fmt.Errorf("delete folder: %w: the root folder cannot be deleted", domain.ErrValidation)
	}
	removed, ok := detachFolder(&f.root, id)
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	f.save()
	f.mu.Unlock()

	var deckIDs []uuid.UUID
	walk(&removed, func(folder *domain.Folder) bool {
		deckIDs = append(deckIDs, folder.DeckIDs...)
		return true
	})
	cards := 0
	for _, deckID := range deckIDs {
		cards += f.repo.DeleteDeck(deckID)
	}
	f.logger.Info("Folder deleted", "folder_id", id, "decks_removed", len(deckIDs), "flashcards_removed", cards)
	return nil
}

// AddDeck creates a deck in the repository and references it from folderID.
func (f *Folders) AddDeck(folderID uuid.UUID, name string, color domain.DeckColor) (domain.Deck, error) {
	deck := domain.NewDeck(name, color)
	f.mu.Lock()
	defer f.mu.Unlock()
	folder := find(&f.root, folderID)
	if folder == nil {
		return domain.Deck{}, fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	if err := f.repo.AddDeck(deck); err != nil {
		return domain.Deck{}, err
	}
	folder.DeckIDs = append(folder.DeckIDs, deck.ID)
	f.save()
	return deck, nil
}

// RemoveDeck unlinks a deck from the tree and deletes it, with its cards, from
// the repository.
func (f *Folders) RemoveDeck(deckID uuid.UUID) error {
	f.mu.Lock()
	folder := f.folderOf(deckID)
	if folder == nil {
		f.mu.Unlock()
		return fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}
	folder.DeckIDs = slices.DeleteFunc(folder.DeckIDs, func(id uuid.UUID) bool { return id == deckID })
	f.save()
	f.mu.Unlock()

	f.repo.DeleteDeck(deckID)
	return nil
}

// MoveFolder re-parents a folder under destID. Moving a folder into itself or
// one of its descendants fails with ErrCycle.
func (f *Folders) MoveFolder(id, destID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.root.ID {
		return fmt.Errorf("move folder: %w: the root folder cannot be moved", domain.ErrValidation)
	}
	folder := find(&f.root, id)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	if find(folder, destID) != nil {
		return domain.ErrCycle
	}
	if find(&f.root, destID) == nil {
		return fmt.Errorf("destination folder %s: %w", destID, domain.ErrNotFound)
	}
	moved, _ := detachFolder(&f.root, id)
	dest := find(&f.root, destID)
	dest.Subfolders = append(dest.Subfolders, moved)
	f.save()
	return nil
}

// MoveDeck moves a deck reference into destID.
func (f *Folders) MoveDeck(deckID, destID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if find(&f.root, destID) == nil {
		return fmt.Errorf("destination folder %s: %w", destID, domain.ErrNotFound)
	}
	src := f.folderOf(deckID)
	if src == nil {
		return fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}
	src.DeckIDs = slices.DeleteFunc(src.DeckIDs, func(id uuid.UUID) bool { return id == deckID })
	dest := find(&f.root, destID)
	dest.DeckIDs = append(dest.DeckIDs, deckID)
	f.save()
	return nil
}

// ReorderSubfolders moves the child at index from so that it ends up at index to.
func (f *Folders) ReorderSubfolders(parentID uuid.UUID, from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := find(&f.root, parentID)
	if parent == nil {
		return fmt.Errorf("folder %s: %w", parentID, domain.ErrNotFound)
	}
	moved, err := move(parent.Subfolders, from, to)
	if err != nil {
		return err
	}
	parent.Subfolders = moved
	f.save()
	return nil
}

// ReorderDecks moves the deck at index from so that it ends up at index to.
func (f *Folders) ReorderDecks(folderID uuid.UUID, from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	folder := find(&f.root, folderID)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	moved, err := move(folder.DeckIDs, from, to)
	if err != nil {
		return err
	}
	folder.DeckIDs = moved
	f.save()
	return nil
}

// FolderOf returns the folder that references deckID.
func (f *Folders) FolderOf(deckID uuid.UUID) (domain.Folder, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	folder := f.folderOf(deckID)
	if folder == nil {
		return domain.Folder{}, false
	}
	return cloneFolder(*folder), true
}

// Label is the "Folder: Deck" heading shown above a card of deckID.
func (f *Folders) Label(deckID uuid.UUID) string {
	deck, ok := f.repo.Deck(deckID)
	if !ok {
		return "Deck not found"
	}
	folder, ok := f.FolderOf(deckID)
	if !ok {
		return deck.Name
	}
	return folder.Name + ": " + deck.Name
}

// PlayableDecks lists, in tree order, every folder holding at least one deck
// with cards due today, restricted to those decks.
func (f *Folders) PlayableDecks(now time.Time) []DeckGroup {
	root := f.Root()
	var groups []DeckGroup
	walk(&root, func(folder *domain.Folder) bool {
		group := DeckGroup{FolderID: folder.ID, FolderName: folder.Name}
		for _, id := range folder.DeckIDs {
			deck, ok := f.repo.Deck(id)
			if !ok {
				continue
			}
			if due := f.repo.DueCount(id, now); due > 0 {
				group.Decks = append(group.Decks, DueDeck{Deck: deck, Due: due})
			}
		}
		if len(group.Decks) > 0 {
			groups = append(groups, group)
		}
		return true
	})
	return groups
}

// folderOf finds the folder referencing deckID. Callers hold the lock.
func (f *Folders) folderOf(deckID uuid.UUID) *domain.Folder {
	var owner *domain.Folder
	walk(&f.root, func(folder *domain.Folder) bool {
		if slices.Contains(folder.DeckIDs, deckID) {
			owner = folder
			return false
		}
		return true
	})
	return owner
}

func (f *Folders) save() {
	storage.SaveJSON(f.docs, foldersKey, f.root, f.logger)
}

// walk visits folder and its descendants depth first until visit returns false.
func walk(folder *domain.Folder, visit func(*domain.Folder) bool) bool {
	if !visit(folder) {
		return false
	}
	for i := range folder.Subfolders {
		if !walk(&folder.Subfolders[i], visit) {
			return false
		}
	}
	return true
}

func find(folder *domain.Folder, id uuid.UUID) *domain.Folder {
	var found *domain.Folder
	walk(folder, func(candidate *domain.Folder) bool {
		if candidate.ID == id {
			found = candidate
			return false
		}
		return true
	})
	return found
}

// detachFolder removes the folder with id from the subtree under parent.
func detachFolder(parent *domain.Folder, id uuid.UUID) (domain.Folder, bool) {
	for i := range parent.Subfolders {
		if parent.Subfolders[i].ID == id {
			removed := parent.Subfolders[i]
			parent.Subfolders = slices.Delete(parent.Subfolders, i, i+1)
			return removed, true
		}
		if removed, ok := detachFolder(&parent.Subfolders[i], id); ok {
			return removed, true
		}
	}
	return domain.Folder{}, false
}

func cloneFolder(folder domain.Folder) domain.Folder {
	out := folder
	out.DeckIDs = slices.Clone(folder.DeckIDs)
	if folder.Subfolders != nil {
		out.Subfolders = make([]domain.Folder, len(folder.Subfolders))
		for i, sub := range folder.Subfolders {
			out.Subfolders[i] = cloneFolder(sub)
		}
	}
	return out
}

func move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("%w: index out of range", domain.ErrValidation)
	}
	item := items[from]
	items = slices.Delete(items, from, from+1)
	return slices.Insert(items, to, item), nil
}
