package library

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/realflash/internal/domain"
)

func newTree(t *testing.T) (*Folders, *Repository) {
	t.Helper()
	docs := openDocs(t)
	repo := NewRepository(docs, testLogger)
	return NewFolders(docs, repo, testLogger), repo
}

func TestNewFoldersCreatesRoot(t *testing.T) {
	folders, _ := newTree(t)
	root := folders.Root()
	assert.NotEqual(t, uuid.Nil, root.ID)
	assert.Equal(t, RootName, root.Name)
}

func TestAddFolderAndDeck(t *testing.T) {
	folders, repo := newTree(t)
	root := folders.Root()

	lang, err := folders.AddFolder(root.ID, "Languages", "globe")
	require.NoError(t, err)
	deck, err := folders.AddDeck(lang.ID, "Spanish", domain.Orange)
	require.NoError(t, err)

	_, ok := repo.Deck(deck.ID)
	assert.True(t, ok, "deck should be stored in the repository")

	owner, ok := folders.FolderOf(deck.ID)
	require.True(t, ok)
	assert.Equal(t, lang.ID, owner.ID)
	assert.Equal(t, "Languages: Spanish", folders.Label(deck.ID))
	assert.Equal(t, "Deck not found", folders.Label(uuid.New()))

	_, err = folders.AddFolder(uuid.New(), "Orphan", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = folders.AddDeck(lang.ID, "Bad", "mauve")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDeleteFolderCascades(t *testing.T) {
	folders, repo := newTree(t)
	root := folders.Root()

	parent, _ := folders.AddFolder(root.ID, "Science", "atom")
	child, _ := folders.AddFolder(parent.ID, "Chemistry", "flask")
	chem, _ := folders.AddDeck(child.ID, "Elements", domain.Green)
	keepFolder, _ := folders.AddFolder(root.ID, "History", "book")
	keep, _ := folders.AddDeck(keepFolder.ID, "Dates", domain.Red)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AddFlashcard(domain.NewFlashcard("Q", "A", chem.ID, now)))
	}
	require.NoError(t, repo.AddFlashcard(domain.NewFlashcard("Q", "A", keep.ID, now)))

	require.NoError(t, folders.DeleteFolder(parent.ID))

	_, err := folders.Folder(child.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, ok := repo.Deck(chem.ID)
	assert.False(t, ok)
	assert.Empty(t, repo.ListByDeck(chem.ID))
	assert.Len(t, repo.ListByDeck(keep.ID), 1)

	assert.True(t, errors.Is(folders.DeleteFolder(root.ID), domain.ErrValidation))
}

func TestRemoveDeck(t *testing.T) {
	folders, repo := newTree(t)
	root := folders.Root()
	deck, _ := folders.AddDeck(root.ID, "Temp", domain.Gray)
	require.NoError(t, repo.AddFlashcard(domain.NewFlashcard("Q", "A", deck.ID, now)))

	require.NoError(t, folders.RemoveDeck(deck.ID))
	assert.Empty(t, folders.Root().DeckIDs)
	assert.Empty(t, repo.Flashcards())
	assert.True(t, errors.Is(folders.RemoveDeck(deck.ID), domain.ErrNotFound))
}

func TestMoveFolderRejectsCycles(t *testing.T) {
	folders, _ := newTree(t)
	root := folders.Root()
	a, _ := folders.AddFolder(root.ID, "A", "")
	b, _ := folders.AddFolder(a.ID, "B", "")
	c, _ := folders.AddFolder(root.ID, "C", "")

	assert.ErrorIs(t, folders.MoveFolder(a.ID, b.ID), domain.ErrCycle)
	assert.ErrorIs(t, folders.MoveFolder(a.ID, a.ID), domain.ErrCycle)

	require.NoError(t, folders.MoveFolder(b.ID, c.ID))
	movedC, _ := folders.Folder(c.ID)
	require.Len(t, movedC.Subfolders, 1)
	assert.Equal(t, b.ID, movedC.Subfolders[0].ID)
	movedA, _ := folders.Folder(a.ID)
	assert.Empty(t, movedA.Subfolders)
}

func TestMoveDeckAndReorder(t *testing.T) {
	folders, _ := newTree(t)
	root := folders.Root()
	a, _ := folders.AddFolder(root.ID, "A", "")
	b, _ := folders.AddFolder(root.ID, "B", "")
	d1, _ := folders.AddDeck(a.ID, "one", domain.Red)
	d2, _ := folders.AddDeck(a.ID, "two", domain.Red)
	d3, _ := folders.AddDeck(a.ID, "three", domain.Red)

	require.NoError(t, folders.ReorderDecks(a.ID, 2, 0))
	got, _ := folders.Folder(a.ID)
	assert.Equal(t, []uuid.UUID{d3.ID, d1.ID, d2.ID}, got.DeckIDs)

	require.NoError(t, folders.MoveDeck(d1.ID, b.ID))
	got, _ = folders.Folder(b.ID)
	assert.Equal(t, []uuid.UUID{d1.ID}, got.DeckIDs)

	require.NoError(t, folders.ReorderSubfolders(root.ID, 0, 1))
	tree := folders.Root()
	assert.Equal(t, b.ID, tree.Subfolders[0].ID)

	assert.ErrorIs(t, folders.ReorderDecks(a.ID, 5, 0), domain.ErrValidation)
}

func TestFoldersPersistAndReconcile(t *testing.T) {
	docs := openDocs(t)
	repo := NewRepository(docs, testLogger)
	folders := NewFolders(docs, repo, testLogger)
	sub, _ := folders.AddFolder(folders.Root().ID, "Sub", "")
	deck, _ := folders.AddDeck(sub.ID, "Deck", domain.Blue)

	// A deck created outside the tree is attached to the root on reload.
	loose := domain.NewDeck("Loose", domain.Pink)
	require.NoError(t, repo.AddDeck(loose))

	reloaded := NewFolders(docs, repo, testLogger)
	owner, ok := reloaded.FolderOf(deck.ID)
	require.True(t, ok)
	assert.Equal(t, sub.ID, owner.ID)
	assert.Contains(t, reloaded.Root().DeckIDs, loose.ID)
}

func TestPlayableDecks(t *testing.T) {
	folders, repo := newTree(t)
	root := folders.Root()
	sub, _ := folders.AddFolder(root.ID, "Sub", "")
	withDue, _ := folders.AddDeck(sub.ID, "Due", domain.Blue)
	notDue, _ := folders.AddDeck(sub.ID, "Later", domain.Blue)
	_, _ = folders.AddDeck(root.ID, "Empty", domain.Blue)

	require.NoError(t, repo.AddFlashcard(domain.NewFlashcard("Q", "A", withDue.ID, now)))
	require.NoError(t, repo.AddFlashcard(domain.NewFlashcard("Q", "A", notDue.ID, now.AddDate(0, 0, 3))))

	groups := folders.PlayableDecks(now)
	require.Len(t, groups, 1)
	assert.Equal(t, sub.ID, groups[0].FolderID)
	require.Len(t, groups[0].Decks, 1)
	assert.Equal(t, withDue.ID, groups[0].Decks[0].ID)
	assert.Equal(t, 1, groups[0].Decks[0].Due)
}
