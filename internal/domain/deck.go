package domain

import "github.com/google/uuid"

// DeckColor tags a deck in the deck pickers.
type DeckColor string

const (
	Red    DeckColor = "red"
	Green  DeckColor = "green"
	Blue   DeckColor = "blue"
	Purple DeckColor = "purple"
	Yellow DeckColor = "yellow"
	Orange DeckColor = "orange"
	Pink   DeckColor = "pink"
	Brown  DeckColor = "brown"
	Gray   DeckColor = "gray"
	Black  DeckColor = "black"
	Teal   DeckColor = "teal"
	Cyan   DeckColor = "cyan"
	Indigo DeckColor = "indigo"
)

// DeckColors lists every color in display order.
var DeckColors = []DeckColor{Red, Green, Blue, Purple, Yellow, Orange, Pink, Brown, Gray, Black, Teal, Cyan, Indigo}

// Deck groups flashcards. Cards point at their deck through Flashcard.DeckID.
type Deck struct {
	ID    uuid.UUID `json:"id" validate:"required"`
	Name  string    `json:"name" validate:"required"`
	Color DeckColor `json:"color" validate:"required,oneof=red green blue purple yellow orange pink brown gray black teal cyan indigo"`
}

// NewDeck returns a deck with a fresh id.
func NewDeck(name string, color DeckColor) Deck {
	return Deck{ID: uuid.New(), Name: name, Color: color}
}

// Folder is a node of the folder tree. Decks are referenced by id only; the
// canonical Deck record lives in the library repository.
type Folder struct {
	ID         uuid.UUID   `json:"id" validate:"required"`
	Name       string      `json:"name" validate:"required"`
	Icon       string      `json:"icon"`
	Subfolders []Folder    `json:"subfolders"`
	DeckIDs    []uuid.UUID `json:"deckIds"`
}

// NewFolder returns an empty folder with a fresh id.
func NewFolder(name, icon string) Folder {
	return Folder{ID: uuid.New(), Name: name, Icon: icon}
}
