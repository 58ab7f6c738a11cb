package storage

const schema = `
-- The 'documents' table stores each logical document (flashcards, decks,
-- folders, streak, stats) as a single JSON blob keyed by name.
CREATE TABLE IF NOT EXISTS documents (
    key TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);
`
