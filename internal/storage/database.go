package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Load returns the stored body for key, or nil if no document was saved under it.
func (db *DB) Load(key string) ([]byte, error) {
	var body []byte
	row := db.conn.QueryRow(`SELECT body FROM documents WHERE key = ?`, key)
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Document not found
		}
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return body, nil
}

// Save replaces the document stored under key.
func (db *DB) Save(key string, body []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO documents (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, body, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}
