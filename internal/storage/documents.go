package storage

import (
	"encoding/json"
	"log/slog"
)

// Documents loads and saves whole named documents. *DB implements it.
type Documents interface {
	Load(key string) ([]byte, error)
	Save(key string, body []byte) error
}

var _ Documents = (*DB)(nil)

// LoadJSON decodes the document stored under key. A missing, unreadable or
// malformed document yields the zero value and false; the failure is logged
// rather than returned so callers always start from a usable value.
func LoadJSON[T any](docs Documents, key string, logger *slog.Logger) (T, bool) {
	var v T
	body, err := docs.Load(key)
	if err != nil {
		logger.Warn("Failed to load document, using defaults", "key", key, "error", err)
		return v, false
	}
	if body == nil {
		return v, false
	}
	if err := json.Unmarshal(body, &v); err != nil {
		logger.Warn("Malformed document, using defaults", "key", key, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// SaveJSON encodes v and stores it under key. Saving is best effort: failures
// are logged and reported as false.
func SaveJSON(docs Documents, key string, v any, logger *slog.Logger) bool {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode document", "key", key, "error", err)
		return false
	}
	if err := docs.Save(key, body); err != nil {
		logger.Error("Failed to save document", "key", key, "error", err)
		return false
	}
	return true
}
