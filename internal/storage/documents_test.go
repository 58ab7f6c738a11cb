package storage

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDocs struct{}

func (failingDocs) Load(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingDocs) Save(string, []byte) error  { return errors.New("disk on fire") }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.True(t, SaveJSON(db, "sample", sample{Name: "a", Count: 3}, discard))

	got, ok := LoadJSON[sample](db, "sample", discard)
	require.True(t, ok)
	assert.Equal(t, sample{Name: "a", Count: 3}, got)
}

func TestLoadJSONDefaults(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Save("broken", []byte(`{"name": 12`)))
	require.NoError(t, db.Save("wrong-shape", []byte(`{"name": 12}`)))

	testCases := []struct {
		name string
		docs Documents
		key  string
	}{
		{"missing key", db, "nothing-here"},
		{"truncated json", db, "broken"},
		{"wrong field type", db, "wrong-shape"},
		{"storage failure", failingDocs{}, "sample"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LoadJSON[sample](tc.docs, tc.key, discard)
			assert.False(t, ok)
			assert.Equal(t, sample{}, got)
		})
	}
}

func TestSaveJSONFailureIsReported(t *testing.T) {
	assert.False(t, SaveJSON(failingDocs{}, "sample", sample{}, discard))
}
