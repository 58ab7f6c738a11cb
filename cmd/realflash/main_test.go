package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out, io.Discard)
	return out.String(), err
}

func TestUnknownCommand(t *testing.T) {
	_, err := runCmd(t, "", "fly")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, "")
	assert.ErrorIs(t, err, errUsage)
}

func TestImportReviewExport(t *testing.T) {
	db := "--db=" + filepath.Join(t.TempDir(), "realflash.db")

	out, err := runCmd(t, "+uno::one\n+dos::two\n", "import", db, "--deck", "Spanish", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 cards into Spanish")

	// Reveal and answer both cards correctly.
	out, err = runCmd(t, "\ny\n\ny\n", "review", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Passed 2, failed 0.")
	assert.Contains(t, out, "Session complete.")

	out, err = runCmd(t, "", "review", db, "--deck", "Spanish")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing is due.")
	assert.Contains(t, out, "Next review:")

	out, err = runCmd(t, "", "export", db, "--deck", "Spanish", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "+uno::one\n+dos::two\n", out)

	out, err = runCmd(t, "", "stats", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Correct:   2")
	assert.Contains(t, out, "Accuracy:  100%")
}

func TestImportJSONFromFile(t *testing.T) {
	dir := t.TempDir()
	db := "--db=" + filepath.Join(dir, "realflash.db")

	_, err := runCmd(t, "+q::a\n", "import", db, "--deck", "Source", "--format", "text")
	require.NoError(t, err)
	bundle, err := runCmd(t, "", "export", db, "--deck", "Source")
	require.NoError(t, err)

	path := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(bundle), 0o644))

	out, err := runCmd(t, "", "import", db, "--deck", "Copy", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 cards into Copy.")

	_, err = runCmd(t, "", "export", db, "--deck", "Missing")
	assert.Error(t, err)

	_, err = runCmd(t, "", "import", db, path)
	assert.ErrorContains(t, err, "exactly one --deck")
}

func TestSyncCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "verbs.cards"), []byte("+ser::to be"), 0o644))

	out, err := runCmd(t, "", "sync", "--db="+filepath.Join(t.TempDir(), "realflash.db"), "--source", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 decks created, 1 cards added")
}
