package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestJSONLFilesCreatedOnAttach(t *testing.T) {
	b := setupBackend(t)
	for _, name := range []string{noodlesFile, categoriesFile, favouritesFile} {
		_, err := os.Stat(filepath.Join(b.DataDir(), name))
		assert.NoError(t, err, name)
	}
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	records := []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"a":2}`),
	}
	require.NoError(t, writeJSONL(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	content := "{\"a\":1}\n\nnot json\n{\"a\":2}\n{\"a\":\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, skipped)
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, _, err := readJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestJSONLPersistsAcrossAttach(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend(WithClock(newTestClock().Now))
	require.NoError(t, b.Attach(config))
	tbl := noodles(t, b)
	id := createWithReviews(t, tbl, 1)
	_, err := tbl.Set(id, reviews(3))
	require.NoError(t, err)
	before := getNoodle(t, tbl, id)
	_, err = favourites(t, b).Set(id, &types.Favourite{})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	data, err := os.ReadFile(filepath.Join(dir, noodlesFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "spiciness_description", "computed label is never stored")
	assert.Contains(t, string(data), `"reviews_count":3`)

	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	after := getNoodle(t, noodles(t, b2), id)
	assert.Equal(t, before.ReviewsCount, after.ReviewsCount)
	require.NotNil(t, after.LastReviewedAt)
	assert.True(t, before.LastReviewedAt.Equal(*after.LastReviewedAt))
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	_, err = favourites(t, b2).Get(id)
	assert.NoError(t, err)

	// The guard still sees the reloaded count.
	_, err = noodles(t, b2).Set(id, reviews(2))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestJSONLRewrittenOnDelete(t *testing.T) {
	b := setupBackend(t)
	id := createWithReviews(t, noodles(t, b), 0)
	require.NoError(t, noodles(t, b).Delete(id))

	data, err := os.ReadFile(filepath.Join(b.DataDir(), noodlesFile))
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(string(data)))
}
