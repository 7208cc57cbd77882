package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// openTestDB opens a fresh database with the pantry schema in dir.
func openTestDB(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, createSchema(db))
	return db
}

func TestSeedDefaultCategories(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, db *sql.DB)
		wantSeeds int
		wantTotal int
	}{
		{
			name:      "empty pantry gets the defaults",
			wantSeeds: len(types.DefaultCategories),
			wantTotal: len(types.DefaultCategories),
		},
		{
			name: "existing categories are left alone",
			setup: func(t *testing.T, db *sql.DB) {
				_, err := db.Exec(
					"INSERT INTO categories (category_id, name, created_at) VALUES ('c1', 'Mine', '2026-01-01T00:00:00Z')",
				)
				require.NoError(t, err)
			},
			wantSeeds: 0,
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, initJSONLFiles(dir))
			b := NewBackend()
			b.db = openTestDB(t, dir)
			b.config.DataDir = dir
			if tt.setup != nil {
				tt.setup(t, b.db)
			}

			seeded, err := seedDefaultCategories(b)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeeds, seeded)

			var count int
			require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count))
			assert.Equal(t, tt.wantTotal, count)
		})
	}
}

func TestSeedPersistsCategoriesJSONL(t *testing.T) {
	b := setupBackend(t)
	records, skipped, err := readJSONL(filepath.Join(b.DataDir(), categoriesFile))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Len(t, records, len(types.DefaultCategories))
}

func TestSeedRunsOnce(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	require.NoError(t, b.Detach())
	first, err := os.ReadFile(filepath.Join(dir, categoriesFile))
	require.NoError(t, err)

	require.NoError(t, b.Attach(config))
	require.NoError(t, b.Detach())
	second, err := os.ReadFile(filepath.Join(dir, categoriesFile))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
