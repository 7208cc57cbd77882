// This file holds the SQLite schema. The database is rebuilt from JSONL on
// every Attach, so the DDL never needs migrations.
package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL for all tables, in dependency order.
const (
	createCategories = `CREATE TABLE categories (
    category_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);`

	createNoodles = `CREATE TABLE noodles (
    noodle_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    brand TEXT NOT NULL,
    spiciness_level INTEGER NOT NULL CHECK (spiciness_level BETWEEN 1 AND 5),
    origin_country TEXT NOT NULL,
    rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 10),
    reviews_count INTEGER NOT NULL DEFAULT 0 CHECK (reviews_count >= 0),
    image_url TEXT NOT NULL DEFAULT '',
    category_id TEXT REFERENCES categories(category_id) ON DELETE SET NULL,
    created_at TEXT NOT NULL,
    last_reviewed_at TEXT
);`

	createFavourites = `CREATE TABLE favourites (
    noodle_id TEXT PRIMARY KEY REFERENCES noodles(noodle_id) ON DELETE CASCADE,
    created_at TEXT NOT NULL
);`
)

// Index DDL for the list filters.
const (
	idxNoodlesSpiciness = `CREATE INDEX idx_noodles_spiciness ON noodles(spiciness_level);`
	idxNoodlesCountry   = `CREATE INDEX idx_noodles_country ON noodles(origin_country);`
	idxNoodlesCategory  = `CREATE INDEX idx_noodles_category ON noodles(category_id);`
	idxNoodlesCreated   = `CREATE INDEX idx_noodles_created ON noodles(created_at DESC, noodle_id);`
)

var schemaDDL = []string{
	createCategories,
	createNoodles,
	createFavourites,
}

var indexDDL = []string{
	idxNoodlesSpiciness,
	idxNoodlesCountry,
	idxNoodlesCategory,
	idxNoodlesCreated,
}

// createSchema executes every table and index statement.
func createSchema(db *sql.DB) error {
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
