// This file implements default category seeding on backend attach.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// seedDefaultCategories inserts types.DefaultCategories when the categories
// table is empty after loading, and persists categories.jsonl. Returns the
// number of categories seeded; zero when the pantry already had some.
// The caller must hold the write lock.
func seedDefaultCategories(b *Backend) (int, error) {
	var count int
	if err := b.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := b.now().UTC()
	for _, name := range types.DefaultCategories {
		id, err := generateUUID()
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(
			"INSERT INTO categories (category_id, name, created_at) VALUES (?, ?, ?)",
			id, name, formatTime(now),
		); err != nil {
			return 0, fmt.Errorf("seeding category %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed transaction: %w", err)
	}

	if err := persistCategoriesJSONL(b); err != nil {
		return 0, fmt.Errorf("persisting seeded categories: %w", err)
	}
	return len(types.DefaultCategories), nil
}
