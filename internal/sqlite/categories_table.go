// This file implements the categories table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var categoryColumns = []string{"category_id", "name", "created_at"}

const selectCategory = "SELECT category_id, name, created_at FROM categories"

var _ types.Table = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

// Get retrieves a category by ID.
func (ct *categoriesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	unlock, err := ct.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	cat, err := hydrateCategory(ct.backend.db.QueryRow(selectCategory+" WHERE category_id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return cat, nil
}

// Set persists a *types.Category. An empty id creates the category with a
// new UUID v7; otherwise the named category is renamed. Names must be
// unique (ErrDuplicateName).
func (ct *categoriesTable) Set(id string, data any) (string, error) {
	cat, ok := data.(*types.Category)
	if !ok || cat == nil {
		return "", types.ErrInvalidData
	}
	op := types.OpUpdate
	if id == "" {
		op = types.OpCreate
	}
	start := time.Now()
	id, err := ct.set(id, cat)
	ct.backend.record(types.TableCategories, op.String(), start, err)
	return id, err
}

func (ct *categoriesTable) set(id string, cat *types.Category) (string, error) {
	if err := cat.Validate(); err != nil {
		return "", err
	}
	unlock, err := ct.backend.writeLock()
	if err != nil {
		return "", err
	}
	defer unlock()

	tx, err := ct.backend.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	isCreate := id == ""
	if isCreate {
		if id, err = generateUUID(); err != nil {
			return "", err
		}
		cat.CreatedAt = ct.backend.now().UTC()
	} else {
		prev, err := hydrateCategory(tx.QueryRow(selectCategory+" WHERE category_id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return "", types.ErrNotFound
		}
		if err != nil {
			return "", fmt.Errorf("reading category %s: %w", id, err)
		}
		cat.CreatedAt = prev.CreatedAt
	}

	var dupID string
	err = tx.QueryRow(
		"SELECT category_id FROM categories WHERE name = ? AND category_id != ?", cat.Name, id,
	).Scan(&dupID)
	if err == nil {
		return "", types.ErrDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checking category name uniqueness: %w", err)
	}

	if isCreate {
		_, err = tx.Exec(
			"INSERT INTO categories (category_id, name, created_at) VALUES (?, ?, ?)",
			id, cat.Name, formatTime(cat.CreatedAt),
		)
	} else {
		_, err = tx.Exec("UPDATE categories SET name = ? WHERE category_id = ?", cat.Name, id)
	}
	if err != nil {
		return "", fmt.Errorf("persisting category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing category: %w", err)
	}
	cat.CategoryID = id

	if err := persistCategoriesJSONL(ct.backend); err != nil {
		return "", fmt.Errorf("persisting %s: %w", categoriesFile, err)
	}
	return id, nil
}

// Delete removes a category. Noodles that referenced it keep existing with
// an empty categoryId.
func (ct *categoriesTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	start := time.Now()
	err := ct.delete(id)
	ct.backend.record(types.TableCategories, "delete", start, err)
	return err
}

func (ct *categoriesTable) delete(id string) error {
	unlock, err := ct.backend.writeLock()
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := ct.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM categories WHERE category_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	// The foreign key clears category_id on referencing noodles.
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category deletion: %w", err)
	}

	if err := persistCategoriesJSONL(ct.backend); err != nil {
		return fmt.Errorf("persisting %s: %w", categoriesFile, err)
	}
	if err := persistNoodlesJSONL(ct.backend); err != nil {
		return fmt.Errorf("persisting %s: %w", noodlesFile, err)
	}
	return nil
}

// Fetch returns categories ordered by name. Supported filter keys: name,
// limit, offset.
func (ct *categoriesTable) Fetch(filter types.Filter) ([]any, error) {
	query := selectCategory
	var args []any

	name, hasName, err := filterString(filter, "name")
	if err != nil {
		return nil, err
	}
	if hasName {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY name ASC"
	page, err := pageClause(filter)
	if err != nil {
		return nil, err
	}
	query += page

	unlock, err := ct.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, err := ct.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		cat, err := hydrateCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		results = append(results, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return results, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateCategory(row scanner) (*types.Category, error) {
	var c types.Category
	var createdAt string
	if err := row.Scan(&c.CategoryID, &c.Name, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	c.CreatedAt = t
	return &c, nil
}

func persistCategoriesJSONL(b *Backend) error {
	return persistTableJSONL(b, "categories", categoriesFile, categoryColumns, "name, category_id")
}

// categoryExists reports whether id names a category, inside tx.
func categoryExists(tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRow("SELECT 1 FROM categories WHERE category_id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
