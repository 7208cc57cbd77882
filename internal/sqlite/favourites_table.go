// This file implements the favourites table accessor for the SQLite backend.
// A favourite is keyed by the noodle it marks.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var favouriteColumns = []string{"noodle_id", "created_at"}

var _ types.Table = (*favouritesTable)(nil)

type favouritesTable struct {
	backend *Backend
}

// Get returns the *types.Favourite for a noodle ID.
func (ft *favouritesTable) Get(noodleID string) (any, error) {
	if noodleID == "" {
		return nil, types.ErrInvalidID
	}
	unlock, err := ft.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	fav, err := hydrateFavourite(ft.backend.db.QueryRow(
		"SELECT noodle_id, created_at FROM favourites WHERE noodle_id = ?", noodleID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting favourite %s: %w", noodleID, err)
	}
	return fav, nil
}

// Set marks the noodle as a favourite. data must be a *types.Favourite
// whose NoodleID is empty or equal to noodleID. Marking an existing
// favourite again changes nothing. Returns ErrNotFound if the noodle does
// not exist.
func (ft *favouritesTable) Set(noodleID string, data any) (string, error) {
	fav, ok := data.(*types.Favourite)
	if !ok || fav == nil {
		return "", types.ErrInvalidData
	}
	if noodleID == "" {
		noodleID = fav.NoodleID
	}
	if noodleID == "" || (fav.NoodleID != "" && fav.NoodleID != noodleID) {
		return "", types.ErrInvalidID
	}
	start := time.Now()
	err := ft.set(noodleID, fav)
	ft.backend.record(types.TableFavourites, types.OpCreate.String(), start, err)
	if err != nil {
		return "", err
	}
	return noodleID, nil
}

func (ft *favouritesTable) set(noodleID string, fav *types.Favourite) error {
	b := ft.backend
	unlock, err := b.writeLock()
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow("SELECT 1 FROM noodles WHERE noodle_id = ?", noodleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("noodle %s: %w", noodleID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking noodle %s: %w", noodleID, err)
	}

	existing, err := hydrateFavourite(tx.QueryRow(
		"SELECT noodle_id, created_at FROM favourites WHERE noodle_id = ?", noodleID,
	))
	if err == nil {
		*fav = *existing
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading favourite %s: %w", noodleID, err)
	}

	fav.NoodleID = noodleID
	fav.CreatedAt = b.now().UTC()
	if _, err := tx.Exec(
		"INSERT INTO favourites (noodle_id, created_at) VALUES (?, ?)",
		noodleID, formatTime(fav.CreatedAt),
	); err != nil {
		return fmt.Errorf("inserting favourite: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing favourite: %w", err)
	}
	if err := persistFavouritesJSONL(b); err != nil {
		return fmt.Errorf("persisting %s: %w", favouritesFile, err)
	}
	return nil
}

// Delete removes the favourite mark. Returns ErrNotFound when the noodle is
// not a favourite.
func (ft *favouritesTable) Delete(noodleID string) error {
	if noodleID == "" {
		return types.ErrInvalidID
	}
	start := time.Now()
	err := ft.delete(noodleID)
	ft.backend.record(types.TableFavourites, "delete", start, err)
	return err
}

func (ft *favouritesTable) delete(noodleID string) error {
	b := ft.backend
	unlock, err := b.writeLock()
	if err != nil {
		return err
	}
	defer unlock()

	res, err := b.db.Exec("DELETE FROM favourites WHERE noodle_id = ?", noodleID)
	if err != nil {
		return fmt.Errorf("deleting favourite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	if err := persistFavouritesJSONL(b); err != nil {
		return fmt.Errorf("persisting %s: %w", favouritesFile, err)
	}
	return nil
}

// Fetch returns every favourite, newest first. limit and offset apply.
func (ft *favouritesTable) Fetch(filter types.Filter) ([]any, error) {
	page, err := pageClause(filter)
	if err != nil {
		return nil, err
	}
	unlock, err := ft.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, err := ft.backend.db.Query(
		"SELECT noodle_id, created_at FROM favourites ORDER BY created_at DESC, noodle_id ASC" + page,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching favourites: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		fav, err := hydrateFavourite(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating favourite: %w", err)
		}
		results = append(results, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favourites: %w", err)
	}
	return results, nil
}

func hydrateFavourite(row scanner) (*types.Favourite, error) {
	var f types.Favourite
	var createdAt string
	if err := row.Scan(&f.NoodleID, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	f.CreatedAt = t
	return &f, nil
}

func persistFavouritesJSONL(b *Backend) error {
	return persistTableJSONL(b, "favourites", favouritesFile, favouriteColumns, "created_at, noodle_id")
}
