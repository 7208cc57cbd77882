// This file implements the noodles table accessor for the SQLite backend,
// including the guarded update path.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var noodleColumns = []string{
	"noodle_id", "name", "brand", "spiciness_level", "origin_country", "rating",
	"reviews_count", "image_url", "category_id", "created_at", "last_reviewed_at",
}

var selectNoodle = "SELECT " + strings.Join(noodleColumns, ", ") + " FROM noodles"

var (
	_ types.Table    = (*noodlesTable)(nil)
	_ types.Reviewer = (*noodlesTable)(nil)
)

// noodlesTable implements the Table interface for noodles. Every write
// passes through the backend's MutationPipeline before it commits.
type noodlesTable struct {
	backend *Backend
}

// Get retrieves a noodle by ID and returns it as *types.Noodle.
func (nt *noodlesTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	unlock, err := nt.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	n, err := hydrateNoodle(nt.backend.db.QueryRow(selectNoodle+" WHERE noodle_id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting noodle %s: %w", id, err)
	}
	return n, nil
}

// Set creates or updates a noodle.
//
//   - Set("", *Noodle) creates a noodle with a new UUID v7 and defaults.
//   - Set(id, *Noodle) replaces every writable field; reviewsCount is
//     always proposed.
//   - Set(id, *NoodlePatch) changes only the patch's non-nil fields.
//
// Caller-supplied LastReviewedAt values are ignored. An update that the
// pipeline rejects writes nothing and returns the *ValidationError.
func (nt *noodlesTable) Set(id string, data any) (string, error) {
	start := time.Now()
	var (
		op  = types.OpUpdate
		err error
	)
	switch v := data.(type) {
	case *types.Noodle:
		if v == nil {
			return "", types.ErrInvalidData
		}
		if id == "" {
			op = types.OpCreate
			id, err = nt.create(v)
			break
		}
		var committed *types.Noodle
		committed, err = nt.update(id, func(n *types.Noodle) *int64 {
			n.Name, n.Brand = v.Name, v.Brand
			n.SpicinessLevel, n.OriginCountry, n.Rating = v.SpicinessLevel, v.OriginCountry, v.Rating
			n.ImageURL, n.CategoryID = v.ImageURL, v.CategoryID
			n.ReviewsCount = v.ReviewsCount
			return &n.ReviewsCount
		})
		if err == nil {
			*v = *committed
		}
	case *types.NoodlePatch:
		if v == nil {
			return "", types.ErrInvalidData
		}
		if id == "" {
			return "", types.ErrInvalidID
		}
		_, err = nt.update(id, func(n *types.Noodle) *int64 {
			v.ApplyTo(n)
			return v.ReviewsCount
		})
	default:
		return "", types.ErrInvalidData
	}
	nt.backend.record(types.TableNoodles, op.String(), start, err)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (nt *noodlesTable) create(n *types.Noodle) (string, error) {
	b := nt.backend
	n.ApplyDefaults()
	n.LastReviewedAt = nil

	if _, err := b.pipeline.Apply(types.Mutation{
		Operation:            types.OpCreate,
		ProposedReviewsCount: &n.ReviewsCount,
	}); err != nil {
		return "", err
	}
	if err := n.Validate(); err != nil {
		return "", err
	}

	unlock, err := b.writeLock()
	if err != nil {
		return "", err
	}
	defer unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireCategory(tx, n.CategoryID); err != nil {
		return "", err
	}
	id, err := generateUUID()
	if err != nil {
		return "", err
	}
	n.NoodleID = id
	n.CreatedAt = b.now().UTC()

	if _, err := tx.Exec(
		"INSERT INTO noodles ("+strings.Join(noodleColumns, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		noodleArgs(n)...,
	); err != nil {
		return "", fmt.Errorf("inserting noodle: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing noodle: %w", err)
	}
	if err := persistNoodlesJSONL(b); err != nil {
		return "", fmt.Errorf("persisting %s: %w", noodlesFile, err)
	}
	return id, nil
}

// update runs the guarded update path. apply copies the proposed fields
// onto a copy of the committed noodle and returns the proposed
// reviewsCount, or nil when the write does not touch it. The previous
// state is read inside the commit transaction under the write lock.
func (nt *noodlesTable) update(id string, apply func(n *types.Noodle) *int64) (*types.Noodle, error) {
	b := nt.backend
	unlock, err := b.writeLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prev, err := hydrateNoodle(tx.QueryRow(selectNoodle+" WHERE noodle_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading noodle %s: %w", id, err)
	}

	next := *prev
	proposed := apply(&next)
	next.NoodleID = prev.NoodleID
	next.CreatedAt = prev.CreatedAt
	next.LastReviewedAt = prev.LastReviewedAt

	derived, err := b.pipeline.Apply(types.Mutation{
		Operation:            types.OpUpdate,
		Previous:             prev,
		ProposedReviewsCount: proposed,
	})
	if err != nil {
		b.logger.Warn("noodle update rejected",
			zap.String("noodle_id", id),
			zap.Int64("previous", prev.ReviewsCount),
			zap.Int64p("proposed", proposed),
			zap.Error(err))
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := requireCategory(tx, next.CategoryID); err != nil {
		return nil, err
	}
	if derived.LastReviewedAt != nil {
		next.LastReviewedAt = derived.LastReviewedAt
	}

	if _, err := tx.Exec(
		`UPDATE noodles SET name = ?, brand = ?, spiciness_level = ?, origin_country = ?,
    rating = ?, reviews_count = ?, image_url = ?, category_id = ?, last_reviewed_at = ?
    WHERE noodle_id = ?`,
		next.Name, next.Brand, int(next.SpicinessLevel), next.OriginCountry,
		next.Rating, next.ReviewsCount, next.ImageURL, nullString(next.CategoryID),
		formatNullTime(next.LastReviewedAt), id,
	); err != nil {
		return nil, fmt.Errorf("updating noodle: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing noodle: %w", err)
	}
	if err := persistNoodlesJSONL(b); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", noodlesFile, err)
	}
	if derived.LastReviewedAt != nil {
		b.logger.Debug("noodle reviewed",
			zap.String("noodle_id", id),
			zap.Int64("reviews_count", next.ReviewsCount))
	}
	return &next, nil
}

// AddReview increments the committed reviewsCount by one. The count is read
// and the increment proposed inside one write transaction, so concurrent
// reviews each add one.
func (nt *noodlesTable) AddReview(id string) (*types.Noodle, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	start := time.Now()
	n, err := nt.update(id, func(n *types.Noodle) *int64 {
		n.AddReview()
		return &n.ReviewsCount
	})
	nt.backend.record(types.TableNoodles, "review", start, err)
	return n, err
}

// Delete removes a noodle and its favourite entry.
func (nt *noodlesTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	start := time.Now()
	err := nt.delete(id)
	nt.backend.record(types.TableNoodles, "delete", start, err)
	return err
}

func (nt *noodlesTable) delete(id string) error {
	b := nt.backend
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

	res, err := tx.Exec("DELETE FROM noodles WHERE noodle_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting noodle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing noodle deletion: %w", err)
	}

	if err := persistNoodlesJSONL(b); err != nil {
		return fmt.Errorf("persisting %s: %w", noodlesFile, err)
	}
	if err := persistFavouritesJSONL(b); err != nil {
		return fmt.Errorf("persisting %s: %w", favouritesFile, err)
	}
	return nil
}

// Fetch returns noodles newest first. Supported filter keys:
// spiciness_level (int), origin_country (string), category_id (string),
// ids ([]string), favourites (bool), limit and offset (int).
func (nt *noodlesTable) Fetch(filter types.Filter) ([]any, error) {
	var conditions []string
	var args []any

	if level, ok, err := filterInt(filter, "spiciness_level"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "spiciness_level = ?")
		args = append(args, level)
	}
	if country, ok, err := filterString(filter, "origin_country"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "origin_country = ?")
		args = append(args, country)
	}
	if categoryID, ok, err := filterString(filter, "category_id"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "category_id = ?")
		args = append(args, categoryID)
	}
	if ids, ok, err := filterStrings(filter, "ids"); err != nil {
		return nil, err
	} else if ok {
		if len(ids) == 0 {
			return []any{}, nil
		}
		conditions = append(conditions, "noodle_id IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")+")")
		for _, id := range ids {
			args = append(args, id)
		}
	}
	if favourites, ok, err := filterBool(filter, "favourites"); err != nil {
		return nil, err
	} else if ok && favourites {
		conditions = append(conditions, "noodle_id IN (SELECT noodle_id FROM favourites)")
	}

	query := selectNoodle
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, noodle_id ASC"
	page, err := pageClause(filter)
	if err != nil {
		return nil, err
	}
	query += page

	unlock, err := nt.backend.readLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, err := nt.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching noodles: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		n, err := hydrateNoodle(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating noodle: %w", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating noodles: %w", err)
	}
	return results, nil
}

func hydrateNoodle(row scanner) (*types.Noodle, error) {
	var (
		n              types.Noodle
		level          int
		categoryID     sql.NullString
		createdAt      string
		lastReviewedAt sql.NullString
	)
	if err := row.Scan(
		&n.NoodleID, &n.Name, &n.Brand, &level, &n.OriginCountry, &n.Rating,
		&n.ReviewsCount, &n.ImageURL, &categoryID, &createdAt, &lastReviewedAt,
	); err != nil {
		return nil, err
	}
	n.SpicinessLevel = types.SpicinessLevel(level)
	n.CategoryID = categoryID.String

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	n.CreatedAt = t
	if n.LastReviewedAt, err = parseNullTime(lastReviewedAt); err != nil {
		return nil, fmt.Errorf("parsing last_reviewed_at %q: %w", lastReviewedAt.String, err)
	}
	return &n, nil
}

// noodleArgs returns the insert arguments in noodleColumns order.
func noodleArgs(n *types.Noodle) []any {
	return []any{
		n.NoodleID, n.Name, n.Brand, int(n.SpicinessLevel), n.OriginCountry, n.Rating,
		n.ReviewsCount, n.ImageURL, nullString(n.CategoryID), formatTime(n.CreatedAt),
		formatNullTime(n.LastReviewedAt),
	}
}

// requireCategory returns ErrNotFound when categoryID is set but names no
// category.
func requireCategory(tx *sql.Tx, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	ok, err := categoryExists(tx, categoryID)
	if err != nil {
		return fmt.Errorf("checking category %s: %w", categoryID, err)
	}
	if !ok {
		return fmt.Errorf("category %s: %w", categoryID, types.ErrNotFound)
	}
	return nil
}

func persistNoodlesJSONL(b *Backend) error {
	return persistTableJSONL(b, "noodles", noodlesFile, noodleColumns, "created_at, noodle_id")
}
