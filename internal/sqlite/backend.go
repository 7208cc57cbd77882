// Package sqlite implements the SQLite storage backend for Pantry.
// SQLite is the query engine; one JSONL file per table is the source of
// truth and is rewritten atomically after every committed write.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// dbFileName is the SQLite file created inside DataDir. It is recreated
// from the JSONL files on every Attach.
const dbFileName = "pantry.db"

var _ types.Pantry = (*Backend)(nil)

// Backend implements the Pantry interface using SQLite as the query engine
// and JSONL files as the source of truth.
//
// Writes hold mu for writing for their whole read-validate-commit-persist
// sequence, so the guarded update path sees a stable previous state.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]types.Table

	logger   *zap.Logger
	metrics  *metrics.StoreMetrics
	now      func() time.Time
	pipeline *types.MutationPipeline
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics records mutation outcomes on m.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(b *Backend) { b.metrics = m }
}

// WithClock replaces time.Now for createdAt stamps and, unless WithPipeline
// is given, for the review-count guard.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// WithPipeline replaces the mutation pipeline run on every noodle write.
func WithPipeline(p *types.MutationPipeline) Option {
	return func(b *Backend) { b.pipeline = p }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]types.Table),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pipeline == nil {
		b.pipeline = types.NewMutationPipeline(types.NewReviewCountGuard(b.now))
	}
	return b
}

// GetTable returns the Table for the given name.
// Returns ErrPantryDetached if the backend is not attached and
// ErrTableNotFound if the name is not a standard table.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrPantryDetached
	}
	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach initializes the backend with the given configuration. It creates
// DataDir if needed, recreates pantry.db, creates missing JSONL files,
// loads them, and seeds the default categories into an empty pantry.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, dbFileName)
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale %s: %w", filepath.Base(p), err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// foreign_keys is per connection; one connection keeps it in effect.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := initJSONLFiles(config.DataDir); err != nil {
		db.Close()
		return err
	}
	stats, err := loadAllJSONL(db, config.DataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("loading JSONL: %w", err)
	}
	for _, s := range stats {
		b.logger.Debug("loaded jsonl",
			zap.String("file", s.file),
			zap.Int("loaded", s.loaded),
			zap.Int("skipped", s.skipped))
	}

	b.db = db
	b.config = config

	seeded, err := seedDefaultCategories(b)
	if err != nil {
		db.Close()
		b.db = nil
		return fmt.Errorf("seeding categories: %w", err)
	}
	if seeded > 0 {
		b.logger.Info("seeded default categories", zap.Int("count", seeded))
	}

	b.tables[types.TableNoodles] = &noodlesTable{backend: b}
	b.tables[types.TableCategories] = &categoriesTable{backend: b}
	b.tables[types.TableFavourites] = &favouritesTable{backend: b}
	b.attached = true

	b.logger.Info("pantry attached", zap.String("data_dir", config.DataDir))
	return nil
}

// Detach releases all resources held by the backend. After Detach, table
// operations return ErrPantryDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.tables = make(map[string]types.Table)

	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	b.logger.Info("pantry detached", zap.String("data_dir", b.config.DataDir))
	return nil
}

// DataDir returns the data directory of the attached backend.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// generateUUID returns a new UUID v7 string for entity IDs.
func generateUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// readLock takes the read lock and fails when detached. Callers must call
// the returned unlock.
func (b *Backend) readLock() (func(), error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, types.ErrPantryDetached
	}
	return b.mu.RUnlock, nil
}

// writeLock takes the write lock and fails when detached.
func (b *Backend) writeLock() (func(), error) {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return nil, types.ErrPantryDetached
	}
	return b.mu.Unlock, nil
}

// record reports a finished mutation to the metrics collector.
func (b *Backend) record(table, operation string, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
		if ve, ok := types.AsValidationError(err); ok {
			status = metrics.StatusRejected
			b.metrics.RecordRejection(ve.Field)
		}
	}
	b.metrics.RecordMutation(table, operation, status, time.Since(start))
}
