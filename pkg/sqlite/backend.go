// Package sqlite provides the public API for the SQLite Pantry backend.
// This package exposes the factory function and its options while keeping
// implementation details internal.
package sqlite

import (
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Option configures a backend created by NewBackend.
type Option = sqlite.Option

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(sqlite.WithLogger(logger))
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".pantry-db",
//	})
//	defer backend.Detach()
func NewBackend(opts ...Option) types.Pantry {
	return sqlite.NewBackend(opts...)
}

// WithLogger sets the backend logger.
func WithLogger(l *zap.Logger) Option { return sqlite.WithLogger(l) }

// WithMetrics records mutation outcomes on m.
func WithMetrics(m *metrics.StoreMetrics) Option { return sqlite.WithMetrics(m) }

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option { return sqlite.WithClock(now) }

// WithPipeline replaces the mutation pipeline run on every noodle write.
func WithPipeline(p *types.MutationPipeline) Option { return sqlite.WithPipeline(p) }
