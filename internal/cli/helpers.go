package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend(opts ...sqlite.Option) (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	cfg := types.Config{
		Backend: a.config.Backend,
		DataDir: dataDir,
		Listen:  a.config.Listen,
	}
	if cfg.Backend == "" {
		cfg.Backend = types.BackendSQLite
	}
	if err := cfg.Validate(); err != nil {
		return nil, userError(fmt.Errorf("config: %w", err))
	}

	backend := sqlite.NewBackend(append([]sqlite.Option{sqlite.WithLogger(a.logger)}, opts...)...)
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, nil
}

// withPantry attaches the backend, runs fn, and detaches.
func (a *app) withPantry(fn func(p types.Pantry) error) error {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()
	return fn(backend)
}

// table returns the named table of p.
func table(p types.Pantry, name string) (types.Table, error) {
	tbl, err := p.GetTable(name)
	if err != nil {
		return nil, sysError(fmt.Errorf("get table %s: %w", name, err))
	}
	return tbl, nil
}

// classify wraps a store error with its exit code. Rejected writes and
// missing entities are user errors; anything else is a system error.
func classify(action string, err error) error {
	wrapped := fmt.Errorf("%s: %w", action, err)
	switch {
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidFilter),
		errors.Is(err, types.ErrDuplicateName):
		return userError(wrapped)
	default:
		return sysError(wrapped)
	}
}

// output writes v as indented JSON in --json mode, and text otherwise.
func (a *app) output(cmd *cobra.Command, v any, text string) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(w, v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
