package types

import "errors"

// Pantry defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Pantry interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Attach connects the Pantry to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrPantryDetached.
	Detach() error
}

// Pantry lifecycle errors.
var (
	ErrPantryDetached  = errors.New("pantry is detached")
	ErrAlreadyAttached = errors.New("pantry is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
