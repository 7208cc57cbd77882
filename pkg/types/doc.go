// Package types defines the Pantry and Table interfaces, the noodle catalog
// entities, the record schema, the review-count guard, and the standard error
// types for the Pantry storage system.
//
// See DESIGN.md for how the packages fit together.
package types
