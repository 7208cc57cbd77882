package types

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Field value types a Schema can declare.
const (
	FieldText         FieldType = "text"
	FieldInteger      FieldType = "integer"
	FieldEnum         FieldType = "enum"
	FieldTimestamp    FieldType = "timestamp"
	FieldRelationship FieldType = "relationship"
)

// FieldType names the value type of a schema field.
type FieldType string

var validFieldTypes = map[FieldType]bool{
	FieldText:         true,
	FieldInteger:      true,
	FieldEnum:         true,
	FieldTimestamp:    true,
	FieldRelationship: true,
}

// ErrInvalidSchema is returned by NewSchema for a malformed declaration.
var ErrInvalidSchema = errors.New("invalid schema declaration")

// FieldSpec declares one field of a record type.
type FieldSpec struct {
	Type     FieldType
	Required bool
	Min      *int64   // Integer lower bound, inclusive.
	Max      *int64   // Integer upper bound, inclusive.
	Default  any      // Applied on create when the field is left out.
	Options  []string // Accepted values for FieldEnum.
}

// Schema is an immutable set of field declarations for one record type.
// Build it with NewSchema; the zero value declares nothing.
type Schema struct {
	name   string
	fields map[string]FieldSpec
	names  []string
}

// NewSchema validates the declarations and returns the schema. Validation
// happens once here; the returned Schema never changes.
func NewSchema(name string, fields map[string]FieldSpec) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make(map[string]FieldSpec, len(fields)),
	}
	for fieldName, spec := range fields {
		if fieldName == "" {
			return nil, fmt.Errorf("schema %s: empty field name: %w", name, ErrInvalidSchema)
		}
		if !validFieldTypes[spec.Type] {
			return nil, fmt.Errorf("schema %s: field %s: unknown type %q: %w", name, fieldName, spec.Type, ErrInvalidSchema)
		}
		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return nil, fmt.Errorf("schema %s: field %s: min exceeds max: %w", name, fieldName, ErrInvalidSchema)
		}
		if spec.Type == FieldEnum && len(spec.Options) == 0 {
			return nil, fmt.Errorf("schema %s: field %s: enum without options: %w", name, fieldName, ErrInvalidSchema)
		}
		if spec.Default != nil {
			if err := checkField(fieldName, spec, spec.Default, true); err != nil {
				return nil, fmt.Errorf("schema %s: field %s: default %v: %w", name, fieldName, spec.Default, ErrInvalidSchema)
			}
		}
		s.fields[fieldName] = copySpec(spec)
		s.names = append(s.names, fieldName)
	}
	sort.Strings(s.names)
	return s, nil
}

// MustSchema is NewSchema for static declarations; it panics on error.
func MustSchema(name string, fields map[string]FieldSpec) *Schema {
	s, err := NewSchema(name, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the record type name the schema was declared for.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared field names in sorted order.
func (s *Schema) Fields() []string {
	return slices.Clone(s.names)
}

// Field returns a copy of the named field's declaration.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	spec, ok := s.fields[name]
	if !ok {
		return FieldSpec{}, false
	}
	return copySpec(spec), true
}

// Default returns the declared default for the named field, or nil.
func (s *Schema) Default(name string) any {
	return s.fields[name].Default
}

// Check validates a record's values against the declarations. Fields are
// checked in sorted name order and the first violation is returned as a
// *ValidationError. Keys that the schema does not declare are rejected.
func (s *Schema) Check(values map[string]any) error {
	for _, name := range s.names {
		v, present := values[name]
		if err := checkField(name, s.fields[name], v, present); err != nil {
			return err
		}
	}
	var unknown []string
	for k := range values {
		if _, ok := s.fields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ValidationError{Field: unknown[0], Message: fmt.Sprintf("unknown field %s", unknown[0])}
	}
	return nil
}

func checkField(name string, spec FieldSpec, v any, present bool) error {
	switch spec.Type {
	case FieldText, FieldRelationship:
		str, ok := v.(string)
		if present && v != nil && !ok {
			return &ValidationError{Field: name, Message: fmt.Sprintf("%s must be a string", name)}
		}
		if spec.Required && str == "" {
			return &ValidationError{Field: name, Message: fmt.Sprintf("%s is required", name)}
		}
	case FieldEnum:
		str, ok := v.(string)
		if present && v != nil && !ok {
			return &ValidationError{Field: name, Message: fmt.Sprintf("%s must be a string", name)}
		}
		if str == "" {
			if spec.Required {
				return &ValidationError{Field: name, Message: fmt.Sprintf("%s is required", name)}
			}
			return nil
		}
		if !slices.Contains(spec.Options, str) {
			return &ValidationError{
				Field:   name,
				Message: fmt.Sprintf("%s must be one of %s", name, strings.Join(spec.Options, ", ")),
			}
		}
	case FieldInteger:
		if !present || v == nil {
			if spec.Required {
				return &ValidationError{Field: name, Message: fmt.Sprintf("%s is required", name)}
			}
			return nil
		}
		n, ok := toInt64(v)
		if !ok {
			return &ValidationError{Field: name, Message: fmt.Sprintf("%s must be an integer", name)}
		}
		if (spec.Min != nil && n < *spec.Min) || (spec.Max != nil && n > *spec.Max) {
			return &ValidationError{Field: name, Message: rangeMessage(name, spec)}
		}
	case FieldTimestamp:
		// Timestamps are produced by the store, not by callers.
	}
	return nil
}

func rangeMessage(name string, spec FieldSpec) string {
	switch {
	case spec.Min != nil && spec.Max != nil:
		return fmt.Sprintf("%s must be between %d and %d", name, *spec.Min, *spec.Max)
	case spec.Min != nil:
		return fmt.Sprintf("%s must be at least %d", name, *spec.Min)
	default:
		return fmt.Sprintf("%s must be at most %d", name, *spec.Max)
	}
}

func copySpec(spec FieldSpec) FieldSpec {
	out := spec
	if spec.Min != nil {
		v := *spec.Min
		out.Min = &v
	}
	if spec.Max != nil {
		v := *spec.Max
		out.Max = &v
	}
	out.Options = slices.Clone(spec.Options)
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case SpicinessLevel:
		return int64(n), true
	default:
		return 0, false
	}
}

func bound(v int64) *int64 { return &v }

// NoodleSchema returns the field declarations for noodle records.
var NoodleSchema = sync.OnceValue(func() *Schema {
	return MustSchema(TableNoodles, map[string]FieldSpec{
		"name":  {Type: FieldText, Required: true},
		"brand": {Type: FieldText, Required: true},
		"spicinessLevel": {
			Type: FieldInteger, Required: true,
			Min: bound(int64(MinSpiciness)), Max: bound(int64(MaxSpiciness)),
			Default: int64(DefaultSpiciness),
		},
		"originCountry": {Type: FieldEnum, Required: true, Options: CountryValues()},
		"rating": {
			Type: FieldInteger, Required: true,
			Min: bound(MinRating), Max: bound(MaxRating),
			Default: int64(DefaultRating),
		},
		"reviewsCount": {Type: FieldInteger, Required: true, Min: bound(0), Default: int64(0)},
		"imageUrl":     {Type: FieldText},
		"categoryId":   {Type: FieldRelationship},
	})
})

// CategorySchema returns the field declarations for category records.
var CategorySchema = sync.OnceValue(func() *Schema {
	return MustSchema(TableCategories, map[string]FieldSpec{
		"name": {Type: FieldText, Required: true},
	})
})
