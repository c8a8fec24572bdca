package models

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed preparation errors via errors.Is.
var (
	ErrMissingInput  = errors.New("missing input")
	ErrSchema        = errors.New("schema error")
	ErrDataIntegrity = errors.New("data integrity error")
)

// MissingInputError reports a source that is absent or unreadable.
type MissingInputError struct {
	Source string
	Err    error
}

func (e *MissingInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing input %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("missing input %q", e.Source)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// SchemaError reports a required column absent from the source.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %q: required column %q not found", e.Source, e.Column)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// DataIntegrityError reports a value that cannot be coerced, bucketed or
// imputed. Row is -1 when the failure is not tied to a single row.
type DataIntegrityError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("data integrity error in %s: %s", e.Field, e.Reason)
	}
	if e.Value != "" {
		return fmt.Sprintf("data integrity error at row %d, %s=%q: %s", e.Row, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("data integrity error at row %d, %s: %s", e.Row, e.Field, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }
