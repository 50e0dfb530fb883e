package importer

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is.
var (
	ErrTableNotFound     = errors.New("table does not exist")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrColumnSetMismatch = errors.New("statements for the same table use different columns")
	ErrNoColumns         = errors.New("no columns left to insert")
)

// InputError means the dump could not be read at all. It is the only error
// that stops a run before any table is processed.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("read input %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// SchemaError fails a single table because it does not fit the target schema.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	switch {
	case errors.Is(e.Err, ErrTableNotFound):
		return fmt.Sprintf("table %q does not exist", e.Table)
	case errors.Is(e.Err, ErrUnknownColumn):
		return fmt.Sprintf("table %q has no column %s", e.Table, e.Column)
	default:
		return fmt.Sprintf("table %q: %v", e.Table, e.Err)
	}
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// PersistenceError fails a single table after its transaction was rolled back.
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
