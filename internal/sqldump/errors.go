package sqldump

import (
	"errors"
	"fmt"
)

// Sentinel errors for INSERT parsing. Match them with errors.Is; ParseInsert
// always returns them wrapped in a *ParseError.
var (
	ErrNotInsert       = errors.New("not an INSERT INTO statement")
	ErrMissingTable    = errors.New("missing table name")
	ErrMissingColumns  = errors.New("missing column list")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrMissingValues   = errors.New("missing VALUES clause")
	ErrNoRows          = errors.New("no rows in VALUES clause")
	ErrColumnCount     = errors.New("column/value count mismatch")
)

// ParseError describes a statement that was rejected as a whole.
type ParseError struct {
	Table   string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("insert into %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("%v near %q", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ColumnCountError is returned when a row's value count differs from the
// column count. It matches ErrColumnCount.
type ColumnCountError struct {
	Row     int
	Columns int
	Values  int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("row %d has %d values, expected %d", e.Row+1, e.Values, e.Columns)
}

func (e *ColumnCountError) Is(target error) bool {
	return target == ErrColumnCount
}

// RowError describes a single row dropped from an otherwise usable statement.
type RowError struct {
	Table   string
	Row     int
	Snippet string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("insert into %s: row %d dropped: %v", e.Table, e.Row+1, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
