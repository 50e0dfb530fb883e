package importer

import (
	"context"
	"errors"
)

// ErrDuplicateKey marks a unique or primary key violation. Store adapters wrap
// driver errors with it so the loader never has to inspect messages.
var ErrDuplicateKey = errors.New("duplicate key")

// Clearer empties tables. Truncate may be refused (foreign keys, or no
// TRUNCATE on the target); DeleteAll is the fallback.
type Clearer interface {
	Truncate(ctx context.Context, table string) error
	DeleteAll(ctx context.Context, table string) error
}

// Store is the target datastore.
type Store interface {
	Clearer

	TableExists(ctx context.Context, table string) (bool, error)
	Columns(ctx context.Context, table string) ([]string, error)
	Begin(ctx context.Context) (Tx, error)

	// TransactionalClear reports whether clearing inside a Tx is rolled back
	// with it. When false, tables are cleared before the transaction starts.
	TransactionalClear() bool
}

// Tx is one table's write transaction.
type Tx interface {
	Clearer

	// InsertBatch writes rows with as few statements as the target allows.
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error

	// InsertRow writes a single row. A failed row must leave the transaction
	// usable so the caller can skip it.
	InsertRow(ctx context.Context, table string, columns []string, row []any) error

	Commit() error
	Rollback() error
}
