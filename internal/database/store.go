package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/willfong/sqlimport/internal/importer"
)

// Store implements importer.Store on top of a Pool.
type Store struct {
	pool *Pool
	d    Dialect
}

// NewStore returns a Store using the pool's dialect.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool, d: pool.Dialect()}
}

// TableExists reports whether table exists in the current schema.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.pool.QueryRowContext(ctx, s.d.tableExistsQuery, table).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// Columns returns table's column names in ordinal order.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.QueryContext(ctx, s.d.columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	return columns, nil
}

// Truncate empties table with TRUNCATE TABLE.
func (s *Store) Truncate(ctx context.Context, table string) error {
	if !s.d.Truncate {
		return fmt.Errorf("truncate %s: %w", table, ErrTruncateUnsupported)
	}
	if _, err := s.pool.ExecContext(ctx, s.d.TruncateSQL(table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// DeleteAll removes every row of table.
func (s *Store) DeleteAll(ctx context.Context, table string) error {
	if _, err := s.pool.ExecContext(ctx, s.d.DeleteSQL(table)); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// TransactionalClear reports whether Tx.Truncate and Tx.DeleteAll roll back
// with the transaction on this dialect.
func (s *Store) TransactionalClear() bool {
	return s.d.TxClear
}

// Begin starts a write transaction.
func (s *Store) Begin(ctx context.Context) (importer.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, pool: s.pool, d: s.d}, nil
}

// Tx implements importer.Tx.
type Tx struct {
	tx   *sql.Tx
	pool *Pool
	d    Dialect
}

// Truncate empties table inside the transaction. A refused TRUNCATE is
// rolled back to a savepoint where the dialect needs one, so DeleteAll can
// still run.
func (t *Tx) Truncate(ctx context.Context, table string) error {
	if !t.d.Truncate {
		return fmt.Errorf("truncate %s: %w", table, ErrTruncateUnsupported)
	}
	if err := t.withSavepoint(ctx, "sqlimport_clear", t.d.TruncateSQL(table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// DeleteAll removes every row of table inside the transaction.
func (t *Tx) DeleteAll(ctx context.Context, table string) error {
	if err := t.exec(ctx, t.d.DeleteSQL(table)); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// InsertBatch inserts rows with multi-row INSERT statements, splitting them
// further when a statement would exceed the bind-parameter limit.
func (t *Tx) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	per := t.d.RowsPerStatement(len(columns))
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		part := rows[start:end]

		args := make([]any, 0, len(part)*len(columns))
		for _, row := range part {
			args = append(args, row...)
		}

		if err := t.exec(ctx, t.d.InsertSQL(table, columns, len(part)), args...); err != nil {
			return fmt.Errorf("insert rows %d-%d into %s: %w", start+1, end, table, err)
		}
	}
	return nil
}

// InsertRow inserts one row. On targets where a failed statement aborts the
// transaction the insert runs under a savepoint that is rolled back on error.
func (t *Tx) InsertRow(ctx context.Context, table string, columns []string, row []any) error {
	if err := t.withSavepoint(ctx, "sqlimport_row", t.d.InsertSQL(table, columns, 1), row...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// withSavepoint runs one statement, under savepoint name when the dialect
// aborts the transaction on a failed statement.
func (t *Tx) withSavepoint(ctx context.Context, name, query string, args ...any) error {
	if !t.d.Savepoints {
		return t.exec(ctx, query, args...)
	}

	if err := t.exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := t.exec(ctx, query, args...); err != nil {
		if rbErr := t.exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	if err := t.exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) error {
	start := time.Now()
	_, err := t.tx.ExecContext(ctx, query, args...)
	t.pool.recordQuery(time.Since(start), err)
	return classify(err)
}
