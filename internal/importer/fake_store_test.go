package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeStore is an in-memory Store. Tables listed in unique reject a second
// row with the same first-column value.
type fakeStore struct {
	t *testing.T

	columns map[string][]string
	rows    map[string][][]any
	unique  map[string]bool

	// readOnly fails the test on any mutating call.
	readOnly bool

	// txClear makes the loader clear tables inside the transaction.
	txClear bool

	truncateErr error
	insertErr   error

	calls        []string
	schemaReads  int
	batchSizes   []int
	rolledBack   int
	committedTxs int
}

func newFakeStore(t *testing.T) *fakeStore {
	return &fakeStore{
		t:       t,
		columns: make(map[string][]string),
		rows:    make(map[string][][]any),
		unique:  make(map[string]bool),
	}
}

func (s *fakeStore) addTable(name string, columns ...string) {
	s.columns[name] = columns
}

func (s *fakeStore) mutating(call string) {
	s.calls = append(s.calls, call)
	if s.readOnly {
		s.t.Errorf("unexpected mutating call %s in dry run", call)
	}
}

func (s *fakeStore) TableExists(ctx context.Context, table string) (bool, error) {
	s.schemaReads++
	_, ok := s.columns[table]
	return ok, nil
}

func (s *fakeStore) Columns(ctx context.Context, table string) ([]string, error) {
	s.schemaReads++
	return s.columns[table], nil
}

func (s *fakeStore) Truncate(ctx context.Context, table string) error {
	s.mutating("Truncate " + table)
	if s.truncateErr != nil {
		return s.truncateErr
	}
	delete(s.rows, table)
	return nil
}

func (s *fakeStore) DeleteAll(ctx context.Context, table string) error {
	s.mutating("DeleteAll " + table)
	delete(s.rows, table)
	return nil
}

func (s *fakeStore) TransactionalClear() bool {
	return s.txClear
}

func (s *fakeStore) Begin(ctx context.Context) (Tx, error) {
	s.mutating("Begin")
	return &fakeTx{store: s, pending: make(map[string][][]any), cleared: make(map[string]bool)}, nil
}

// fakeTx buffers inserts and clears until Commit.
type fakeTx struct {
	store   *fakeStore
	pending map[string][][]any
	cleared map[string]bool
	done    bool
}

func (tx *fakeTx) Truncate(ctx context.Context, table string) error {
	tx.store.mutating("Truncate " + table)
	if tx.store.truncateErr != nil {
		return tx.store.truncateErr
	}
	tx.clear(table)
	return nil
}

func (tx *fakeTx) DeleteAll(ctx context.Context, table string) error {
	tx.store.mutating("DeleteAll " + table)
	tx.clear(table)
	return nil
}

func (tx *fakeTx) clear(table string) {
	tx.cleared[table] = true
	delete(tx.pending, table)
}

func (tx *fakeTx) exists(table string, key any) bool {
	if !tx.cleared[table] {
		for _, row := range tx.store.rows[table] {
			if row[0] == key {
				return true
			}
		}
	}
	for _, row := range tx.pending[table] {
		if row[0] == key {
			return true
		}
	}
	return false
}

func (tx *fakeTx) insert(table string, row []any) error {
	if tx.store.insertErr != nil {
		return tx.store.insertErr
	}
	if tx.store.unique[table] && tx.exists(table, row[0]) {
		return fmt.Errorf("insert into %s: %w: key %v", table, ErrDuplicateKey, row[0])
	}
	tx.pending[table] = append(tx.pending[table], row)
	return nil
}

func (tx *fakeTx) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx.store.mutating("InsertBatch " + table)
	tx.store.batchSizes = append(tx.store.batchSizes, len(rows))
	for _, row := range rows {
		if len(row) != len(columns) {
			return errors.New("row width does not match columns")
		}
		if err := tx.insert(table, row); err != nil {
			return err
		}
	}
	return nil
}

func (tx *fakeTx) InsertRow(ctx context.Context, table string, columns []string, row []any) error {
	tx.store.mutating("InsertRow " + table)
	return tx.insert(table, row)
}

func (tx *fakeTx) Commit() error {
	tx.store.mutating("Commit")
	for table := range tx.cleared {
		delete(tx.store.rows, table)
	}
	for table, rows := range tx.pending {
		tx.store.rows[table] = append(tx.store.rows[table], rows...)
	}
	tx.done = true
	tx.store.committedTxs++
	return nil
}

func (tx *fakeTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.store.calls = append(tx.store.calls, "Rollback")
	tx.pending = nil
	tx.cleared = nil
	tx.done = true
	tx.store.rolledBack++
	return nil
}

func (s *fakeStore) callsWithPrefix(prefix string) int {
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
