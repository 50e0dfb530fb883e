package importer

import (
	"fmt"
	"strings"

	"github.com/willfong/sqlimport/internal/sqldump"
)

// TableBatch is every parsed row for one table, in source order.
type TableBatch struct {
	Table      string
	Columns    []string
	Rows       []sqldump.Row
	Statements int

	// Err is set when the table's statements cannot be merged. The table
	// fails without touching the datastore.
	Err error
}

// groupBatches merges parsed statements by table name, keeping tables in
// first-seen order. A statement listing the same columns in another order is
// realigned to the first statement's order; a different column set fails the
// table.
func groupBatches(inserts []*sqldump.ParsedInsert) []*TableBatch {
	var batches []*TableBatch
	byTable := make(map[string]*TableBatch)

	for _, pi := range inserts {
		b, ok := byTable[pi.Table]
		if !ok {
			b = &TableBatch{Table: pi.Table, Columns: pi.Columns}
			byTable[pi.Table] = b
			batches = append(batches, b)
		}
		b.Statements++
		if b.Err != nil {
			continue
		}

		if sameOrder(b.Columns, pi.Columns) {
			b.Rows = append(b.Rows, pi.Rows...)
			continue
		}

		perm, ok := permutation(b.Columns, pi.Columns)
		if !ok {
			b.Err = &SchemaError{
				Table: pi.Table,
				Err: fmt.Errorf("%w: (%s) vs (%s)", ErrColumnSetMismatch,
					strings.Join(b.Columns, ", "), strings.Join(pi.Columns, ", ")),
			}
			b.Rows = nil
			continue
		}
		for _, row := range pi.Rows {
			aligned := make(sqldump.Row, len(perm))
			for i, j := range perm {
				aligned[i] = row[j]
			}
			b.Rows = append(b.Rows, aligned)
		}
	}
	return batches
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// permutation returns perm such that want[i] == have[perm[i]], matching names
// case-insensitively. ok is false when the two sets differ.
func permutation(want, have []string) ([]int, bool) {
	if len(want) != len(have) {
		return nil, false
	}
	index := make(map[string]int, len(have))
	for i, col := range have {
		index[strings.ToLower(col)] = i
	}
	perm := make([]int, len(want))
	for i, col := range want {
		j, ok := index[strings.ToLower(col)]
		if !ok {
			return nil, false
		}
		perm[i] = j
	}
	return perm, true
}
