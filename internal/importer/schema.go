package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/willfong/sqlimport/internal/sqldump"
)

// SchemaCache remembers table existence and columns for one run. It is
// never invalidated, so schema changes made during a run go unnoticed.
type SchemaCache struct {
	store  Store
	tables map[string]*tableInfo
}

type tableInfo struct {
	exists  bool
	columns map[string]string // lower-case name -> name as the target spells it
}

// NewSchemaCache returns an empty cache reading from store.
func NewSchemaCache(store Store) *SchemaCache {
	return &SchemaCache{store: store, tables: make(map[string]*tableInfo)}
}

func (c *SchemaCache) lookup(ctx context.Context, table string) (*tableInfo, error) {
	if info, ok := c.tables[table]; ok {
		return info, nil
	}

	exists, err := c.store.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	info := &tableInfo{exists: exists}

	if exists {
		cols, err := c.store.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		info.columns = make(map[string]string, len(cols))
		for _, col := range cols {
			info.columns[strings.ToLower(col)] = col
		}
	}

	c.tables[table] = info
	return info, nil
}

// ValidatedBatch is a TableBatch reduced to columns and rows the target
// table can accept. Column names are spelled the way the target spells them.
type ValidatedBatch struct {
	Table          string
	Columns        []string
	Rows           []sqldump.Row
	DroppedRows    int
	DroppedColumns []string
	Warnings       []string
}

// SchemaValidator checks batches against the live schema.
type SchemaValidator struct {
	cache *SchemaCache

	// SkipMissingColumns drops unknown source columns instead of failing
	SkipMissingColumns bool
}

// NewSchemaValidator returns a validator backed by cache.
func NewSchemaValidator(cache *SchemaCache, skipMissingColumns bool) *SchemaValidator {
	return &SchemaValidator{cache: cache, SkipMissingColumns: skipMissingColumns}
}

// Validate filters batch against the target table.
func (v *SchemaValidator) Validate(ctx context.Context, batch *TableBatch) (*ValidatedBatch, error) {
	info, err := v.cache.lookup(ctx, batch.Table)
	if err != nil {
		return nil, &SchemaError{Table: batch.Table, Err: fmt.Errorf("read schema: %w", err)}
	}
	if !info.exists {
		return nil, &SchemaError{Table: batch.Table, Err: ErrTableNotFound}
	}

	vb := &ValidatedBatch{Table: batch.Table}

	var keep []int
	var missing []string
	for i, col := range batch.Columns {
		target, ok := info.columns[strings.ToLower(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		keep = append(keep, i)
		vb.Columns = append(vb.Columns, target)
	}

	if len(missing) > 0 {
		if !v.SkipMissingColumns {
			return nil, &SchemaError{Table: batch.Table, Column: quoteList(missing), Err: ErrUnknownColumn}
		}
		vb.DroppedColumns = missing
		vb.Warnings = append(vb.Warnings, fmt.Sprintf("dropped %s not present in table %q", plural(len(missing), "column")+" "+quoteList(missing), batch.Table))
	}
	if len(keep) == 0 {
		return nil, &SchemaError{Table: batch.Table, Err: ErrNoColumns}
	}

	vb.Rows = make([]sqldump.Row, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		if len(row) != len(batch.Columns) {
			vb.DroppedRows++
			continue
		}
		if len(keep) == len(row) {
			vb.Rows = append(vb.Rows, row)
			continue
		}
		projected := make(sqldump.Row, len(keep))
		for i, j := range keep {
			projected[i] = row[j]
		}
		vb.Rows = append(vb.Rows, projected)
	}
	if vb.DroppedRows > 0 {
		vb.Warnings = append(vb.Warnings, fmt.Sprintf("dropped %s with %d values expected", plural(vb.DroppedRows, "row"), len(batch.Columns)))
	}

	return vb, nil
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
