package importer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/willfong/sqlimport/internal/sqldump"
)

// LoaderOptions controls how rows are written.
type LoaderOptions struct {
	ChunkSize        int
	ClearTables      bool
	IgnoreDuplicates bool
	DryRun           bool
}

// LoadStats describes what Load did for one table.
type LoadStats struct {
	Inserted   int
	Duplicates int
	Chunks     int
	Cleared    string // "truncate", "delete" or empty
}

// Loader writes validated batches, one transaction per table.
type Loader struct {
	store    Store
	opts     LoaderOptions
	resolver sqldump.Resolver
	log      *slog.Logger

	onPhase    func(Phase, string)
	onProgress func(table string, done, total int)
}

// NewLoader returns a loader writing to store. Raw tokens are bound through
// resolver.
func NewLoader(store Store, opts LoaderOptions, resolver sqldump.Resolver, log *slog.Logger) *Loader {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{store: store, opts: opts, resolver: resolver, log: log}
}

// Load persists batch. In dry-run mode nothing is called on the store.
// Cancellation is checked between chunks; a cancelled or failed table is
// rolled back as a whole.
func (l *Loader) Load(ctx context.Context, batch *ValidatedBatch) (stats LoadStats, err error) {
	total := len(batch.Rows)

	if l.opts.DryRun {
		stats.Inserted = total
		stats.Chunks = chunkCount(total, l.opts.ChunkSize)
		l.log.Debug("dry run, skipping writes", "table", batch.Table, "rows", total, "chunks", stats.Chunks)
		return stats, nil
	}

	// Nothing to insert means nothing to replace: keep the existing rows.
	clearFirst := l.opts.ClearTables && total > 0
	if l.opts.ClearTables && total == 0 {
		l.log.Info("no rows to import, table left as is", "table", batch.Table)
	}
	clearInTx := clearFirst && l.store.TransactionalClear()

	if clearFirst {
		l.setPhase(PhaseClearing, batch.Table)
	}
	if clearFirst && !clearInTx {
		how, err := l.clear(ctx, l.store, batch.Table)
		if err != nil {
			return stats, err
		}
		stats.Cleared = how
	}

	if err := ctx.Err(); err != nil {
		return stats, &PersistenceError{Table: batch.Table, Op: "insert into", Err: err}
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return stats, &PersistenceError{Table: batch.Table, Op: "begin transaction for", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, &PersistenceError{Table: batch.Table, Op: "rollback", Err: rbErr})
		}
		// Nothing survived the rollback, including a clear done inside it.
		stats.Inserted = 0
		stats.Duplicates = 0
		if clearInTx {
			stats.Cleared = ""
		}
	}()

	if clearInTx {
		how, err := l.clear(ctx, tx, batch.Table)
		if err != nil {
			return stats, err
		}
		stats.Cleared = how
	}

	l.setPhase(PhaseInserting, batch.Table)
	for start := 0; start < total; start += l.opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return stats, &PersistenceError{Table: batch.Table, Op: "insert into", Err: err}
		}

		end := min(start+l.opts.ChunkSize, total)
		args := make([][]any, 0, end-start)
		for _, row := range batch.Rows[start:end] {
			args = append(args, l.resolver.Args(row))
		}

		if l.opts.IgnoreDuplicates {
			for _, row := range args {
				err := tx.InsertRow(ctx, batch.Table, batch.Columns, row)
				switch {
				case err == nil:
					stats.Inserted++
				case errors.Is(err, ErrDuplicateKey):
					stats.Duplicates++
					l.log.Debug("duplicate row skipped", "table", batch.Table, "error", err)
				default:
					return stats, &PersistenceError{Table: batch.Table, Op: "insert into", Err: err}
				}
			}
		} else {
			if err := tx.InsertBatch(ctx, batch.Table, batch.Columns, args); err != nil {
				return stats, &PersistenceError{Table: batch.Table, Op: "insert into", Err: err}
			}
			stats.Inserted += len(args)
		}

		stats.Chunks++
		l.log.Debug("chunk written", "table", batch.Table, "chunk", stats.Chunks, "rows", end)
		if l.onProgress != nil {
			l.onProgress(batch.Table, end, total)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, &PersistenceError{Table: batch.Table, Op: "commit", Err: err}
	}
	committed = true
	return stats, nil
}

// clear empties table through c, falling back to DELETE when TRUNCATE is
// refused (foreign keys, or a target without TRUNCATE).
func (l *Loader) clear(ctx context.Context, c Clearer, table string) (string, error) {
	truncErr := c.Truncate(ctx, table)
	if truncErr == nil {
		return "truncate", nil
	}
	l.log.Info("truncate refused, falling back to delete", "table", table, "error", truncErr)

	if err := c.DeleteAll(ctx, table); err != nil {
		return "", &PersistenceError{Table: table, Op: "clear", Err: errors.Join(truncErr, err)}
	}
	return "delete", nil
}

func (l *Loader) setPhase(p Phase, table string) {
	if l.onPhase != nil {
		l.onPhase(p, table)
	}
}

func chunkCount(rows, size int) int {
	if rows == 0 {
		return 0
	}
	return (rows + size - 1) / size
}
