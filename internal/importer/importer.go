// Package importer loads parsed INSERT statements into a target datastore.
//
// Run drives the whole pipeline: read, split, parse, group by table, then
// per table validate against the live schema, optionally clear, and insert
// in chunks inside one transaction. A failing table is reported and the run
// moves on to the next one.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/willfong/sqlimport/internal/config"
	"github.com/willfong/sqlimport/internal/source"
	"github.com/willfong/sqlimport/internal/sqldump"
)

// Options configures one run.
type Options struct {
	Parse              sqldump.Options
	Load               LoaderOptions
	SkipMissingColumns bool
}

// OptionsFromConfig maps the validated import configuration onto Options.
func OptionsFromConfig(cfg config.ImportConfig) Options {
	return Options{
		Parse: sqldump.Options{
			BackslashEscapes: cfg.BackslashEscapes,
			StrictRows:       cfg.StrictRows,
		},
		Load: LoaderOptions{
			ChunkSize:        cfg.ChunkSize,
			ClearTables:      cfg.ClearTables,
			IgnoreDuplicates: cfg.IgnoreDuplicates,
			DryRun:           cfg.DryRun,
		},
		SkipMissingColumns: cfg.SkipMissingColumns,
	}
}

// Hooks receive progress while a run is in flight. Any of them may be nil.
type Hooks struct {
	Phase    func(phase Phase, table string)
	Progress func(table string, done, total int)
	Table    func(result TableResult)
}

// Importer runs imports against one store.
type Importer struct {
	store Store
	opts  Options
	log   *slog.Logger
	hooks Hooks
	now   func() time.Time
	phase Phase
}

// New returns an importer. A nil logger discards diagnostics.
func New(store Store, opts Options, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Importer{store: store, opts: opts, log: log, now: time.Now}
}

// SetHooks installs progress callbacks.
func (im *Importer) SetHooks(h Hooks) {
	im.hooks = h
}

// Phase returns the current pipeline phase.
func (im *Importer) Phase() Phase {
	return im.phase
}

func (im *Importer) setPhase(p Phase, table string) {
	im.phase = p
	if p.PerTable() {
		im.log.Debug("phase", "phase", p.String(), "table", table)
	} else {
		im.log.Debug("phase", "phase", p.String())
	}
	if im.hooks.Phase != nil {
		im.hooks.Phase(p, table)
	}
}

// Run imports in. Only an unreadable input is returned as an error (an
// *InputError); every other problem is recorded in the report.
func (im *Importer) Run(ctx context.Context, in source.Input) (*Report, error) {
	started := im.now()
	report := &Report{
		RunID:     uuid.NewString(),
		Source:    in.Name(),
		DryRun:    im.opts.Load.DryRun,
		StartedAt: started,
	}
	log := im.log.With("run_id", report.RunID)

	im.setPhase(PhaseReading, "")
	text, err := in.Read(ctx)
	if err != nil {
		im.setPhase(PhaseDone, "")
		return nil, &InputError{Source: in.Name(), Err: err}
	}
	log.Info("input read", "source", report.Source, "bytes", len(text))

	parsed := parse(text, im.opts.Parse, log, im.setPhase)
	report.Fallback = parsed.Fallback
	report.Diagnostics = parsed.Diagnostics
	report.Tally.Statements = parsed.Statements
	report.Tally.Parsed = parsed.Parsed
	report.Tally.Ignored = parsed.Ignored
	report.Tally.Rejected = parsed.Rejected
	report.Tally.RowsRejected = parsed.RowsRejected

	if parsed.Parsed == 0 {
		log.Warn("no usable INSERT statements found", "statements", parsed.Statements, "rejected", parsed.Rejected)
	}

	resolver := sqldump.Resolver{Now: started, Options: im.opts.Parse}
	validator := NewSchemaValidator(NewSchemaCache(im.store), im.opts.SkipMissingColumns)
	loader := NewLoader(im.store, im.opts.Load, resolver, log)
	loader.onPhase = im.setPhase
	loader.onProgress = im.hooks.Progress

	for _, batch := range parsed.Batches {
		res := im.importTable(ctx, log, validator, loader, batch)
		report.addTable(res)
		if im.hooks.Table != nil {
			im.hooks.Table(res)
		}
	}

	im.setPhase(PhaseReporting, "")
	report.Duration = Duration(im.now().Sub(started))
	log.Info("import finished",
		"tables", report.Tally.Tables,
		"succeeded", report.Tally.Succeeded,
		"failed", report.Tally.Failed,
		"records", report.Tally.Records)
	im.setPhase(PhaseDone, "")

	return report, nil
}

func (im *Importer) importTable(ctx context.Context, log *slog.Logger, v *SchemaValidator, l *Loader, batch *TableBatch) TableResult {
	start := im.now()
	res := TableResult{Table: batch.Table}
	fail := func(err error) TableResult {
		res.Status = StatusFailed
		res.Records = 0
		res.Error = err.Error()
		res.Duration = Duration(im.now().Sub(start))
		log.Warn("table failed", "table", batch.Table, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("import cancelled: %w", err))
	}
	if batch.Err != nil {
		return fail(batch.Err)
	}

	im.setPhase(PhaseValidating, batch.Table)
	vb, err := v.Validate(ctx, batch)
	if err != nil {
		return fail(err)
	}
	res.DroppedRows = vb.DroppedRows
	res.DroppedColumns = vb.DroppedColumns
	res.Warnings = vb.Warnings
	for _, w := range vb.Warnings {
		log.Warn(w, "table", batch.Table)
	}

	stats, err := l.Load(ctx, vb)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("import cancelled, rolled back: %w", err)
		}
		return fail(err)
	}

	res.Records = stats.Inserted
	res.Duplicates = stats.Duplicates
	res.Cleared = stats.Cleared
	res.Status = StatusSuccess
	if im.opts.Load.DryRun {
		res.Status = StatusDryRun
	}
	res.Duration = Duration(im.now().Sub(start))
	log.Info("table imported", "table", batch.Table, "status", res.Status, "records", res.Records, "duplicates", res.Duplicates)
	return res
}

// ParseResult is the outcome of reading a dump without touching a database.
type ParseResult struct {
	Inserts      []*sqldump.ParsedInsert
	Batches      []*TableBatch
	Diagnostics  []Diagnostic
	Statements   int
	Parsed       int
	Ignored      int
	Rejected     int
	RowsRejected int
	Fallback     bool
}

// Parse cleans, splits, parses and groups text.
func Parse(text string, opts sqldump.Options, log *slog.Logger) *ParseResult {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return parse(text, opts, log, nil)
}

func parse(text string, opts sqldump.Options, log *slog.Logger, setPhase func(Phase, string)) *ParseResult {
	phase := func(p Phase) {
		if setPhase != nil {
			setPhase(p, "")
		}
	}
	res := &ParseResult{}

	phase(PhaseSplitting)
	cleaned := sqldump.Clean(text, opts)
	stmts, err := sqldump.Split(cleaned, opts)
	if err != nil {
		res.Rejected++
		diag := Diagnostic{Kind: DiagSplit, Message: err.Error()}
		var splitErr *sqldump.SplitError
		if errors.As(err, &splitErr) {
			diag.Snippet = splitErr.Snippet
		}
		res.Diagnostics = append(res.Diagnostics, diag)
		log.Warn("statement rejected by splitter", "error", err)
	}

	if !anyInsert(stmts) {
		if fallback := sqldump.SplitOnKeyword(cleaned); len(fallback) > 0 {
			log.Info("no INSERT found by statement scan, using keyword split", "statements", len(fallback))
			stmts = fallback
			res.Fallback = true
		}
	}
	res.Statements = len(stmts)

	phase(PhaseParsingStatements)
	for _, stmt := range stmts {
		if !sqldump.IsInsert(stmt) {
			res.Ignored++
			log.Debug("ignoring non-INSERT statement", "statement", sqldump.Snippet(stmt))
			continue
		}

		pi, err := sqldump.ParseInsert(stmt, opts)
		if pi != nil {
			for _, re := range pi.RowErrors {
				res.RowsRejected++
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind:    DiagRow,
					Table:   re.Table,
					Message: re.Error(),
					Snippet: re.Snippet,
				})
				log.Warn("row dropped", "table", re.Table, "row", re.Row+1, "error", re.Err)
			}
		}
		if err != nil {
			res.Rejected++
			diag := Diagnostic{Kind: DiagParse, Message: err.Error(), Snippet: sqldump.Snippet(stmt)}
			var parseErr *sqldump.ParseError
			if errors.As(err, &parseErr) {
				diag.Table = parseErr.Table
			}
			res.Diagnostics = append(res.Diagnostics, diag)
			log.Warn("statement rejected", "table", diag.Table, "error", err)
			continue
		}

		res.Parsed++
		res.Inserts = append(res.Inserts, pi)
		log.Debug("statement parsed", "table", pi.Table, "columns", len(pi.Columns), "rows", len(pi.Rows))
	}

	phase(PhaseGrouping)
	res.Batches = groupBatches(res.Inserts)
	for _, b := range res.Batches {
		log.Debug("table grouped", "table", b.Table, "statements", b.Statements, "rows", len(b.Rows))
	}
	return res
}

func anyInsert(stmts []string) bool {
	for _, s := range stmts {
		if sqldump.IsInsert(s) {
			return true
		}
	}
	return false
}
