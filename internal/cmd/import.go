package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willfong/sqlimport/internal/config"
	"github.com/willfong/sqlimport/internal/database"
	"github.com/willfong/sqlimport/internal/importer"
	"github.com/willfong/sqlimport/internal/source"
	"github.com/willfong/sqlimport/internal/ui"
)

// maxDiagnostics limits how many skipped statements are listed on screen;
// the report file always has all of them.
const maxDiagnostics = 10

var importSQL string

var importCmd = &cobra.Command{
	Use:   "import [dump.sql|dump.sql.gz|dump.sql.xz]",
	Short: "Import the INSERT statements of a SQL dump",
	Long: `Import the rows of every INSERT statement in a SQL dump.

Statements are grouped by table in the order tables first appear. For each
table the importer:
1. Checks that the table exists and maps the dump's columns onto it
2. Optionally empties the table (--clear-tables)
3. Inserts the rows in chunks inside one transaction

Anything that is not an INSERT is ignored. Statements or rows that cannot be
parsed are skipped and listed in the summary.

Examples:
  sqlimport import dump.sql --db "user:pass@tcp(localhost:3306)/shop"
  sqlimport import dump.sql.xz --db "..." --ignore-duplicates --chunk-size 5000
  sqlimport import --sql "INSERT INTO t (id) VALUES (1)" --driver sqlite --db file:shop.db
  sqlimport import dump.sql --db "..." --dry-run --report-file report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	flags := importCmd.Flags()
	flags.StringVar(&importSQL, "sql", "", "import this SQL text instead of a file")
	flags.String("db", "", "database connection string")
	flags.String("driver", config.DBDriver, "database driver: mysql, postgres or sqlite")
	flags.Int("db-max-open", config.DBMaxOpenConns, "max open database connections")
	flags.Int("db-max-idle", config.DBMaxIdleConns, "max idle database connections")
	flags.Bool("dry-run", false, "parse and validate, but write nothing")
	flags.Int("chunk-size", config.ChunkSize, "rows per INSERT")
	flags.Bool("skip-missing-columns", false, "drop dump columns the table does not have")
	flags.Bool("ignore-duplicates", false, "skip rows that violate a unique key")
	flags.Bool("clear-tables", false, "empty each table before importing into it")
	flags.Bool("strict-rows", config.StrictRows, "reject a statement when one row has the wrong number of values")
	flags.Bool("backslash-escapes", config.BackslashEscapes, "treat backslash as an escape in quoted strings")
	flags.String("report-file", "", "write the report to this .json or .yaml file")
}

// importFlagKeys maps viper keys to import flags. Keys shared with the parse
// command are bound when the command runs so the active command's flags win.
var importFlagKeys = map[string]string{
	"database.dsn":                "db",
	"database.driver":             "driver",
	"database.max_open_conns":     "db-max-open",
	"database.max_idle_conns":     "db-max-idle",
	"import.dry_run":              "dry-run",
	"import.chunk_size":           "chunk-size",
	"import.skip_missing_columns": "skip-missing-columns",
	"import.ignore_duplicates":    "ignore-duplicates",
	"import.clear_tables":         "clear-tables",
	"import.strict_rows":          "strict-rows",
	"import.backslash_escapes":    "backslash-escapes",
	"import.report_file":          "report-file",
}

func runImport(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), importFlagKeys)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	in := inputFrom(args)
	if in.Path == "" && in.SQL == "" {
		return source.ErrNoInput
	}

	u := newUI(cfg)
	log := newLogger(cfg)

	pool, err := database.NewPool(cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	mode := "import"
	if cfg.Import.DryRun {
		mode = "dry run (no writes)"
	}
	u.Println(u.Header("SQL Dump Importer"))
	u.Println("")
	u.Println(u.KeyValue("Source", in.Name()))
	u.Println(u.KeyValue("Database", pool.Dialect().MaskDSN(cfg.Database.DSN)))
	u.Println(u.KeyValue("Driver", pool.Dialect().Name))
	u.Println(u.KeyValue("Mode", mode))
	u.Println(u.KeyValue("Chunk size", fmt.Sprintf("%d rows", cfg.Import.ChunkSize)))
	u.Println("")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := u.NewSpinner("Connecting to database")
	spin.Start()
	if err := pool.Connect(ctx); err != nil {
		spin.Error("connection failed: " + err.Error())
		return errReported
	}
	spin.Success("connected!")

	im := importer.New(database.NewStore(pool), importer.OptionsFromConfig(cfg.Import), log)
	im.SetHooks(tableHooks(u))

	u.Section("Importing tables...")
	report, err := im.Run(ctx, in)
	if err != nil {
		return err
	}

	if len(report.Tables) == 0 {
		u.Println(u.Warning("no usable INSERT statements found"))
	}
	printDiagnostics(u, report.Diagnostics)
	u.Println(u.SummaryBox("Import Summary", summaryItems(report, pool.Stats())))

	if cfg.Import.ReportFile != "" {
		if err := report.WriteFile(cfg.Import.ReportFile); err != nil {
			return err
		}
		u.Println(u.Muted("Report written to " + cfg.Import.ReportFile))
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		u.Println(u.Warning("Import interrupted"))
	}
	if report.ExitCode() != 0 {
		return errReported
	}
	return nil
}

func inputFrom(args []string) source.Input {
	in := source.Input{SQL: importSQL}
	if len(args) > 0 {
		in.Path = args[0]
	}
	return in
}

// tableHooks draws a progress bar while a table is inserting and replaces it
// with the table's result line when it finishes.
func tableHooks(u *ui.UI) importer.Hooks {
	var bar *ui.ProgressBar
	return importer.Hooks{
		Progress: func(table string, done, total int) {
			if bar == nil {
				bar = u.NewProgressBar(table, total)
			}
			bar.Update(done)
		},
		Table: func(res importer.TableResult) {
			if bar != nil {
				bar.Clear()
				bar = nil
			}
			printTableResult(u, res)
		},
	}
}

func printTableResult(u *ui.UI, res importer.TableResult) {
	switch res.Status {
	case importer.StatusFailed:
		u.PrintTableResult(res.Table, ui.StatusError, "", res.Error)
		return
	case importer.StatusDryRun:
		u.PrintTableResult(res.Table, ui.StatusPending, "would insert "+ui.Plural(res.Records, "row"), "")
	default:
		detail := fmt.Sprintf("%s in %s", ui.Plural(res.Records, "row"), ui.FormatDuration(res.Duration.Std()))
		if res.Duplicates > 0 {
			detail += fmt.Sprintf(", %s skipped", ui.Plural(res.Duplicates, "duplicate"))
		}
		if res.Cleared != "" {
			detail += u.Muted(" (cleared with " + res.Cleared + ")")
		}
		status := ui.StatusSuccess
		if len(res.Warnings) > 0 {
			status = ui.StatusWarning
		}
		u.PrintTableResult(res.Table, status, detail, "")
	}
	for _, w := range res.Warnings {
		u.Println("    " + u.Muted(w))
	}
}

func printDiagnostics(u *ui.UI, diags []importer.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	u.Section(fmt.Sprintf("Skipped (%d)", len(diags)))
	for i, d := range diags {
		if i == maxDiagnostics {
			u.Println(u.Muted(fmt.Sprintf("  ... and %d more", len(diags)-maxDiagnostics)))
			break
		}
		u.Println("  " + u.Warning(fmt.Sprintf("%s: %s", d.Kind, d.Message)))
		if d.Snippet != "" {
			u.Println("    " + u.Muted(d.Snippet))
		}
	}
}

func summaryItems(r *importer.Report, stats database.PoolStats) []ui.KV {
	items := []ui.KV{
		{Key: "Run ID", Value: r.RunID},
		{Key: "Tables", Value: fmt.Sprintf("%d imported / %d failed", r.Tally.Succeeded, r.Tally.Failed)},
		{Key: "Records", Value: ui.FormatCount(r.Tally.Records)},
		{Key: "Statements", Value: fmt.Sprintf("%d parsed / %d ignored / %d rejected", r.Tally.Parsed, r.Tally.Ignored, r.Tally.Rejected)},
	}
	if r.Tally.Duplicates > 0 {
		items = append(items, ui.KV{Key: "Duplicates", Value: ui.FormatCount(r.Tally.Duplicates)})
	}
	if r.Tally.RowsRejected > 0 {
		items = append(items, ui.KV{Key: "Rows dropped", Value: ui.FormatCount(r.Tally.RowsRejected)})
	}
	items = append(items,
		ui.KV{Key: "Queries", Value: fmt.Sprintf("%d (%d failed, avg %s)", stats.TotalQueries, stats.FailedQueries, ui.FormatDuration(stats.AvgLatency))},
		ui.KV{Key: "Total time", Value: ui.FormatDuration(r.Duration.Std())},
	)

	switch {
	case r.Failed():
		items = append(items, ui.KV{Key: "Status", Value: "Failed"})
	case r.DryRun:
		items = append(items, ui.KV{Key: "Status", Value: "Dry run"})
	default:
		items = append(items, ui.KV{Key: "Status", Value: "Success"})
	}
	return items
}
