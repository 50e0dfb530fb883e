package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willfong/sqlimport/internal/config"
	"github.com/willfong/sqlimport/internal/importer"
	"github.com/willfong/sqlimport/internal/source"
	"github.com/willfong/sqlimport/internal/sqldump"
	"github.com/willfong/sqlimport/internal/ui"
)

var (
	parseSQL  string
	parseRows int
)

var parseCmd = &cobra.Command{
	Use:   "parse [dump.sql|dump.sql.gz|dump.sql.xz]",
	Short: "Show what a dump contains without touching a database",
	Long: `Parse a SQL dump and list the tables, columns and row counts its INSERT
statements would import, plus every statement or row that would be skipped.

Examples:
  sqlimport parse dump.sql
  sqlimport parse dump.sql.gz --rows 3
  sqlimport parse --sql "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	flags := parseCmd.Flags()
	flags.StringVar(&parseSQL, "sql", "", "parse this SQL text instead of a file")
	flags.IntVar(&parseRows, "rows", 0, "preview the first N rows of each table")
	flags.Bool("strict-rows", config.StrictRows, "reject a statement when one row has the wrong number of values")
	flags.Bool("backslash-escapes", config.BackslashEscapes, "treat backslash as an escape in quoted strings")
}

var parseFlagKeys = map[string]string{
	"import.strict_rows":       "strict-rows",
	"import.backslash_escapes": "backslash-escapes",
}

func runParse(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), parseFlagKeys)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Import.Validate(); err != nil {
		return err
	}

	in := source.Input{SQL: parseSQL}
	if len(args) > 0 {
		in.Path = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	text, err := in.Read(ctx)
	if err != nil {
		return &importer.InputError{Source: in.Name(), Err: err}
	}

	opts := importer.OptionsFromConfig(cfg.Import).Parse
	res := importer.Parse(text, opts, newLogger(cfg))

	u := newUI(cfg)
	u.Println(u.Header("SQL Dump Preview"))
	u.Println("")
	u.Println(u.KeyValue("Source", in.Name()))
	u.Println(u.KeyValue("Size", ui.FormatBytes(int64(len(text)))))
	if res.Fallback {
		u.Println(u.Warning("statement boundaries not found, split on INSERT keywords instead"))
	}

	u.Section("Tables")
	if len(res.Batches) == 0 {
		u.Println(u.Warning("no usable INSERT statements found"))
	}
	for _, b := range res.Batches {
		printBatch(u, b, opts)
	}

	printDiagnostics(u, res.Diagnostics)

	u.Println(u.SummaryBox("Parse Summary", []ui.KV{
		{Key: "Tables", Value: fmt.Sprintf("%d", len(res.Batches))},
		{Key: "Rows", Value: ui.FormatCount(batchRows(res.Batches))},
		{Key: "Statements", Value: fmt.Sprintf("%d parsed / %d ignored / %d rejected", res.Parsed, res.Ignored, res.Rejected)},
		{Key: "Rows dropped", Value: ui.FormatCount(res.RowsRejected)},
	}))

	if res.Parsed == 0 {
		return errReported
	}
	return nil
}

func printBatch(u *ui.UI, b *importer.TableBatch, opts sqldump.Options) {
	if b.Err != nil {
		u.PrintTableResult(b.Table, ui.StatusError, "", b.Err.Error())
		return
	}

	detail := fmt.Sprintf("%s from %s", ui.Plural(len(b.Rows), "row"), ui.Plural(b.Statements, "statement"))
	u.PrintTableResult(b.Table, ui.StatusSuccess, detail, "")
	u.Println("    " + u.Muted("("+strings.Join(b.Columns, ", ")+")"))

	for i, row := range b.Rows {
		if i == parseRows {
			break
		}
		vals := make([]string, len(row))
		for j, val := range row {
			vals[j] = val.String()
			if val.Kind == sqldump.KindText {
				vals[j] = opts.Quote(val.Text)
			}
		}
		u.Println("    " + sqldump.Snippet("("+strings.Join(vals, ", ")+")"))
	}
}

func batchRows(batches []*importer.TableBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Rows)
	}
	return n
}
