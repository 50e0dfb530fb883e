package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the outcome of one table.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry-run"
)

// Duration marshals as a human-readable string in JSON and YAML reports.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Std().Round(time.Millisecond).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TableResult is the outcome of one table.
type TableResult struct {
	Table          string   `json:"table" yaml:"table"`
	Status         Status   `json:"status" yaml:"status"`
	Records        int      `json:"records" yaml:"records"`
	Duplicates     int      `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	DroppedRows    int      `json:"dropped_rows,omitempty" yaml:"dropped_rows,omitempty"`
	DroppedColumns []string `json:"dropped_columns,omitempty" yaml:"dropped_columns,omitempty"`
	Cleared        string   `json:"cleared,omitempty" yaml:"cleared,omitempty"`
	Warnings       []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error          string   `json:"error,omitempty" yaml:"error,omitempty"`
	Duration       Duration `json:"duration" yaml:"duration"`
}

// DiagnosticKind says which stage produced a diagnostic.
type DiagnosticKind string

const (
	DiagSplit DiagnosticKind = "split"
	DiagParse DiagnosticKind = "parse"
	DiagRow   DiagnosticKind = "row"
)

// Diagnostic records a statement or row that was skipped before loading.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Table   string         `json:"table,omitempty" yaml:"table,omitempty"`
	Message string         `json:"message" yaml:"message"`
	Snippet string         `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// Tally sums up a run.
type Tally struct {
	Tables       int `json:"tables" yaml:"tables"`
	Succeeded    int `json:"succeeded" yaml:"succeeded"`
	Failed       int `json:"failed" yaml:"failed"`
	Records      int `json:"records" yaml:"records"`
	Duplicates   int `json:"duplicates" yaml:"duplicates"`
	Statements   int `json:"statements" yaml:"statements"`
	Parsed       int `json:"parsed" yaml:"parsed"`
	Ignored      int `json:"ignored" yaml:"ignored"`
	Rejected     int `json:"rejected" yaml:"rejected"`
	RowsRejected int `json:"rows_rejected" yaml:"rows_rejected"`
}

// Report is the result of one run. Importer.Run builds it and hands it
// back; nothing else holds on to it.
type Report struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Source      string        `json:"source" yaml:"source"`
	DryRun      bool          `json:"dry_run" yaml:"dry_run"`
	Fallback    bool          `json:"keyword_fallback,omitempty" yaml:"keyword_fallback,omitempty"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	Duration    Duration      `json:"duration" yaml:"duration"`
	Tables      []TableResult `json:"tables" yaml:"tables"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Tally       Tally         `json:"tally" yaml:"tally"`
}

func (r *Report) addTable(res TableResult) {
	r.Tables = append(r.Tables, res)
	r.Tally.Tables++
	switch res.Status {
	case StatusFailed:
		r.Tally.Failed++
	default:
		r.Tally.Succeeded++
		r.Tally.Records += res.Records
		r.Tally.Duplicates += res.Duplicates
	}
}

// Table returns the result for table, if it was processed.
func (r *Report) Table(table string) (TableResult, bool) {
	for _, res := range r.Tables {
		if res.Table == table {
			return res, true
		}
	}
	return TableResult{}, false
}

// Failed reports whether the run should be treated as a failure: a table
// failed, or the input produced no usable statement.
func (r *Report) Failed() bool {
	return r.Tally.Failed > 0 || r.Tally.Parsed == 0
}

// ExitCode returns the process exit status for the run.
func (r *Report) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// WriteFile writes the report as JSON or YAML, chosen by extension.
func (r *Report) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		return fmt.Errorf("unsupported report format %q (use .json or .yaml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
