package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriter(&buf)

	if got := u.Header("sqlimport"); got != "=== sqlimport ===" {
		t.Errorf("Expected plain header, got %q", got)
	}
	if got := u.Success("connected"); got != "[OK] connected" {
		t.Errorf("Expected [OK] prefix, got %q", got)
	}
	if got := u.Error("boom"); got != "[FAILED] boom" {
		t.Errorf("Expected [FAILED] prefix, got %q", got)
	}

	u.PrintTableResult("users", StatusSuccess, "3 rows in 12ms", "")
	u.PrintTableResult("ghosts", StatusError, "", `table "ghosts" does not exist`)

	out := buf.String()
	if !strings.Contains(out, "users:") || !strings.Contains(out, "3 rows in 12ms") {
		t.Errorf("Missing success line in %q", out)
	}
	if !strings.Contains(out, "ghosts:") || !strings.Contains(out, "FAILED") {
		t.Errorf("Missing failure line in %q", out)
	}
	if !strings.Contains(out, `Error: table "ghosts" does not exist`) {
		t.Errorf("Missing error detail in %q", out)
	}
}

func TestSummaryBoxPlain(t *testing.T) {
	u := NewWriter(&bytes.Buffer{})
	box := u.SummaryBox("Import Summary", []KV{
		{Key: "Records", Value: "3"},
		{Key: "Status", Value: "Success"},
	})
	if !strings.Contains(box, "=== Import Summary ===") {
		t.Errorf("Missing title in %q", box)
	}
	if !strings.Contains(box, "Status:") || !strings.Contains(box, "Success") {
		t.Errorf("Missing status in %q", box)
	}
}

func TestSpinnerPlain(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriter(&buf)

	s := u.NewSpinner("Connecting")
	s.Start()
	s.Success("connected")
	s.Error("ignored after stop")

	if got := buf.String(); got != "Connecting... connected\n" {
		t.Errorf("Unexpected spinner output %q", got)
	}
}

func TestProgressBarPlainIsSilent(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriter(&buf).NewProgressBar("users", 10)
	p.Update(5)
	p.Clear()

	if buf.Len() != 0 {
		t.Errorf("Expected no plain output, got %q", buf.String())
	}
	if p.Current() != 5 {
		t.Errorf("Expected current 5, got %d", p.Current())
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"millis", FormatDuration(250 * time.Millisecond), "250ms"},
		{"seconds", FormatDuration(1500 * time.Millisecond), "1.5s"},
		{"minutes", FormatDuration(90 * time.Second), "1.5m"},
		{"count", FormatCount(999), "999"},
		{"thousands", FormatCount(1500), "1.5K"},
		{"millions", FormatCount(2_000_000), "2.0M"},
		{"bytes", FormatBytes(512), "512 B"},
		{"kib", FormatBytes(2048), "2.0 KB"},
		{"singular", Plural(1, "row"), "1 row"},
		{"plural", Plural(2, "row"), "2 rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}
