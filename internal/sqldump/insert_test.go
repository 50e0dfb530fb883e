package sqldump

import (
	"errors"
	"strings"
	"testing"
)

func TestParseInsert(t *testing.T) {
	t.Run("WellFormed", func(t *testing.T) {
		pi, err := ParseInsert("INSERT INTO t (c1,c2) VALUES (1,'a'),(2,'b');", DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if pi.Table != "t" {
			t.Errorf("Expected table 't', got '%s'", pi.Table)
		}
		if strings.Join(pi.Columns, ",") != "c1,c2" {
			t.Errorf("Expected columns [c1 c2], got %v", pi.Columns)
		}
		want := []Row{
			{Integer(1), Text("a")},
			{Integer(2), Text("b")},
		}
		if len(pi.Rows) != len(want) {
			t.Fatalf("Expected %d rows, got %d", len(want), len(pi.Rows))
		}
		for i := range want {
			if !pi.Rows[i].Equal(want[i]) {
				t.Errorf("Row %d: expected %v, got %v", i, want[i], pi.Rows[i])
			}
		}
		if len(pi.RowErrors) != 0 {
			t.Errorf("Expected no row errors, got %v", pi.RowErrors)
		}
	})

	t.Run("QuotedSchemaQualified", func(t *testing.T) {
		pi, err := ParseInsert("INSERT IGNORE INTO `shop`.`my table` (`id`, `na``me`) VALUE (1, 'x')", DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if pi.Schema != "shop" || pi.Table != "my table" {
			t.Errorf("Expected shop.my table, got %s.%s", pi.Schema, pi.Table)
		}
		if len(pi.Columns) != 2 || pi.Columns[1] != "na`me" {
			t.Errorf("Expected columns [id na`me], got %v", pi.Columns)
		}
	})

	t.Run("CaseAndWhitespace", func(t *testing.T) {
		pi, err := ParseInsert("  insert \n into  t(a)values(1)", DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if pi.Table != "t" || len(pi.Rows) != 1 {
			t.Errorf("Expected one row for t, got %+v", pi)
		}
	})

	t.Run("DoubleQuotedIdentifiers", func(t *testing.T) {
		pi, err := ParseInsert(`INSERT INTO "public"."users" ("id") VALUES (1)`, DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if pi.Schema != "public" || pi.Table != "users" || pi.Columns[0] != "id" {
			t.Errorf("Unexpected parse %+v", pi)
		}
	})

	t.Run("TrailingClause", func(t *testing.T) {
		pi, err := ParseInsert("INSERT INTO t (a,b) VALUES (1,2),(3,4) ON DUPLICATE KEY UPDATE b=VALUES(b)", DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(pi.Rows) != 2 {
			t.Errorf("Expected 2 rows, got %d", len(pi.Rows))
		}
	})

	t.Run("NestedParentheses", func(t *testing.T) {
		pi, err := ParseInsert("INSERT INTO t (a,b) VALUES (1, CONCAT('(', 'x')), (2, '))')", DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := []Row{
			{Integer(1), Raw("CONCAT('(', 'x')")},
			{Integer(2), Text("))")},
		}
		if len(pi.Rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(pi.Rows))
		}
		for i := range want {
			if !pi.Rows[i].Equal(want[i]) {
				t.Errorf("Row %d: expected %v, got %v", i, want[i], pi.Rows[i])
			}
		}
	})

	t.Run("JSONPayload", func(t *testing.T) {
		pi, err := ParseInsert(`INSERT INTO t (id,doc) VALUES (1,'{"a":1,"b":2}')`, DefaultOptions())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(pi.Rows[0]) != 2 {
			t.Fatalf("Expected 2 values, got %d", len(pi.Rows[0]))
		}
		if pi.Rows[0][1].Text != `{"a":1,"b":2}` {
			t.Errorf("Unexpected payload %q", pi.Rows[0][1].Text)
		}
	})
}

func TestParseInsertErrors(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want error
	}{
		{"not an insert", "UPDATE t SET a=1", ErrNotInsert},
		{"missing table", "INSERT INTO (a) VALUES (1)", ErrMissingTable},
		{"missing columns", "INSERT INTO t VALUES (1)", ErrMissingColumns},
		{"empty columns", "INSERT INTO t () VALUES (1)", ErrMissingColumns},
		{"duplicate column", "INSERT INTO t (a, A) VALUES (1, 2)", ErrDuplicateColumn},
		{"missing values", "INSERT INTO t (a) (1)", ErrMissingValues},
		{"no rows", "INSERT INTO t (a) VALUES", ErrNoRows},
		{"column count", "INSERT INTO t (a,b) VALUES (1,2),(3)", ErrColumnCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInsert(tt.stmt, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseInsertColumnCount(t *testing.T) {
	stmt := "INSERT INTO t (a,b) VALUES (1,2),(3),(4,5)"

	t.Run("StrictRejectsStatement", func(t *testing.T) {
		pi, err := ParseInsert(stmt, DefaultOptions())
		if pi != nil {
			t.Errorf("Expected no result, got %+v", pi)
		}
		var countErr *ColumnCountError
		if !errors.As(err, &countErr) {
			t.Fatalf("Expected *ColumnCountError, got %v", err)
		}
		if countErr.Row != 1 || countErr.Columns != 2 || countErr.Values != 1 {
			t.Errorf("Unexpected counts %+v", countErr)
		}
		if !strings.Contains(err.Error(), "row 2 has 1 values, expected 2") {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("LenientDropsRow", func(t *testing.T) {
		opts := DefaultOptions()
		opts.StrictRows = false

		pi, err := ParseInsert(stmt, opts)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(pi.Rows) != 2 {
			t.Errorf("Expected 2 rows kept, got %d", len(pi.Rows))
		}
		if len(pi.RowErrors) != 1 {
			t.Fatalf("Expected 1 row error, got %d", len(pi.RowErrors))
		}
		if pi.RowErrors[0].Row != 1 || !errors.Is(pi.RowErrors[0], ErrColumnCount) {
			t.Errorf("Unexpected row error %v", pi.RowErrors[0])
		}
	})

	t.Run("AllRowsDropped", func(t *testing.T) {
		opts := DefaultOptions()
		opts.StrictRows = false

		pi, err := ParseInsert("INSERT INTO t (a,b) VALUES (1)", opts)
		if !errors.Is(err, ErrNoRows) {
			t.Fatalf("Expected ErrNoRows, got %v", err)
		}
		if pi == nil || len(pi.RowErrors) != 1 {
			t.Errorf("Expected the dropped row to be reported, got %+v", pi)
		}
	})
}

func TestParseInsertUnclosedQuoteDropsRow(t *testing.T) {
	pi, err := ParseInsert("INSERT INTO t (a) VALUES (1),('x", DefaultOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pi.Rows) != 1 {
		t.Errorf("Expected 1 row kept, got %d", len(pi.Rows))
	}
	if len(pi.RowErrors) != 1 {
		t.Fatalf("Expected 1 row error, got %d", len(pi.RowErrors))
	}
	var lexErr *LexError
	if !errors.As(pi.RowErrors[0], &lexErr) {
		t.Fatalf("Expected *LexError, got %v", pi.RowErrors[0].Err)
	}
	if !strings.Contains(lexErr.Reason, "unclosed quote") {
		t.Errorf("Unexpected reason %q", lexErr.Reason)
	}
}

func TestParseInsertEmptyValueDropsRow(t *testing.T) {
	pi, err := ParseInsert("INSERT INTO t (a,b) VALUES (1,,2),(3,4)", DefaultOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pi.Rows) != 1 || len(pi.RowErrors) != 1 {
		t.Errorf("Expected 1 row and 1 row error, got %d and %d", len(pi.Rows), len(pi.RowErrors))
	}
}
