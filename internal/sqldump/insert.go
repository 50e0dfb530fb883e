package sqldump

import (
	"fmt"
	"regexp"
	"strings"
)

// ParsedInsert is one INSERT statement broken into its parts. Every row in
// Rows has exactly len(Columns) values.
type ParsedInsert struct {
	Schema    string
	Table     string
	Columns   []string
	Rows      []Row
	RowErrors []*RowError
}

var (
	insertHead    = regexp.MustCompile(`(?is)^\s*INSERT\s+(?:IGNORE\s+)?INTO\s+`)
	valuesKeyword = regexp.MustCompile(`(?i)^VALUES?\b`)
)

// ParseInsert parses a single INSERT [IGNORE] INTO statement.
//
// Statement-level failures are returned as *ParseError. Rows that cannot be
// lexed, and rows with the wrong value count when opts.StrictRows is false,
// are moved to RowErrors. When no row survives, the partial result is
// returned together with ErrNoRows so those row errors are not lost.
func ParseInsert(stmt string, opts Options) (*ParsedInsert, error) {
	fail := func(table string, err error) error {
		return &ParseError{Table: table, Snippet: Snippet(stmt), Err: err}
	}

	loc := insertHead.FindStringIndex(stmt)
	if loc == nil {
		return nil, fail("", ErrNotInsert)
	}
	rest := stmt[loc[1]:]

	schema, table, n, ok := parseTableName(rest)
	if !ok {
		return nil, fail("", ErrMissingTable)
	}
	rest = strings.TrimLeft(rest[n:], " \t\r\n")

	if !strings.HasPrefix(rest, "(") {
		return nil, fail(table, ErrMissingColumns)
	}
	end := closingParen(rest, opts)
	if end < 0 {
		return nil, fail(table, fmt.Errorf("%w: unterminated column list", ErrMissingColumns))
	}
	columns, err := parseColumns(rest[1:end])
	if err != nil {
		return nil, fail(table, err)
	}
	rest = strings.TrimLeft(rest[end+1:], " \t\r\n")

	kw := valuesKeyword.FindString(rest)
	if kw == "" {
		return nil, fail(table, ErrMissingValues)
	}
	rest = rest[len(kw):]

	pi := &ParsedInsert{Schema: schema, Table: table, Columns: columns}
	spans := splitRows(rest, opts)
	if len(spans) == 0 {
		return nil, fail(table, ErrNoRows)
	}

	for i, span := range spans {
		dropRow := func(err error) {
			pi.RowErrors = append(pi.RowErrors, &RowError{
				Table:   table,
				Row:     i,
				Snippet: Snippet(span.text),
				Err:     err,
			})
		}

		if span.err != nil {
			dropRow(span.err)
			continue
		}

		row, err := LexValues(span.text, opts)
		if err != nil {
			dropRow(err)
			continue
		}

		if len(row) != len(columns) {
			cerr := &ColumnCountError{Row: i, Columns: len(columns), Values: len(row)}
			if opts.StrictRows {
				return nil, fail(table, cerr)
			}
			dropRow(cerr)
			continue
		}

		pi.Rows = append(pi.Rows, row)
	}

	if len(pi.Rows) == 0 {
		return pi, fail(table, ErrNoRows)
	}
	return pi, nil
}

// rowSpan is the text between one row's outer parentheses.
type rowSpan struct {
	text string
	err  error
}

// splitRows cuts a VALUES clause into rows. Depth transitions 0->1 and 1->0
// mark row boundaries; parentheses at deeper levels or inside quotes are part
// of the row. Anything else at depth zero other than commas and whitespace
// ends the clause (for example ON DUPLICATE KEY UPDATE).
func splitRows(s string, opts Options) []rowSpan {
	var (
		spans   []rowSpan
		inQuote bool
		quote   byte
		depth   int
		start   int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inQuote {
			switch {
			case c == '\\' && opts.BackslashEscapes:
				i++
			case c == quote:
				if i+1 < len(s) && s[i+1] == quote {
					i++
					continue
				}
				inQuote = false
			}
			continue
		}

		if depth == 0 {
			switch {
			case c == '(':
				depth = 1
				start = i + 1
			case c == ',' || c == ';' || isSpace(c):
			default:
				return spans
			}
			continue
		}

		switch c {
		case '\'', '"':
			inQuote = true
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				spans = append(spans, rowSpan{text: s[start:i]})
			}
		}
	}

	if depth > 0 {
		err := &LexError{Offset: start, Reason: fmt.Sprintf("unterminated row (depth %d)", depth)}
		if inQuote {
			err.Reason = fmt.Sprintf("unclosed quote %q", quote)
		}
		spans = append(spans, rowSpan{text: s[start:], err: err})
	}
	return spans
}

// closingParen returns the index of the parenthesis closing s[0], or -1.
func closingParen(s string, opts Options) int {
	var (
		inQuote bool
		quote   byte
		depth   int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch {
			case c == '\\' && opts.BackslashEscapes && quote != '`':
				i++
			case c == quote:
				if i+1 < len(s) && s[i+1] == quote {
					i++
					continue
				}
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			inQuote = true
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseTableName reads an optionally schema-qualified table name and returns
// the number of bytes consumed.
func parseTableName(s string) (schema, table string, n int, ok bool) {
	first, n, ok := parseIdent(s)
	if !ok {
		return "", "", 0, false
	}
	if n < len(s) && s[n] == '.' {
		second, m, ok := parseIdent(s[n+1:])
		if !ok {
			return "", "", 0, false
		}
		return first, second, n + 1 + m, true
	}
	return "", first, n, true
}

// parseIdent reads one identifier, bare or quoted with backticks or double
// quotes. A doubled quote inside a quoted identifier is a literal quote.
func parseIdent(s string) (string, int, bool) {
	if s == "" {
		return "", 0, false
	}

	if q := s[0]; q == '`' || q == '"' {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] != q {
				b.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == q {
				b.WriteByte(q)
				i++
				continue
			}
			if b.Len() == 0 {
				return "", 0, false
			}
			return b.String(), i + 1, true
		}
		return "", 0, false
	}

	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	if i == 0 {
		return "", 0, false
	}
	return s[:i], i, true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

// parseColumns splits and unquotes a column list.
func parseColumns(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrMissingColumns
	}

	parts := splitIdentList(s)
	columns := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		name, n, ok := parseIdent(part)
		if !ok || n != len(part) {
			return nil, fmt.Errorf("%w: bad column %q", ErrMissingColumns, part)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[key] = true
		columns = append(columns, name)
	}
	return columns, nil
}

// splitIdentList splits on commas outside quoted identifiers.
func splitIdentList(s string) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"':
			quote = c
		case c == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
