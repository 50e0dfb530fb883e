package sqldump

import (
	"fmt"
	"regexp"
	"strings"
)

// SplitError reports a trailing statement that never became balanced.
type SplitError struct {
	Offset  int
	Depth   int
	Quote   byte
	Snippet string
}

func (e *SplitError) Error() string {
	if e.Quote != 0 {
		return fmt.Sprintf("statement at offset %d has an unclosed quote %q near %q", e.Offset, e.Quote, e.Snippet)
	}
	return fmt.Sprintf("statement at offset %d has unbalanced parentheses (depth %d) near %q", e.Offset, e.Depth, e.Snippet)
}

// Split cuts cleaned SQL text into top-level statements. A semicolon ends a
// statement only outside quotes and at parenthesis depth zero. End of input
// ends the final statement when it is balanced; otherwise that statement is
// dropped and a *SplitError is returned alongside the earlier statements.
func Split(sql string, opts Options) ([]string, error) {
	var (
		stmts   []string
		inQuote bool
		quote   byte
		escaped bool
		depth   int
		start   int
	)

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if inQuote {
			switch {
			case escaped:
				escaped = false
			case c == '\\' && opts.BackslashEscapes && quote != '`':
				escaped = true
			case c == quote:
				if i+1 < len(sql) && sql[i+1] == quote {
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
		case ';':
			if depth != 0 {
				continue
			}
			if stmt := strings.TrimSpace(sql[start:i]); stmt != "" {
				stmts = append(stmts, stmt)
			}
			start = i + 1
		}
	}

	rest := strings.TrimSpace(sql[start:])
	if rest == "" {
		return stmts, nil
	}
	if inQuote || depth != 0 {
		err := &SplitError{Offset: start, Depth: depth, Snippet: Snippet(rest)}
		if inQuote {
			err.Quote = quote
		}
		return stmts, err
	}
	return append(stmts, rest), nil
}

var insertKeyword = regexp.MustCompile(`(?i)\bINSERT\s+(?:IGNORE\s+)?INTO\b`)

// SplitOnKeyword cuts sql at every INSERT INTO keyword, each statement running
// to the next keyword or end of input. It ignores quoting entirely and is
// meant as a fallback when Split finds no INSERT statements.
func SplitOnKeyword(sql string) []string {
	locs := insertKeyword.FindAllStringIndex(sql, -1)
	stmts := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(sql)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		stmt := strings.TrimSpace(sql[loc[0]:end])
		stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// IsInsert reports whether stmt starts with INSERT [IGNORE] INTO.
func IsInsert(stmt string) bool {
	return insertHead.MatchString(stmt)
}

// Snippet returns a single-line preview of s, at most 120 runes long.
func Snippet(s string) string {
	const maxRunes = 120

	snippet := strings.Join(strings.Fields(s), " ")
	if snippet == "" {
		return "<empty>"
	}

	runes := []rune(snippet)
	if len(runes) > maxRunes {
		snippet = string(runes[:maxRunes-1]) + "…"
	}
	return snippet
}
