package sqldump

import "strings"

// Clean strips comments and collapses whitespace runs to a single space.
// Both happen only outside quoted text; string literals are copied verbatim.
//
// Recognised comments: "-- " to end of line, "#" to end of line and
// "/* ... */" (which also covers MySQL "/*!40101 ... */" version comments).
func Clean(sql string, opts Options) string {
	var (
		b       strings.Builder
		inQuote bool
		quote   byte
		space   bool
	)
	b.Grow(len(sql))

	flushSpace := func() {
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if inQuote {
			b.WriteByte(c)
			switch {
			case c == '\\' && opts.BackslashEscapes && quote != '`' && i+1 < len(sql):
				i++
				b.WriteByte(sql[i])
			case c == quote:
				if i+1 < len(sql) && sql[i+1] == quote {
					i++
					b.WriteByte(sql[i])
					continue
				}
				inQuote = false
			}
			continue
		}

		switch {
		case isSpace(c):
			space = true
			continue
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-' && (i+2 == len(sql) || isSpace(sql[i+2])):
			i = skipLine(sql, i)
			space = true
			continue
		case c == '#':
			i = skipLine(sql, i)
			space = true
			continue
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = len(sql)
			} else {
				i += end + 3
			}
			space = true
			continue
		}

		flushSpace()
		b.WriteByte(c)
		if c == '\'' || c == '"' || c == '`' {
			inQuote = true
			quote = c
		}
	}

	return strings.TrimSpace(b.String())
}

// skipLine returns the index of the newline ending the line that contains i,
// or the last index of sql.
func skipLine(sql string, i int) int {
	if nl := strings.IndexByte(sql[i:], '\n'); nl >= 0 {
		return i + nl
	}
	return len(sql) - 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
