package sqldump

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Options controls how quoted text and malformed rows are treated.
type Options struct {
	// BackslashEscapes enables MySQL backslash escapes inside quoted values.
	BackslashEscapes bool

	// StrictRows rejects a whole statement when one row has the wrong number
	// of values. When false the row is dropped and reported instead.
	StrictRows bool
}

// DefaultOptions returns the MySQL dump defaults.
func DefaultOptions() Options {
	return Options{
		BackslashEscapes: true,
		StrictRows:       true,
	}
}

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// LexError reports a value list that could not be tokenised.
type LexError struct {
	Offset int
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// LexValues tokenises the text between a row's outer parentheses into typed
// values. Commas separate values only outside quotes and at paren/brace depth
// zero, so JSON payloads and function calls stay intact.
func LexValues(s string, opts Options) (Row, error) {
	var (
		row        Row
		inQuote    bool
		quote      byte
		quoteStart int
		depth      int
		start      int
	)

	emit := func(end int) error {
		tok := strings.TrimSpace(s[start:end])
		if tok == "" {
			return &LexError{Offset: start, Reason: "empty value"}
		}
		row = append(row, classify(tok, opts))
		return nil
	}

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

		switch c {
		case '\'', '"':
			inQuote = true
			quote = c
			quoteStart = i
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ',':
			if depth == 0 {
				if err := emit(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}

	if inQuote {
		return nil, &LexError{Offset: quoteStart, Reason: fmt.Sprintf("unclosed quote %q", quote)}
	}
	if depth != 0 {
		return nil, &LexError{Offset: start, Reason: fmt.Sprintf("unbalanced brackets (depth %d)", depth)}
	}

	// An empty list is a valid zero-value row: "()".
	if strings.TrimSpace(s) == "" && len(row) == 0 {
		return Row{}, nil
	}
	if err := emit(len(s)); err != nil {
		return nil, err
	}
	return row, nil
}

// classify turns one trimmed token into a Value.
func classify(tok string, opts Options) Value {
	if strings.EqualFold(tok, "NULL") {
		return Null()
	}

	if c := tok[0]; c == '\'' || c == '"' {
		if text, ok := decodeQuoted(tok, opts); ok {
			return Text(text)
		}
		return Raw(tok)
	}

	if integerPattern.MatchString(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return Integer(i)
		}
		// Out of int64 range (BIGINT UNSIGNED); keep the digits exact.
		return Raw(tok)
	}

	if floatPattern.MatchString(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Float(f, tok)
		}
	}

	return Raw(tok)
}

// decodeQuoted decodes a token that starts with a quote. ok is true only when
// the token is exactly one quoted literal.
func decodeQuoted(tok string, opts Options) (string, bool) {
	q := tok[0]
	var b strings.Builder
	b.Grow(len(tok))

	for i := 1; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c == '\\' && opts.BackslashEscapes && i+1 < len(tok):
			i++
			unescapeInto(&b, tok[i])
		case c == q:
			if i+1 < len(tok) && tok[i+1] == q {
				b.WriteByte(q)
				i++
				continue
			}
			return b.String(), i == len(tok)-1
		default:
			b.WriteByte(c)
		}
	}
	return "", false
}

// unescapeInto writes the character denoted by a backslash escape.
func unescapeInto(b *strings.Builder, c byte) {
	switch c {
	case '0':
		b.WriteByte(0)
	case 'b':
		b.WriteByte('\b')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'Z':
		b.WriteByte(0x1a)
	case '%', '_':
		// LIKE wildcards keep their backslash.
		b.WriteByte('\\')
		b.WriteByte(c)
	default:
		b.WriteByte(c)
	}
}
