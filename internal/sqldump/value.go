// Package sqldump parses the INSERT statements found in MySQL-flavoured SQL
// dumps without a general SQL parser.
//
// The pipeline is Clean -> Split -> ParseInsert. ParseInsert uses
// LexValues to turn each parenthesised row into typed values.
//
// Escaping policy: inside a quoted value a doubled delimiter ('' or "") is
// always a literal delimiter. With Options.BackslashEscapes (the default,
// matching MySQL) a backslash escapes the next character. The control
// escapes \0 \b \n \r \t \Z decode to their control characters, \% and \_
// keep their backslash, and any other pair decodes to the escaped character.
// Without BackslashEscapes (NO_BACKSLASH_ESCAPES, PostgreSQL standard
// strings) backslashes are literal.
package sqldump

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindRaw
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is a single scalar from a VALUES row.
//
// Text holds the decoded string for KindText and the literal source token
// for KindInteger, KindFloat and KindRaw.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// Row is one parenthesised value list.
type Row []Value

// Null returns a NULL value.
func Null() Value {
	return Value{Kind: KindNull}
}

// Integer returns an integer value.
func Integer(i int64) Value {
	return Value{Kind: KindInteger, Int: i, Text: strconv.FormatInt(i, 10)}
}

// Float returns a float value keeping the literal it was parsed from.
func Float(f float64, literal string) Value {
	if literal == "" {
		literal = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return Value{Kind: KindFloat, Float: f, Text: literal}
}

// Text returns a decoded string value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Raw returns an unclassified token kept verbatim.
func Raw(tok string) Value {
	return Value{Kind: KindRaw, Text: tok}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInteger:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	default:
		return v.Text == o.Text
	}
}

// String renders v as a SQL literal using backslash escaping.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindText:
		return QuoteString(v.Text)
	case KindInteger, KindFloat, KindRaw:
		return v.Text
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// Equal reports whether two rows hold equal values in the same order.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
