package sqldump

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Arg converts v to a database/sql argument without interpreting raw tokens.
// Floats bind as their literal text so DECIMAL columns receive every digit;
// the target parses the text with its own numeric rules.
func (v Value) Arg() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInteger:
		return v.Int
	default:
		return v.Text
	}
}

// Resolver converts values to database/sql arguments, giving MySQL meaning to
// raw tokens that other targets would reject: boolean keywords, hex and bit
// literals, charset introducers and clock functions.
type Resolver struct {
	// Now is the instant bound for NOW(), CURDATE() and friends. One run uses
	// one instant so every row sees the same timestamp.
	Now time.Time

	Options Options
}

var (
	hexNumber   = regexp.MustCompile(`^0[xX]([0-9a-fA-F]+)$`)
	hexString   = regexp.MustCompile(`^[xX]'([0-9a-fA-F]*)'$`)
	bitString   = regexp.MustCompile(`^(?:[bB]'([01]+)'|0b([01]+))$`)
	introducer  = regexp.MustCompile(`^_([A-Za-z0-9]+)\s*(['"].*)$`)
	national    = regexp.MustCompile(`^[nN]('.*)$`)
	clockCall   = regexp.MustCompile(`(?i)^(NOW|CURRENT_TIMESTAMP|LOCALTIME|LOCALTIMESTAMP|SYSDATE|UTC_TIMESTAMP|CURDATE|CURRENT_DATE|UTC_DATE|CURTIME|CURRENT_TIME|UTC_TIME)(?:\s*\(\s*\d*\s*\))?$`)
)

// Arg converts v, resolving raw tokens where it can. Unrecognised raw tokens
// are passed through as their literal text.
func (r Resolver) Arg(v Value) any {
	if v.Kind != KindRaw {
		return v.Arg()
	}
	return r.resolveRaw(v.Text)
}

// Args converts a whole row.
func (r Resolver) Args(row Row) []any {
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = r.Arg(v)
	}
	return args
}

func (r Resolver) resolveRaw(tok string) any {
	switch strings.ToUpper(tok) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}

	if m := hexNumber.FindStringSubmatch(tok); m != nil {
		return decodeHex(m[1], tok)
	}
	if m := hexString.FindStringSubmatch(tok); m != nil {
		return decodeHex(m[1], tok)
	}
	if m := bitString.FindStringSubmatch(tok); m != nil {
		bits := m[1] + m[2]
		if n, err := strconv.ParseInt(bits, 2, 64); err == nil {
			return n
		}
		return tok
	}
	if m := introducer.FindStringSubmatch(tok); m != nil {
		if text, ok := decodeQuoted(m[2], r.Options); ok {
			if strings.EqualFold(m[1], "binary") {
				return []byte(text)
			}
			return text
		}
		return tok
	}
	if m := national.FindStringSubmatch(tok); m != nil {
		if text, ok := decodeQuoted(m[1], r.Options); ok {
			return text
		}
		return tok
	}
	if m := clockCall.FindStringSubmatch(tok); m != nil {
		return r.clock(strings.ToUpper(m[1]))
	}
	return tok
}

func (r Resolver) clock(fn string) any {
	now := r.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch fn {
	case "UTC_TIMESTAMP":
		return now.UTC()
	case "CURDATE", "CURRENT_DATE":
		return now.Format(time.DateOnly)
	case "UTC_DATE":
		return now.UTC().Format(time.DateOnly)
	case "CURTIME", "CURRENT_TIME":
		return now.Format(time.TimeOnly)
	case "UTC_TIME":
		return now.UTC().Format(time.TimeOnly)
	default:
		return now
	}
}

func decodeHex(digits, tok string) any {
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return tok
	}
	return b
}
