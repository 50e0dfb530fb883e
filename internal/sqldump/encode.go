package sqldump

import "strings"

var backslashReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// QuoteString renders s as a single-quoted MySQL literal using backslash
// escapes, the way mysqldump writes strings.
func QuoteString(s string) string {
	return "'" + backslashReplacer.Replace(s) + "'"
}

// Quote renders s as a single-quoted literal using the escaping convention
// selected by opts. Decoding the result with the same options yields s.
func (o Options) Quote(s string) string {
	if o.BackslashEscapes {
		return QuoteString(s)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
