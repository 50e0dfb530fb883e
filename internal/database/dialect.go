package database

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Dialect holds what differs between target databases: the database/sql
// driver name, identifier quoting, placeholders and schema queries.
type Dialect struct {
	// Name is the canonical dialect name (mysql, postgres, sqlite)
	Name string

	// Driver is the registered database/sql driver
	Driver string

	// MaxParams is the bind-parameter limit of one statement
	MaxParams int

	// Truncate reports whether TRUNCATE TABLE exists
	Truncate bool

	// Savepoints reports whether a failed statement aborts the transaction,
	// so single-row inserts need a savepoint to recover
	Savepoints bool

	// TxClear reports whether TRUNCATE/DELETE inside a transaction is rolled
	// back with it. MySQL's TRUNCATE commits implicitly.
	TxClear bool

	quote            byte
	dollarParams     bool
	tableExistsQuery string
	columnsQuery     string
}

var (
	mysqlDialect = Dialect{
		Name:             "mysql",
		Driver:           "mysql",
		MaxParams:        65535,
		Truncate:         true,
		quote:            '`',
		tableExistsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		columnsQuery:     "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
	}

	postgresDialect = Dialect{
		Name:             "postgres",
		Driver:           "pgx",
		MaxParams:        65535,
		Truncate:         true,
		Savepoints:       true,
		TxClear:          true,
		quote:            '"',
		dollarParams:     true,
		tableExistsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
		columnsQuery:     "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
	}

	sqliteDialect = Dialect{
		Name:             "sqlite",
		Driver:           "sqlite",
		MaxParams:        32766,
		TxClear:          true,
		quote:            '"',
		tableExistsQuery: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		columnsQuery:     "SELECT name FROM pragma_table_info(?) ORDER BY cid",
	}
)

// DialectFor returns the dialect for a driver name or alias.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "mysql", "mariadb":
		return mysqlDialect, nil
	case "postgres", "postgresql", "pgx", "pg":
		return postgresDialect, nil
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// QuoteIdent quotes a table or column name, doubling embedded quotes.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	if d.dollarParams {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// RowsPerStatement returns how many rows of width columns fit under the
// bind-parameter limit.
func (d Dialect) RowsPerStatement(columns int) int {
	if columns <= 0 {
		return 1
	}
	n := d.MaxParams / columns
	if n < 1 {
		return 1
	}
	return n
}

// InsertSQL builds a multi-row INSERT with placeholders for rows rows.
func (d Dialect) InsertSQL(table string, columns []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(col))
	}
	b.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// TruncateSQL returns the statement emptying table quickly.
func (d Dialect) TruncateSQL(table string) string {
	return "TRUNCATE TABLE " + d.QuoteIdent(table)
}

// DeleteSQL returns the statement deleting every row of table.
func (d Dialect) DeleteSQL(table string) string {
	return "DELETE FROM " + d.QuoteIdent(table)
}

// PrepareDSN adjusts a DSN before it is handed to the driver.
func (d Dialect) PrepareDSN(dsn string) (string, error) {
	if d.Name != "mysql" {
		return dsn, nil
	}

	// Ensure parseTime=true so DATE/DATETIME columns scan into time.Time
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// MaskDSN hides the password in dsn for display.
func (d Dialect) MaskDSN(dsn string) string {
	switch d.Name {
	case "mysql":
		if cfg, err := mysql.ParseDSN(dsn); err == nil && cfg.Passwd != "" {
			cfg.Passwd = "***"
			return cfg.FormatDSN()
		}
	case "postgres":
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			return u.Redacted()
		}
	}
	return dsn
}
