package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/willfong/sqlimport/internal/importer"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateKey is the importer's duplicate-key sentinel. Every error this
// package returns for a unique or primary key violation matches it.
var ErrDuplicateKey = importer.ErrDuplicateKey

// ErrUnsupportedDriver is returned for driver names with no dialect.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ErrTruncateUnsupported is returned by Truncate on targets without TRUNCATE.
var ErrTruncateUnsupported = errors.New("TRUNCATE is not supported")

// Driver error codes for unique/primary key violations.
const (
	mysqlDupEntry        = 1062 // ER_DUP_ENTRY
	mysqlDupKey          = 1022 // ER_DUP_KEY
	mysqlDupEntryKeyName = 1586 // ER_DUP_ENTRY_WITH_KEY_NAME
	pgUniqueViolation    = "23505"
)

// IsDuplicateKey reports whether err is a driver's unique or primary key
// violation. It looks at driver error numbers and SQLSTATE codes only.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDupEntry, mysqlDupKey, mysqlDupEntryKeyName:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	}

	return false
}

// classify tags duplicate-key errors with ErrDuplicateKey and leaves the rest
// untouched. The driver error stays reachable through errors.As.
func classify(err error) error {
	if IsDuplicateKey(err) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}
	return err
}
