// Package config contains compile-time defaults for the importer.
// Edit these values and recompile to tune behavior; everything here can also
// be overridden with a config file, SQLIMPORT_* environment variables or flags.
package config

import "time"

// =============================================================================
// IMPORT DEFAULTS
// =============================================================================

const (
	// ChunkSize is the number of rows written per batched INSERT
	ChunkSize = 1000

	// StrictRows rejects a whole statement on the first column/value mismatch
	StrictRows = true

	// BackslashEscapes enables MySQL backslash escapes in quoted values.
	// Set false for dumps written with NO_BACKSLASH_ESCAPES.
	BackslashEscapes = true
)

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use (mysql, postgres, sqlite)
	DBDriver = "mysql"

	// DBMaxOpenConns is maximum open connections in the pool.
	// The importer is sequential, so a handful is plenty.
	DBMaxOpenConns = 4

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 2

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute

	// DBConnectTimeout bounds the initial ping
	DBConnectTimeout = 10 * time.Second
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

const (
	// EnvPrefix prefixes environment overrides, e.g. SQLIMPORT_DATABASE_DSN
	EnvPrefix = "SQLIMPORT"

	// DotEnvFile is loaded into the environment at startup when present
	DotEnvFile = ".env"
)
