package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/willfong/sqlimport/internal/config"
)

// Pool wraps a sql.DB with its dialect and query statistics
type Pool struct {
	db      *sql.DB
	dialect Dialect
	config  config.DatabaseConfig

	// Metrics
	totalQueries   int64
	failedQueries  int64
	totalLatencyNs int64
}

// NewPool opens a connection pool for cfg.Driver. It does not connect; call
// Connect to verify the database is reachable.
func NewPool(cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.PrepareDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply pool configuration
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return &Pool{db: db, dialect: dialect, config: cfg}, nil
}

// NewPoolFromDB wraps an already opened database.
func NewPoolFromDB(db *sql.DB, dialect Dialect) *Pool {
	return &Pool{db: db, dialect: dialect}
}

// Connect verifies the database connection is working
func (p *Pool) Connect(ctx context.Context) error {
	if p.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ConnectTimeout)
		defer cancel()
	}
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close gracefully shuts down the connection pool
func (p *Pool) Close() error {
	return p.db.Close()
}

// DB returns the underlying sql.DB for direct access when needed
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Dialect returns the pool's dialect
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// QueryRowContext executes a query expected to return at most one row
func (p *Pool) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := p.db.QueryRowContext(ctx, query, args...)
	p.recordQuery(time.Since(start), row.Err())
	return row
}

// QueryContext executes a query and returns rows
func (p *Pool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := p.db.QueryContext(ctx, query, args...)
	p.recordQuery(time.Since(start), err)
	return rows, err
}

// ExecContext executes a query that doesn't return rows
func (p *Pool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := p.db.ExecContext(ctx, query, args...)
	p.recordQuery(time.Since(start), err)
	return result, err
}

// BeginTx starts a new transaction with the given options
func (p *Pool) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return p.db.BeginTx(ctx, opts)
}

// recordQuery updates internal metrics
func (p *Pool) recordQuery(duration time.Duration, err error) {
	p.totalQueries++
	p.totalLatencyNs += duration.Nanoseconds()
	if err != nil {
		p.failedQueries++
	}
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	dbStats := p.db.Stats()
	return PoolStats{
		OpenConnections: dbStats.OpenConnections,
		InUse:           dbStats.InUse,
		Idle:            dbStats.Idle,
		WaitCount:       dbStats.WaitCount,
		WaitDuration:    dbStats.WaitDuration,
		TotalQueries:    p.totalQueries,
		FailedQueries:   p.failedQueries,
		AvgLatency:      p.averageLatency(),
	}
}

func (p *Pool) averageLatency() time.Duration {
	if p.totalQueries == 0 {
		return 0
	}
	return time.Duration(p.totalLatencyNs / p.totalQueries)
}

// PoolStats contains connection pool and query statistics
type PoolStats struct {
	// Connection pool stats
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration

	// Query stats
	TotalQueries  int64
	FailedQueries int64
	AvgLatency    time.Duration
}
