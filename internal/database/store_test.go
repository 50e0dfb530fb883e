package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, d Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(NewPoolFromDB(db, d)), mk
}

func TestStore_Schema(t *testing.T) {
	ctx := context.Background()
	s, mk := newMockStore(t, mysqlDialect)

	mk.ExpectQuery(regexp.QuoteMeta(mysqlDialect.tableExistsQuery)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mk.ExpectQuery(regexp.QuoteMeta(mysqlDialect.columnsQuery)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("email"))
	mk.ExpectQuery(regexp.QuoteMeta(mysqlDialect.tableExistsQuery)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := s.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := s.Columns(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, cols)

	exists, err = s.TableExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mk.ExpectationsWereMet())
	assert.Equal(t, int64(3), s.pool.Stats().TotalQueries)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("mysql", func(t *testing.T) {
		s, mk := newMockStore(t, mysqlDialect)
		mk.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE `order items`")).WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(regexp.QuoteMeta("DELETE FROM `order items`")).WillReturnResult(sqlmock.NewResult(0, 3))

		require.NoError(t, s.Truncate(ctx, "order items"))
		require.NoError(t, s.DeleteAll(ctx, "order items"))
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("sqlite has no truncate", func(t *testing.T) {
		s, mk := newMockStore(t, sqliteDialect)
		err := s.Truncate(ctx, "t")
		require.ErrorIs(t, err, ErrTruncateUnsupported)
		require.NoError(t, mk.ExpectationsWereMet())
	})
}

func TestTx_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres falls back inside a savepoint", func(t *testing.T) {
		s, mk := newMockStore(t, postgresDialect)
		require.True(t, s.TransactionalClear())

		mk.ExpectBegin()
		mk.ExpectExec("SAVEPOINT sqlimport_clear").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE "t"`)).
			WillReturnError(&pgconn.PgError{Code: "0A000", Message: "cannot truncate a table referenced in a foreign key constraint"})
		mk.ExpectExec("ROLLBACK TO SAVEPOINT sqlimport_clear").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(regexp.QuoteMeta(`DELETE FROM "t"`)).WillReturnResult(sqlmock.NewResult(0, 4))
		mk.ExpectRollback()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.Error(t, tx.Truncate(ctx, "t"))
		require.NoError(t, tx.DeleteAll(ctx, "t"))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("mysql clears outside the transaction", func(t *testing.T) {
		s, _ := newMockStore(t, mysqlDialect)
		assert.False(t, s.TransactionalClear())
	})

	t.Run("sqlite has no truncate", func(t *testing.T) {
		s, mk := newMockStore(t, sqliteDialect)
		mk.ExpectBegin()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.ErrorIs(t, tx.Truncate(ctx, "t"), ErrTruncateUnsupported)
		require.NoError(t, mk.ExpectationsWereMet())
	})
}

func TestTx_InsertBatchSplitsOnParamLimit(t *testing.T) {
	ctx := context.Background()
	d := mysqlDialect
	d.MaxParams = 4
	s, mk := newMockStore(t, d)

	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta("INSERT INTO `t` (`a`, `b`) VALUES (?, ?), (?, ?)")).
		WithArgs(1, "x", 2, "y").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mk.ExpectExec(regexp.QuoteMeta("INSERT INTO `t` (`a`, `b`) VALUES (?, ?)") + "$").
		WithArgs(3, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mk.ExpectCommit()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	err = tx.InsertBatch(ctx, "t", []string{"a", "b"}, [][]any{
		{int64(1), "x"},
		{int64(2), "y"},
		{int64(3), nil},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestTx_InsertRowDuplicate(t *testing.T) {
	ctx := context.Background()

	t.Run("mysql", func(t *testing.T) {
		s, mk := newMockStore(t, mysqlDialect)
		mk.ExpectBegin()
		mk.ExpectExec(regexp.QuoteMeta("INSERT INTO `t` (`id`) VALUES (?)")).
			WithArgs(1).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"})
		mk.ExpectRollback()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		err = tx.InsertRow(ctx, "t", []string{"id"}, []any{int64(1)})
		require.ErrorIs(t, err, ErrDuplicateKey)

		var myErr *mysql.MySQLError
		require.True(t, errors.As(err, &myErr))
		assert.Equal(t, uint16(1062), myErr.Number)

		require.NoError(t, tx.Rollback())
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("postgres uses a savepoint", func(t *testing.T) {
		s, mk := newMockStore(t, postgresDialect)
		mk.ExpectBegin()
		mk.ExpectExec("SAVEPOINT sqlimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(regexp.QuoteMeta(`INSERT INTO "t" ("id") VALUES ($1)`)).
			WithArgs(1).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
		mk.ExpectExec("ROLLBACK TO SAVEPOINT sqlimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec("SAVEPOINT sqlimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(regexp.QuoteMeta(`INSERT INTO "t" ("id") VALUES ($1)`)).
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mk.ExpectExec("RELEASE SAVEPOINT sqlimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectCommit()

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.ErrorIs(t, tx.InsertRow(ctx, "t", []string{"id"}, []any{int64(1)}), ErrDuplicateKey)
		require.NoError(t, tx.InsertRow(ctx, "t", []string{"id"}, []any{int64(2)}))
		require.NoError(t, tx.Commit())
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("other errors are not duplicates", func(t *testing.T) {
		s, mk := newMockStore(t, mysqlDialect)
		mk.ExpectBegin()
		mk.ExpectExec(regexp.QuoteMeta("INSERT INTO `t` (`id`) VALUES (?)")).
			WithArgs(1).
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		err = tx.InsertRow(ctx, "t", []string{"id"}, []any{int64(1)})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrDuplicateKey))
	})
}
