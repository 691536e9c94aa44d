package sql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbridge"
	"github.com/syssam/sqlbridge/dialect"
)

func TestPrepareStatement(t *testing.T) {
	t.Run("named_statement_is_expanded", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.MySQL, db)

		st, err := Dialect(dialect.MySQL).
			Insert("users").
			Set("name", "Ann").
			Set("created_at", Raw("NOW()")).
			Compile()
		require.NoError(t, err)

		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO `users` (name, created_at) VALUES (?, NOW())")).
			ExpectExec().
			WithArgs("Ann").
			WillReturnResult(sqlmock.NewResult(7, 1))

		stmt, err := drv.PrepareStatement(context.Background(), st)
		require.NoError(t, err)
		defer stmt.Close()

		res, err := stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
		id, err := res.LastInsertID()
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("positional_statement_passes_through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.Postgres, db)

		st, err := Dialect(dialect.Postgres).
			Insert("logs").
			Positional().
			Columns("a", "b").
			Values(1, 2).
			Compile()
		require.NoError(t, err)

		mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "logs" (a, b) VALUES ($1, $2)`)).
			ExpectExec().
			WithArgs(1, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		stmt, err := drv.PrepareStatement(context.Background(), st)
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deferred_ref_binds_at_execution", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.SQLite, db)

		st, err := Dialect(dialect.SQLite).
			Insert("notes").
			Set("user_id", Ref("uid")).
			Set("body", "hi").
			Compile()
		require.NoError(t, err)

		mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "notes" (user_id, body) VALUES (:uid, ?)`)).
			ExpectExec().
			WithArgs("hi", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		stmt, err := drv.PrepareStatement(context.Background(), st)
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), map[string]any{"uid": 9})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("prepare_failure_is_normalized", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.MySQL, db)

		mock.ExpectPrepare("INSERT").WillReturnError(errors.New("syntax error"))

		st, err := Dialect(dialect.MySQL).Insert("users").Set("a", 1).Compile()
		require.NoError(t, err)
		_, err = drv.PrepareStatement(context.Background(), st)
		require.Error(t, err)
		assert.True(t, sqlbridge.IsExecError(err))
	})
}

func TestStmtParameterNormalization(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	t.Run("colon_prefixed_key_is_stripped", func(t *testing.T) {
		mock.ExpectPrepare("UPDATE users SET active = 1 WHERE id = :id").
			ExpectExec().
			WithArgs(Named("id", 5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		stmt, err := drv.Prepare(context.Background(), "UPDATE users SET active = 1 WHERE id = :id")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), map[string]any{":id": 5})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bare_key_passes_unchanged", func(t *testing.T) {
		mock.ExpectPrepare("UPDATE users SET active = 0 WHERE id = :id").
			ExpectExec().
			WithArgs(Named("id", 5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		stmt, err := drv.Prepare(context.Background(), "UPDATE users SET active = 0 WHERE id = :id")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), map[string]any{"id": 5})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_key_is_rejected", func(t *testing.T) {
		mock.ExpectPrepare("SELECT 1")
		stmt, err := drv.Prepare(context.Background(), "SELECT 1")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), map[string]any{"bad name": 1})
		require.Error(t, err)
		assert.True(t, sqlbridge.IsBindError(err))
		assert.NotEmpty(t, stmt.LastError())
	})
}

func TestStmtBind(t *testing.T) {
	newStmt := func(t *testing.T) (*Stmt, sqlmock.Sqlmock, func()) {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		drv := OpenDB(dialect.SQLite, db)
		mock.ExpectPrepare("INSERT INTO t")
		stmt, err := drv.Prepare(context.Background(), "INSERT INTO t (a) VALUES (:a)")
		require.NoError(t, err)
		return stmt, mock, func() { stmt.Close(); db.Close() }
	}

	t.Run("bind_value_copies_at_bind_time", func(t *testing.T) {
		stmt, mock, done := newStmt(t)
		defer done()

		v := 1
		require.True(t, stmt.BindValue(":a", v))
		v = 2 // must not affect the bound copy

		mock.ExpectExec("INSERT INTO t").
			WithArgs(Named("a", 1)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		_, err := stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bind_param_reads_at_execution_time", func(t *testing.T) {
		stmt, mock, done := newStmt(t)
		defer done()

		v := 1
		require.True(t, stmt.BindParam("a", &v))
		v = 2 // picked up by execute

		mock.ExpectExec("INSERT INTO t").
			WithArgs(Named("a", 2)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		_, err := stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("execution_params_override_bound", func(t *testing.T) {
		stmt, mock, done := newStmt(t)
		defer done()

		require.True(t, stmt.BindValue("a", 1))

		mock.ExpectExec("INSERT INTO t").
			WithArgs(Named("a", 3)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		_, err := stmt.Exec(context.Background(), map[string]any{":a": 3})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rebinding_overrides_in_place", func(t *testing.T) {
		stmt, mock, done := newStmt(t)
		defer done()

		require.True(t, stmt.BindValue("a", 1))
		require.True(t, stmt.BindValue("a", 5))

		mock.ExpectExec("INSERT INTO t").
			WithArgs(Named("a", 5)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		_, err := stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
	})

	t.Run("bind_failures_return_false_and_record", func(t *testing.T) {
		stmt, _, done := newStmt(t)
		defer done()

		assert.False(t, stmt.BindValue("bad name", 1))
		assert.Contains(t, stmt.LastError(), "bad name")

		assert.False(t, stmt.BindValue("a", struct{}{}))
		assert.Contains(t, stmt.LastError(), "unsupported value type")

		assert.False(t, stmt.BindParam("a", nil))
		assert.False(t, stmt.BindParam("a", 42), "non-pointer reference")
		var p *int
		assert.False(t, stmt.BindParam("a", p), "nil pointer reference")
	})
}

func TestStmtExecFailure(t *testing.T) {
	t.Run("driver_error_is_normalized", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.MySQL, db)

		driverErr := errors.New("server has gone away")
		mock.ExpectPrepare("INSERT INTO t").
			ExpectExec().
			WillReturnError(driverErr)

		stmt, err := drv.Prepare(context.Background(), "INSERT INTO t (a) VALUES (1)")
		require.NoError(t, err)
		defer stmt.Close()

		assert.Empty(t, stmt.LastError())
		_, err = stmt.Exec(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, sqlbridge.IsExecError(err))
		assert.ErrorIs(t, err, sqlbridge.ErrExecFailed)
		assert.NotEqual(t, driverErr, err, "raw driver error must not surface directly")
		assert.ErrorIs(t, err, driverErr, "original cause stays reachable through unwrap")
		assert.NotEmpty(t, stmt.LastError())
		assert.Contains(t, stmt.LastError(), "server has gone away")
	})

	t.Run("constraint_violation_is_classified", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.Postgres, db)

		mock.ExpectPrepare("INSERT INTO users").
			ExpectExec().
			WillReturnError(errors.New(`duplicate key value violates unique constraint "users_email_key"`))

		stmt, err := drv.Prepare(context.Background(), "INSERT INTO users (email) VALUES ($1)")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Exec(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, sqlbridge.IsConstraintError(err))
		assert.ErrorIs(t, err, sqlbridge.ErrExecFailed, "classification still matches the normalized condition")
	})

	t.Run("last_error_survives_later_success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := OpenDB(dialect.MySQL, db)

		mock.ExpectPrepare("INSERT INTO t")
		stmt, err := drv.Prepare(context.Background(), "INSERT INTO t (a) VALUES (1)")
		require.NoError(t, err)
		defer stmt.Close()

		mock.ExpectExec("INSERT INTO t").WillReturnError(errors.New("deadlock"))
		_, err = stmt.Exec(context.Background(), nil)
		require.Error(t, err)
		recorded := stmt.LastError()
		assert.NotEmpty(t, recorded)

		mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
		_, err = stmt.Exec(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, recorded, stmt.LastError(), "re-execution does not reset the recorded message")
	})
}

func TestStmtQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	t.Run("rows_are_fetched_eagerly", func(t *testing.T) {
		mock.ExpectPrepare("SELECT id, name FROM users").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Alice").
				AddRow(2, "Bob"))

		stmt, err := drv.Prepare(context.Background(), "SELECT id, name FROM users")
		require.NoError(t, err)
		defer stmt.Close()

		h, err := stmt.Query(context.Background(), nil, "")
		require.NoError(t, err)
		assert.Equal(t, 2, h.Len())
		assert.Equal(t, []string{"id", "name"}, h.Columns())
		assert.Equal(t, FormatObject, h.Format())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_failure_is_normalized", func(t *testing.T) {
		mock.ExpectPrepare("SELECT broken").
			ExpectQuery().
			WillReturnError(errors.New("no such table"))

		stmt, err := drv.Prepare(context.Background(), "SELECT broken")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.Query(context.Background(), nil, FormatArray)
		require.Error(t, err)
		assert.True(t, sqlbridge.IsExecError(err))
		assert.NotEmpty(t, stmt.LastError())
	})
}

func TestStmtAccessors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	const query = "SELECT 1"
	mock.ExpectPrepare(query)
	stmt, err := drv.Prepare(context.Background(), query)
	require.NoError(t, err)
	defer stmt.Close()

	assert.Equal(t, query, stmt.QueryText())
	assert.Equal(t, dialect.Postgres, stmt.Dialect())
	assert.Empty(t, stmt.LastError())
}
