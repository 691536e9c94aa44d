package sql

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbridge"
	"github.com/syssam/sqlbridge/dialect"
)

func expectUserQuery(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("SELECT id, name FROM users").
		ExpectQuery().
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("1", "Alice"))
}

func TestCacheDriverQuery(t *testing.T) {
	t.Run("repeated_lookup_hits_cache", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil)

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		expectUserQuery(mock)

		h1, err := drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)
		h2, err := drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)

		assert.Equal(t, int64(1), drv.Hits())
		assert.Equal(t, int64(1), drv.Misses())
		assert.Equal(t, h1.Maps(), h2.Maps())
		assert.Equal(t, FormatObject, h2.Format())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_invalidates_table", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil)

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		expectUserQuery(mock)
		_, err = drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)

		ins, err := Dialect(dialect.SQLite).Insert("users").Set("name", "Bob").Compile()
		require.NoError(t, err)
		mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "users" (name) VALUES (?)`)).
			ExpectExec().
			WithArgs("Bob").
			WillReturnResult(sqlmock.NewResult(2, 1))
		h, err := drv.ExecStatement(context.Background(), ins)
		require.NoError(t, err)
		n, err := h.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		// The write dropped every cached entry of the table.
		expectUserQuery(mock)
		_, err = drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)

		assert.Equal(t, int64(2), drv.Misses())
		assert.Zero(t, drv.Hits())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("undecodable_entry_refreshes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil)

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		require.NoError(t, drv.Cache().Set(context.Background(), drv.key(st), []byte("garbage"), 0))

		expectUserQuery(mock)
		h, err := drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)
		assert.Equal(t, 1, h.Len())
		assert.Equal(t, int64(1), drv.Misses())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired_entry_misses", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil, WithTTL(time.Millisecond))

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		expectUserQuery(mock)
		_, err = drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		expectUserQuery(mock)
		_, err = drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), drv.Misses())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache_failure_does_not_fail_query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), failingCache{})

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		expectUserQuery(mock)
		h, err := drv.QueryCached(context.Background(), st, "")
		require.NoError(t, err)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("query_failure_surfaces", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil)

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		mock.ExpectPrepare("SELECT id, name FROM users").
			ExpectQuery().
			WillReturnError(errors.New("no such table"))
		_, err = drv.QueryCached(context.Background(), st, "")
		require.Error(t, err)
		assert.True(t, sqlbridge.IsExecError(err))
	})

	t.Run("concurrent_lookups_share_one_roundtrip", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		drv := NewCacheDriver(OpenDB(dialect.SQLite, db), nil)

		st := RawStatement(dialect.SQLite, "users", "SELECT id, name FROM users WHERE id = ?", 1)
		expectUserQuery(mock)

		var wg sync.WaitGroup
		for n := 0; n < 4; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h, err := drv.QueryCached(context.Background(), st, "")
				assert.NoError(t, err)
				assert.Equal(t, 1, h.Len())
			}()
		}
		wg.Wait()
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCacheDriverInvalidate(t *testing.T) {
	drv := NewCacheDriver(&Driver{}, nil)
	ctx := context.Background()

	require.NoError(t, drv.Cache().Set(ctx, "users:sqlite:q1:", []byte("a"), 0))
	require.NoError(t, drv.Cache().Set(ctx, "users:sqlite:q2:", []byte("b"), 0))
	require.NoError(t, drv.Cache().Set(ctx, "logs:sqlite:q1:", []byte("c"), 0))

	require.NoError(t, drv.Invalidate(ctx, "users"))

	v, err := drv.Cache().Get(ctx, "users:sqlite:q1:")
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = drv.Cache().Get(ctx, "logs:sqlite:q1:")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), v)
}

// failingCache errors on every operation, standing in for an
// unreachable cache backend.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func (failingCache) Delete(context.Context, string) error { return errors.New("cache down") }

func (failingCache) DeletePrefix(context.Context, string) error { return errors.New("cache down") }

func (failingCache) Clear(context.Context) error { return errors.New("cache down") }
