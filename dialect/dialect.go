package dialect

import (
	"context"
	"strings"
)

// Dialect names. Each supported backend is identified by a constant string
// that matches its canonical database/sql driver name.
const (
	// MySQL is the MySQL/MariaDB dialect.
	MySQL = "mysql"

	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"

	// SQLite is the SQLite dialect.
	SQLite = "sqlite"

	// SQLServer is the Microsoft SQL Server dialect.
	SQLServer = "sqlserver"
)

// ExecQuerier wraps the two standard database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in
	// SQL, INSERT or UPDATE. It scans the result into the pointer v. For SQL
	// drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error

	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is
	// *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all database operations.
type Driver interface {
	ExecQuerier

	// Tx starts and returns a new transaction.
	// The transaction must be committed or rolled back.
	Tx(ctx context.Context) (Tx, error)

	// Close closes the underlying connection.
	Close() error

	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction behavior on top of the standard operations.
type Tx interface {
	ExecQuerier
	// Commit commits the transaction.
	Commit() error
	// Rollback discards the transaction.
	Rollback() error
}

// aliases maps driver and vendor spellings onto canonical dialect names.
var aliases = map[string]string{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"azuresql":   SQLServer,
}

// Normalize maps a dialect or driver name, case-insensitively, onto its
// canonical constant. The second return value reports whether the name is
// recognized.
func Normalize(name string) (string, bool) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit and Rollback on top of the given
// driver. It is useful for running transactional code against drivers that
// manage their own transaction scope.
func NopTx(d Driver) Tx {
	return nopTx{d}
}
