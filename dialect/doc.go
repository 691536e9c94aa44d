// Package dialect provides database dialect abstraction for sqlbridge.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing sqlbridge to support multiple database backends
// including MySQL, PostgreSQL, SQL Server, and SQLite.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL     = "mysql"
//	dialect.Postgres  = "postgres"
//	dialect.SQLite    = "sqlite"
//	dialect.SQLServer = "sqlserver"
//
// Driver and vendor aliases (mariadb, postgresql, pgx, sqlite3, mssql,
// azuresql) are resolved by Normalize.
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface extends the standard operations with transaction methods:
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # ExecQuerier Interface
//
// The ExecQuerier interface is implemented by both Driver and Tx:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/syssam/sqlbridge/dialect"
//	    "github.com/syssam/sqlbridge/dialect/sql"
//	)
//
//	db, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Sub-packages
//
// The dialect package contains two sub-packages:
//
//   - dialect/sql: statement builders, prepared execution, and the
//     database/sql-backed driver implementation
//   - dialect/sqlfunc: per-dialect SQL function translators
package dialect
