// Package sqlbridge provides a dialect-neutral SQL statement builder and a
// multi-dialect execution layer.
//
// The module turns an abstract description of a write operation into
// dialect-correct SQL text with safely bound parameters, executes it through
// a prepared-statement abstraction, and returns a uniform result handle.
// Four dialects are supported behind one interface: MySQL, PostgreSQL,
// SQL Server, and SQLite.
//
// # Packages
//
//   - sqlbridge: error taxonomy and the Cache contract shared by all layers
//   - dialect: dialect names and the Driver/Tx/ExecQuerier interfaces
//   - dialect/sql: statement builders, prepared execution, result handles,
//     the database/sql-backed driver, and instrumented driver wrappers
//   - dialect/sqlfunc: per-dialect function translators and their registry
//   - config: YAML connection profiles and DSN construction
//
// # Building and executing a statement
//
//	import (
//	    "github.com/syssam/sqlbridge/dialect"
//	    "github.com/syssam/sqlbridge/dialect/sql"
//	)
//
//	st, err := sql.Dialect(dialect.Postgres).
//	    Insert("users").
//	    Set("name", "Ann").
//	    Set("created_at", sql.Raw("NOW()")).
//	    Compile()
//
// The compiled statement carries the SQL text and its binding table; the
// execution layer in dialect/sql prepares, binds, and runs it, normalizing
// every driver failure into the error types of this package.
//
// # Errors
//
// All failures surface as typed errors with sentinel matching:
//
//	if sqlbridge.IsConstraintError(err) {
//	    // unique/foreign-key/check violation
//	}
//	if errors.Is(err, sqlbridge.ErrExecFailed) {
//	    // any normalized execution failure
//	}
package sqlbridge
