// Package sql provides SQL statement building primitives and a
// prepared-statement execution layer over database/sql.
//
// This package is the foundation for generating and executing write
// statements across different database systems (MySQL, PostgreSQL,
// SQL Server, SQLite). Builders render dialect-correct SQL text with
// safely bound parameters, and statements execute through a uniform
// result handle.
//
// # Building Statements
//
// A builder holds one logical statement. It is configured through its
// mutators and compiled exactly once:
//
//	import "github.com/syssam/sqlbridge/dialect"
//
//	st, err := sql.Dialect(dialect.Postgres).
//	    Insert("users").
//	    Set("name", "Ann").
//	    Set("created_at", sql.Raw("NOW()")).
//	    Compile()
//
// Compile memoizes its result: repeated calls return the same
// Statement and never grow the binding table. Builders created without
// a dialect use the legacy rendering, double-quoted identifiers with
// MySQL-flavored modifiers.
//
// # Assignment Values
//
// Plain Go values bind through generated placeholders. Raw fragments,
// parameterized subexpressions and deferred named parameters cover the
// remaining assignment forms:
//
//	sql.Raw("NOW()")                  // inlined verbatim, no binding
//	sql.Expr("ROUND(?, 2)", 3.14159)  // fresh placeholder per binding
//	sql.Ref("user_id")                // bound at execution time
//
// # Batch Inserts
//
// Multi-row inserts share one VALUES clause. The Columns and Values
// form fixes the column order explicitly, the Rows form derives it
// from the first row:
//
//	sql.Insert("logs").
//	    IgnoreDuplicates().
//	    Positional().
//	    Rows(
//	        map[string]any{"a": 1, "b": 2},
//	        map[string]any{"a": 3, "b": 4},
//	    )
//
// # Executing
//
// Compiled statements execute through prepared statements. Named
// statements are expanded to the positional form of the connection
// dialect during preparation:
//
//	drv, err := sql.Open("mysql", dsn)
//	if err != nil {
//	    return err
//	}
//	stmt, err := drv.PrepareStatement(ctx, st)
//	if err != nil {
//	    return err
//	}
//	defer stmt.Close()
//	res, err := stmt.Exec(ctx, nil)
//
// Query results are fetched eagerly into a ResultHandle and shaped by
// a format hint:
//
//	h, err := stmt.Query(ctx, map[string]any{":id": 5}, sql.FormatObject)
//	for _, row := range h.Maps() {
//	    fmt.Println(row["name"])
//	}
//
// # Instrumentation
//
// Drivers can be wrapped for statistics collection, debug logging or
// result caching:
//
//	statsDriver := sql.NewStatsDriver(drv, sql.WithSlowQueryLog())
//	cached := sql.NewCacheDriver(drv, nil, sql.WithTTL(time.Minute))
package sql
