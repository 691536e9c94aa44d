package sql

import (
	"database/sql"
	"errors"
)

// Result format hints. The hint shapes the rows returned by All; other
// accessors ignore it.
const (
	// FormatObject shapes rows as column-keyed maps. It is the default.
	FormatObject = "object"
	// FormatArray shapes rows as value slices in column order.
	FormatArray = "array"
)

// ResultHandle is the uniform outcome of executing a statement,
// abstracting over driver exec results and row sets. Query results are
// fetched eagerly, so a handle never holds an open cursor.
type ResultHandle struct {
	format string
	res    sql.Result
	cols   []string
	vals   [][]any
}

// execResult wraps a driver exec outcome.
func execResult(res sql.Result) *ResultHandle {
	return &ResultHandle{res: res}
}

// newQueryResult drains the row set into a handle and closes it. Scan
// failures abort the fetch and surface to the caller.
func newQueryResult(rows ColumnScanner, format string) (*ResultHandle, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var vals [][]any
	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for n := range row {
			ptrs[n] = &row[n]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// The driver may reuse byte buffers between rows.
		for n, v := range row {
			if b, ok := v.([]byte); ok {
				row[n] = append([]byte(nil), b...)
			}
		}
		vals = append(vals, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatObject
	}
	return &ResultHandle{format: format, cols: cols, vals: vals}, nil
}

// Format returns the row shape hint the handle was constructed with.
func (h *ResultHandle) Format() string {
	return h.format
}

// Columns returns the result column names in query order.
func (h *ResultHandle) Columns() []string {
	out := make([]string, len(h.cols))
	copy(out, h.cols)
	return out
}

// Len returns the number of fetched rows.
func (h *ResultHandle) Len() int {
	return len(h.vals)
}

// Slices returns every fetched row as a value slice in column order.
func (h *ResultHandle) Slices() [][]any {
	out := make([][]any, len(h.vals))
	for n, row := range h.vals {
		out[n] = append([]any(nil), row...)
	}
	return out
}

// Maps returns every fetched row keyed by column name.
func (h *ResultHandle) Maps() []map[string]any {
	out := make([]map[string]any, len(h.vals))
	for n, row := range h.vals {
		m := make(map[string]any, len(h.cols))
		for c, col := range h.cols {
			m[col] = row[c]
		}
		out[n] = m
	}
	return out
}

// All returns the fetched rows shaped by the format hint: value slices
// for "array", column-keyed maps for any other hint.
func (h *ResultHandle) All() []any {
	out := make([]any, len(h.vals))
	if h.format == FormatArray {
		for n, row := range h.Slices() {
			out[n] = row
		}
		return out
	}
	for n, row := range h.Maps() {
		out[n] = row
	}
	return out
}

// LastInsertID returns the id generated by an exec outcome.
func (h *ResultHandle) LastInsertID() (int64, error) {
	if h.res == nil {
		return 0, errors.New("dialect/sql: result carries no exec outcome")
	}
	return h.res.LastInsertId()
}

// RowsAffected returns the number of rows affected by an exec outcome.
func (h *ResultHandle) RowsAffected() (int64, error) {
	if h.res == nil {
		return 0, errors.New("dialect/sql: result carries no exec outcome")
	}
	return h.res.RowsAffected()
}
