package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/syssam/sqlbridge"
)

// Stmt wraps a driver prepared statement together with the query text
// used to create it. Parameters can be pre-bound by value or by
// reference, or supplied at execution time. Like a builder, a Stmt
// represents one in-flight logical statement and must not be shared
// between goroutines.
type Stmt struct {
	stmt       *sql.Stmt
	query      string
	dialect    string
	positional []any
	binds      []namedBind
	lastErr    string
}

type namedBind struct {
	name  string
	value any
	byRef bool
}

// Prepare creates a prepared statement for later executions. The
// underlying connection must support preparation, which holds for
// *sql.DB, *sql.Tx and *sql.Conn.
func (c Conn) Prepare(ctx context.Context, query string) (*Stmt, error) {
	p, ok := c.ExecQuerier.(preparer)
	if !ok {
		return nil, fmt.Errorf("dialect/sql: connection of type %T does not support prepared statements", c.ExecQuerier)
	}
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, sqlbridge.NewExecError(err.Error(), err)
	}
	return &Stmt{stmt: stmt, query: query, dialect: c.dialect}, nil
}

// PrepareStatement prepares a compiled statement and carries its
// bindings over. Named statements are expanded to the positional
// placeholders of the connection dialect first, since most drivers do
// not parse the generated ":p<N>" form. Names outside the binding
// table, such as deferred Ref parameters, stay named and are bound at
// execution time.
func (c Conn) PrepareStatement(ctx context.Context, st *Statement) (*Stmt, error) {
	query, args := st.SQL(), st.Args()
	if st.Mode() == ParamNamed {
		query, args = ExpandNamed(c.dialect, query, st.NamedArgs())
	}
	s, err := c.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	s.positional = args
	return s, nil
}

// QueryText returns the query text the statement was prepared with.
func (s *Stmt) QueryText() string {
	return s.query
}

// Dialect returns the dialect of the preparing connection.
func (s *Stmt) Dialect() string {
	return s.dialect
}

// LastError returns the most recent recorded failure message, or the
// empty string if none occurred since construction. Later successful
// calls do not reset it.
func (s *Stmt) LastError() string {
	return s.lastErr
}

// BindParam binds a parameter by reference. The reference must be a
// non-nil pointer whose pointee is read when the statement executes,
// so callers can fill the value after binding. A single leading colon
// in the name is stripped. On failure it records the reason and
// returns false instead of failing the statement.
func (s *Stmt) BindParam(name string, ref any) bool {
	name = strings.TrimPrefix(name, ":")
	if !isValidIdentifier(name) {
		return s.bindFailed(name, "invalid parameter identifier")
	}
	rv := reflect.ValueOf(ref)
	if ref == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return s.bindFailed(name, "reference must be a non-nil pointer")
	}
	s.record(namedBind{name: name, value: ref, byRef: true})
	return true
}

// BindValue binds a parameter by value, copying it at bind time. It
// follows the same contract as BindParam.
func (s *Stmt) BindValue(name string, v any) bool {
	name = strings.TrimPrefix(name, ":")
	if !isValidIdentifier(name) {
		return s.bindFailed(name, "invalid parameter identifier")
	}
	if !bindable(v) {
		return s.bindFailed(name, fmt.Sprintf("unsupported value type %T", v))
	}
	s.record(namedBind{name: name, value: v})
	return true
}

// Exec executes the statement and returns the exec outcome as a
// ResultHandle. Keys of params may carry a single leading colon, which
// is stripped before binding; pre-bound parameters pass through
// untouched and are overridden by params entries with the same name.
// Driver failures surface as the normalized execution error.
func (s *Stmt) Exec(ctx context.Context, params map[string]any) (*ResultHandle, error) {
	args, err := s.execArgs(params)
	if err != nil {
		s.lastErr = err.Error()
		return nil, err
	}
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		err = normalizeExec(err)
		s.lastErr = err.Error()
		return nil, err
	}
	return execResult(res), nil
}

// Query executes the statement and fetches all rows into a
// ResultHandle shaped by the format hint. The parameter contract
// matches Exec.
func (s *Stmt) Query(ctx context.Context, params map[string]any, format string) (*ResultHandle, error) {
	args, err := s.execArgs(params)
	if err != nil {
		s.lastErr = err.Error()
		return nil, err
	}
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		err = normalizeExec(err)
		s.lastErr = err.Error()
		return nil, err
	}
	h, err := newQueryResult(rows, format)
	if err != nil {
		err = normalizeExec(err)
		s.lastErr = err.Error()
		return nil, err
	}
	return h, nil
}

// Close closes the underlying prepared statement.
func (s *Stmt) Close() error {
	return s.stmt.Close()
}

func (s *Stmt) bindFailed(name, reason string) bool {
	s.lastErr = sqlbridge.NewBindError(name, reason).Error()
	return false
}

// record stores a named binding, overriding an earlier binding with
// the same name in place so bind order stays stable.
func (s *Stmt) record(b namedBind) {
	for n := range s.binds {
		if s.binds[n].name == b.name {
			s.binds[n] = b
			return
		}
	}
	s.binds = append(s.binds, b)
}

// execArgs assembles the driver argument list: carried-over positional
// bindings first, then named bindings in bind order, then execution
// parameters in sorted key order for deterministic driver input.
func (s *Stmt) execArgs(params map[string]any) ([]any, error) {
	named := make([]NamedArg, 0, len(s.binds)+len(params))
	for _, b := range s.binds {
		v := b.value
		if b.byRef {
			v = reflect.ValueOf(v).Elem().Interface()
		}
		named = append(named, Named(b.name, v))
	}
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := strings.TrimPrefix(k, ":")
			if !isValidIdentifier(name) {
				return nil, sqlbridge.NewBindError(name, "invalid parameter identifier")
			}
			named = upsertNamed(named, Named(name, params[k]))
		}
	}
	args := make([]any, 0, len(s.positional)+len(named))
	args = append(args, s.positional...)
	for _, a := range named {
		args = append(args, a)
	}
	return args, nil
}

func upsertNamed(list []NamedArg, arg NamedArg) []NamedArg {
	for n := range list {
		if list[n].Name == arg.Name {
			list[n] = arg
			return list
		}
	}
	return append(list, arg)
}

// bindable reports whether database/sql can convert the value through
// its default parameter converter.
func bindable(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case driver.Valuer, []byte, time.Time:
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Pointer:
		if rv.IsNil() {
			return true
		}
		return bindable(rv.Elem().Interface())
	}
	return false
}
