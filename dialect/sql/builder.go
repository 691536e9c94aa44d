package sql

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/syssam/sqlbridge"
	"github.com/syssam/sqlbridge/dialect"
	"github.com/syssam/sqlbridge/dialect/sqlfunc"
)

// Querier wraps the Query method, implemented by statement builders.
type Querier interface {
	// Query returns the compiled query text and its bindings.
	Query() (string, []any)
}

// ParamMode determines how a builder renders placeholders for bound
// scalars.
type ParamMode string

const (
	// ParamNamed renders generated named placeholders of the form ":p<N>"
	// with a monotonically increasing counter. It is the default mode.
	ParamNamed ParamMode = "named"
	// ParamPositional renders positional placeholders: "?" on MySQL and
	// SQLite, "$<N>" on PostgreSQL and "@p<N>" on SQL Server.
	ParamPositional ParamMode = "positional"
)

// Builder is the base type shared by the statement builders. It tracks
// the target dialect, the parameter mode, the placeholder counter and
// the bindings collected during compilation.
type Builder struct {
	dialect string
	mode    ParamMode
	prefix  string
	total   int
	args    []any
	nargs   []NamedArg
	errs    []error
}

// SetDialect sets the builder dialect. Driver aliases such as "mariadb"
// or "postgresql" are accepted. An empty name selects the legacy
// dialect-neutral rendering; any other unknown name is recorded as an
// unsupported-dialect error.
func (b *Builder) SetDialect(name string) {
	if name == "" {
		b.dialect = ""
		return
	}
	d, ok := dialect.Normalize(name)
	if !ok {
		b.AddError(fmt.Errorf("%w: %s", sqlbridge.ErrUnsupportedDialect, name))
		b.dialect = name
		return
	}
	b.dialect = d
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string {
	return b.dialect
}

// Translator returns the function translator matching the builder
// dialect. Builders with no dialect set resolve to the legacy
// translator.
func (b *Builder) Translator() (sqlfunc.Translator, error) {
	if b.dialect == "" {
		return sqlfunc.DefaultRegistry.Legacy(), nil
	}
	return sqlfunc.DefaultRegistry.Translator(b.dialect)
}

// Quote quotes the given identifier with the dialect quoting rule.
// Builders with no dialect set use the portable double-quote form.
// Qualified identifiers are quoted segment-wise.
func (b *Builder) Quote(ident string) string {
	switch b.dialect {
	case dialect.MySQL:
		return quoteWith(ident, '`', '`')
	case dialect.SQLServer:
		return quoteWith(ident, '[', ']')
	default:
		return quoteWith(ident, '"', '"')
	}
}

// AddError appends an error to the builder. Recorded errors surface on
// compile and through Err.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns a concatenated error of all errors encountered by the
// builder, or nil if none occurred.
func (b *Builder) Err() error {
	switch len(b.errs) {
	case 0:
		return nil
	case 1:
		return b.errs[0]
	default:
		return sqlbridge.NewAggregateError(b.errs...)
	}
}

// arg allocates a placeholder for the given scalar and records its
// binding. The shared counter never repeats within one builder, so
// merged subexpressions can never collide with outer bindings.
func (b *Builder) arg(v any) string {
	n := b.total
	b.total++
	if b.mode == ParamNamed {
		name := b.prefix + strconv.Itoa(n)
		b.nargs = append(b.nargs, Named(name, v))
		return ":" + name
	}
	b.args = append(b.args, v)
	switch b.dialect {
	case dialect.Postgres:
		return "$" + strconv.Itoa(len(b.args))
	case dialect.SQLServer:
		return "@p" + strconv.Itoa(len(b.args))
	default:
		return "?"
	}
}

func quoteWith(ident string, left, right byte) string {
	if strings.IndexByte(ident, left) != -1 || strings.ContainsAny(ident, "()*") {
		return ident
	}
	var sb strings.Builder
	for n, segment := range strings.Split(ident, ".") {
		if n > 0 {
			sb.WriteByte('.')
		}
		sb.WriteByte(left)
		for i := 0; i < len(segment); i++ {
			if segment[i] == right {
				sb.WriteByte(right)
			}
			sb.WriteByte(segment[i])
		}
		sb.WriteByte(right)
	}
	return sb.String()
}

// DialectBuilder creates statement builders bound to a dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
//
//	sql.Dialect(dialect.Postgres).
//		Insert("users").
//		Columns("name").
//		Values("Ann")
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{name}
}

// Legacy returns a DialectBuilder matching the rendering used before
// per-dialect support existed: portable double-quoted identifiers with
// MySQL-flavored statement modifiers and placeholders. Builders created
// without an explicit dialect behave the same way.
func Legacy() *DialectBuilder {
	return &DialectBuilder{}
}

// Insert creates an InsertBuilder for the given table bound to the
// dialect of d.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	i := Insert(table)
	i.SetDialect(d.dialect)
	return i
}

// InsertBuilder is a builder for INSERT statements. A builder holds one
// logical statement: it is configured through its mutators, compiled
// exactly once, and must not be shared between goroutines.
type InsertBuilder struct {
	Builder
	table   string
	ignore  bool
	columns []string
	assigns []assign
	values  [][]Value
	rows    []map[string]any
	stmt    *Statement
	stmtErr error

	compiled bool
	sealed   bool // ErrAlreadyCompiled recorded once
}

type assign struct {
	column string
	value  Value
}

// Insert creates an InsertBuilder for the given table. The builder
// starts in named parameter mode with the legacy dialect-neutral
// rendering; use Dialect to bind it to a backend.
//
//	Insert("users").
//		Set("name", "Ann").
//		Set("created_at", Raw("NOW()"))
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{
		Builder: Builder{mode: ParamNamed, prefix: "p"},
		table:   table,
	}
}

// Table resets the insert target table.
func (i *InsertBuilder) Table(table string) *InsertBuilder {
	if !i.mutable() {
		return i
	}
	i.table = table
	return i
}

// IgnoreDuplicates makes the statement skip rows that would violate a
// unique constraint instead of failing. It renders "INSERT IGNORE" on
// MySQL and the legacy dialect, "INSERT OR IGNORE" on SQLite and an
// "ON CONFLICT DO NOTHING" clause on PostgreSQL. SQL Server has no
// equivalent modifier and fails at compile time.
func (i *InsertBuilder) IgnoreDuplicates() *InsertBuilder {
	if !i.mutable() {
		return i
	}
	i.ignore = true
	return i
}

// Set records a single-row column assignment. Assignment order is
// preserved and determines both the column list and the VALUES tuple.
// Setting a column twice overwrites its value in place. Plain Go values
// bind through placeholders; pass Raw, Expr or Ref values for the
// other assignment forms.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	if !i.mutable() {
		return i
	}
	for n := range i.assigns {
		if i.assigns[n].column == column {
			i.assigns[n].value = toValue(v)
			return i
		}
	}
	i.assigns = append(i.assigns, assign{column: column, value: toValue(v)})
	return i
}

// Columns sets the insert columns for the Values form.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	if !i.mutable() {
		return i
	}
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends one row of values aligned to the Columns list. Calling
// it more than once builds a multi-row insert.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	if !i.mutable() {
		return i
	}
	row := make([]Value, len(values))
	for n, v := range values {
		row[n] = toValue(v)
	}
	i.values = append(i.values, row)
	return i
}

// Rows appends batch rows given as column to value maps. The first row
// determines the insert columns, ordered by name for deterministic
// output, and every later row must carry exactly the same column set.
func (i *InsertBuilder) Rows(rows ...map[string]any) *InsertBuilder {
	if !i.mutable() {
		return i
	}
	i.rows = append(i.rows, rows...)
	return i
}

// Positional switches the builder to positional parameter mode. New
// builders start in named mode.
func (i *InsertBuilder) Positional() *InsertBuilder {
	if !i.mutable() {
		return i
	}
	i.mode = ParamPositional
	return i
}

// Compiled reports whether the builder has been compiled.
func (i *InsertBuilder) Compiled() bool {
	return i.compiled
}

// Compile renders the statement exactly once and memoizes the result.
// Repeated calls return the same Statement without re-touching the
// binding table, so the placeholder counter never grows on recompile.
// Configuration problems surface here as validation, capability or
// unsupported-dialect errors.
func (i *InsertBuilder) Compile() (*Statement, error) {
	if i.compiled {
		return i.stmt, i.stmtErr
	}
	i.compiled = true
	i.stmt, i.stmtErr = i.compile()
	return i.stmt, i.stmtErr
}

// Query implements the Querier interface. Compile failures are recorded
// on the builder and can be inspected through Err.
func (i *InsertBuilder) Query() (string, []any) {
	st, err := i.Compile()
	if err != nil {
		return "", nil
	}
	return st.SQL(), st.Args()
}

// mutable reports whether the builder still accepts configuration.
// The first mutation after compile records ErrAlreadyCompiled.
func (i *InsertBuilder) mutable() bool {
	if !i.compiled {
		return true
	}
	if !i.sealed {
		i.sealed = true
		i.AddError(sqlbridge.ErrAlreadyCompiled)
	}
	return false
}

func (i *InsertBuilder) compile() (*Statement, error) {
	cols, rows, err := i.resolve()
	if err != nil {
		i.AddError(err)
	}
	if i.ignore && i.dialect == dialect.SQLServer {
		i.AddError(sqlbridge.NewCapabilityError(i.dialect, "ignore duplicates"))
	}
	if err := i.Err(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("INSERT ")
	if i.ignore {
		switch i.dialect {
		case dialect.MySQL, "":
			sb.WriteString("IGNORE ")
		case dialect.SQLite:
			sb.WriteString("OR IGNORE ")
		}
	}
	sb.WriteString("INTO ")
	sb.WriteString(i.Quote(i.table))
	if len(rows) == 0 {
		// Degenerate insert without any assignment.
		switch i.dialect {
		case dialect.MySQL, "":
			sb.WriteString(" () VALUES ()")
		default:
			sb.WriteString(" DEFAULT VALUES")
		}
	} else {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(") VALUES ")
		for r, row := range rows {
			if r > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for c, v := range row {
				if c > 0 {
					sb.WriteString(", ")
				}
				text, err := i.renderValue(v)
				if err != nil {
					i.AddError(err)
					continue
				}
				sb.WriteString(text)
			}
			sb.WriteByte(')')
		}
	}
	if i.ignore && i.dialect == dialect.Postgres {
		sb.WriteString(" ON CONFLICT DO NOTHING")
	}
	if err := i.Err(); err != nil {
		return nil, err
	}
	st := &Statement{
		query:   sb.String(),
		table:   i.table,
		dialect: i.dialect,
		mode:    i.mode,
	}
	st.args = append(st.args, i.args...)
	st.nargs = append(st.nargs, i.nargs...)
	return st, nil
}

// resolve normalizes the three configuration forms into one column list
// and row set. The forms are mutually exclusive within one builder.
func (i *InsertBuilder) resolve() ([]string, [][]Value, error) {
	if i.table == "" {
		return nil, nil, sqlbridge.NewValidationError("table", errors.New("missing table name"))
	}
	forms := 0
	if len(i.assigns) > 0 {
		forms++
	}
	if len(i.columns) > 0 || len(i.values) > 0 {
		forms++
	}
	if len(i.rows) > 0 {
		forms++
	}
	if forms > 1 {
		return nil, nil, sqlbridge.NewValidationError("assignments", errors.New("single-row, columns and batch forms are mutually exclusive"))
	}
	switch {
	case len(i.assigns) > 0:
		cols := make([]string, len(i.assigns))
		row := make([]Value, len(i.assigns))
		for n, a := range i.assigns {
			cols[n] = a.column
			row[n] = a.value
		}
		return cols, [][]Value{row}, nil
	case len(i.columns) > 0 || len(i.values) > 0:
		if len(i.columns) == 0 {
			return nil, nil, sqlbridge.NewValidationError("columns", errors.New("values given without columns"))
		}
		if len(i.values) == 0 {
			return nil, nil, sqlbridge.NewValidationError("values", errors.New("columns given without values"))
		}
		for n, row := range i.values {
			if len(row) != len(i.columns) {
				return nil, nil, sqlbridge.NewValidationError(
					"row "+strconv.Itoa(n+1),
					fmt.Errorf("got %d values for %d columns", len(row), len(i.columns)),
				)
			}
		}
		return i.columns, i.values, nil
	case len(i.rows) > 0:
		first := i.rows[0]
		if len(first) == 0 {
			return nil, nil, sqlbridge.NewValidationError("row 1", errors.New("empty column set"))
		}
		cols := make([]string, 0, len(first))
		for c := range first {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		rows := make([][]Value, len(i.rows))
		for n, m := range i.rows {
			if len(m) != len(cols) {
				return nil, nil, sqlbridge.NewValidationError(
					"row "+strconv.Itoa(n+1),
					fmt.Errorf("got %d columns, want %d", len(m), len(cols)),
				)
			}
			row := make([]Value, len(cols))
			for cn, c := range cols {
				v, ok := m[c]
				if !ok {
					return nil, nil, sqlbridge.NewValidationError(
						"row "+strconv.Itoa(n+1),
						fmt.Errorf("missing column %q", c),
					)
				}
				row[cn] = toValue(v)
			}
			rows[n] = row
		}
		return cols, rows, nil
	}
	return nil, nil, nil
}

// renderValue renders one assignment value, allocating placeholders for
// scalars and merging subexpression bindings into the builder.
func (i *InsertBuilder) renderValue(v Value) (string, error) {
	switch v := v.(type) {
	case Scalar:
		return i.arg(v.V), nil
	case NamedRef:
		return ":" + v.Name, nil
	case RawExpr:
		return v.SQL, nil
	case ParamExpr:
		return i.mergeExpr(v)
	default:
		return "", fmt.Errorf("dialect/sql: unexpected value type %T", v)
	}
}

// mergeExpr inlines a parameterized subexpression. Every "?" marker
// outside string literals is rewritten to a freshly allocated
// placeholder and its binding is merged into the outer binding table,
// so subexpression-internal positions never collide with outer names.
func (i *InsertBuilder) mergeExpr(x ParamExpr) (string, error) {
	var sb strings.Builder
	var quoted bool
	next := 0
	for n := 0; n < len(x.SQL); n++ {
		switch ch := x.SQL[n]; {
		case ch == '\'':
			quoted = !quoted
			sb.WriteByte(ch)
		case ch == '?' && !quoted:
			if next >= len(x.Args) {
				return "", sqlbridge.NewValidationError("expression", fmt.Errorf("%d bindings for %d markers in %q", len(x.Args), next+1, x.SQL))
			}
			sb.WriteString(i.arg(x.Args[next]))
			next++
		default:
			sb.WriteByte(ch)
		}
	}
	if next != len(x.Args) {
		return "", sqlbridge.NewValidationError("expression", fmt.Errorf("%d bindings for %d markers in %q", len(x.Args), next, x.SQL))
	}
	return sb.String(), nil
}

var _ Querier = (*InsertBuilder)(nil)

// Statement is the immutable result of compiling a builder: the final
// SQL text together with its binding table. A Statement never changes
// after compile, mutating the originating builder has no effect on it.
type Statement struct {
	query   string
	table   string
	dialect string
	mode    ParamMode
	args    []any
	nargs   []NamedArg
}

// RawStatement wraps raw query text in a positional Statement, for
// executing or caching queries the builders do not cover. The table
// scopes cache invalidation and may be empty. The query is taken
// verbatim, placeholders must already match the dialect.
func RawStatement(d, table, query string, args ...any) *Statement {
	if n, ok := dialect.Normalize(d); ok {
		d = n
	}
	return &Statement{
		query:   query,
		table:   table,
		dialect: d,
		mode:    ParamPositional,
		args:    args,
	}
}

// SQL returns the statement text.
func (s *Statement) SQL() string {
	return s.query
}

// Table returns the unquoted target table of the statement.
func (s *Statement) Table() string {
	return s.table
}

// Dialect returns the dialect the statement was compiled for.
func (s *Statement) Dialect() string {
	return s.dialect
}

// Mode returns the parameter mode the statement was compiled in.
func (s *Statement) Mode() ParamMode {
	return s.mode
}

// Args returns the bindings in a form that can be passed directly to
// database/sql: the ordered scalars for positional statements, or the
// bindings wrapped as NamedArg for named statements.
func (s *Statement) Args() []any {
	if s.mode == ParamNamed {
		out := make([]any, len(s.nargs))
		for n, a := range s.nargs {
			out[n] = a
		}
		return out
	}
	out := make([]any, len(s.args))
	copy(out, s.args)
	return out
}

// NamedArgs returns the generated name to value binding table of a
// named statement, or nil for positional statements.
func (s *Statement) NamedArgs() map[string]any {
	if s.mode != ParamNamed {
		return nil
	}
	out := make(map[string]any, len(s.nargs))
	for _, a := range s.nargs {
		out[a.Name] = a.Value
	}
	return out
}

// NamedArgList returns the named bindings in allocation order.
func (s *Statement) NamedArgList() []NamedArg {
	out := make([]NamedArg, len(s.nargs))
	copy(out, s.nargs)
	return out
}
