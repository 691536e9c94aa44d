package sql

// Value is the closed set of forms an insert assignment can take. A value
// is either a Scalar bound through a placeholder, a NamedRef resolved at
// execution time, a RawExpr inlined verbatim, or a ParamExpr carrying its
// own bindings. Plain Go values passed to the builder are wrapped in
// Scalar automatically.
type Value interface {
	isValue()
}

// Scalar is a plain Go value bound through a generated placeholder.
type Scalar struct {
	V any
}

func (Scalar) isValue() {}

// NamedRef references a named parameter that the caller binds at
// execution time. It renders as ":name" and never allocates a
// placeholder, regardless of the builder's parameter mode.
type NamedRef struct {
	Name string
}

func (NamedRef) isValue() {}

// RawExpr is a SQL fragment inlined verbatim into the statement, such as
// a function call or keyword expression. It carries no bindings and is
// never quoted or escaped.
type RawExpr struct {
	SQL string
}

func (RawExpr) isValue() {}

// ParamExpr is a SQL fragment that carries its own positional bindings.
// The fragment is inlined verbatim and each binding is assigned a fresh
// placeholder in the enclosing statement.
type ParamExpr struct {
	SQL  string
	Args []any
}

func (ParamExpr) isValue() {}

// Ref returns a NamedRef for the given parameter name. A single leading
// colon is stripped so that Ref("id") and Ref(":id") are equivalent.
func Ref(name string) NamedRef {
	if len(name) > 0 && name[0] == ':' {
		name = name[1:]
	}
	return NamedRef{Name: name}
}

// Raw returns a RawExpr for the given SQL fragment.
func Raw(s string) RawExpr {
	return RawExpr{SQL: s}
}

// Expr returns a ParamExpr for the given SQL fragment and its bindings.
func Expr(s string, args ...any) ParamExpr {
	return ParamExpr{SQL: s, Args: args}
}

// toValue normalizes a builder argument into a Value. Existing Value
// implementations pass through, anything else is wrapped in Scalar.
func toValue(x any) Value {
	if v, ok := x.(Value); ok {
		return v
	}
	return Scalar{V: x}
}
