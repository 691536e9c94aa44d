// Package sqlfunc translates abstract SQL function calls into
// backend-specific syntax.
//
// Every supported backend (MySQL, PostgreSQL, SQL Server, SQLite) implements
// the Translator interface. Translations are pure string transforms: a
// translator never touches a connection and never fails for the common
// contract.
//
// # Common Contract
//
// The Translator interface covers the function vocabulary every backend
// provides: aggregates, string concatenation and slicing, date arithmetic
// and formatting, numeric rounding, and conditional expressions.
//
//	tr, err := sqlfunc.DefaultRegistry.Translator(dialect.Postgres)
//	tr.DateFormat("created_at", "%Y-%m-%d") // TO_CHAR(created_at, 'YYYY-MM-DD')
//	tr.IfNull("nickname", "name")           // COALESCE(nickname, name)
//
// # Capabilities
//
// Backend-specific extensions are not part of the common contract. They are
// discovered by interface assertion and must never be assumed present:
//
//	if ft, ok := tr.(sqlfunc.FullTextSearcher); ok {
//	    expr, err := ft.FullTextMatch([]string{"title", "body"}, query)
//	    ...
//	}
//
// # Date Formats and Units
//
// All translators share one abstract date-format vocabulary (%Y %y %m %d %H
// %i %s %M %b %W %a) and one date-unit vocabulary (DAY, MONTH, YEAR, HOUR,
// MINUTE, SECOND, WEEK, QUARTER; singular or plural, any case). Format
// translation is a literal single-pass substitution: user text inside a
// format string that happens to spell a native token of the target backend
// is rewritten along with it. Unrecognized date units fall back to DAY.
package sqlfunc

import "strings"

// Translator renders abstract SQL function intents in one backend's exact
// syntax. All methods are pure; implementations hold no state and are safe
// for concurrent use.
type Translator interface {
	// Dialect returns the canonical dialect name of the backend.
	Dialect() string

	// QuoteIdent quotes an identifier, splitting qualified names on dots.
	QuoteIdent(name string) string

	// Aggregates.
	Count(expr string) string
	Sum(expr string) string
	Avg(expr string) string
	Min(expr string) string
	Max(expr string) string

	// Concat joins string expressions.
	Concat(parts ...string) string

	// Substring slices str from a 1-based start position; SubstringN limits
	// the slice to length characters.
	Substring(str, start string) string
	SubstringN(str, start, length string) string

	// Now returns the current date and time.
	Now() string

	// DateFormat renders date using the abstract format vocabulary.
	DateFormat(date, format string) string

	// DateAdd and DateSub shift date by amount units.
	DateAdd(date, amount, unit string) string
	DateSub(date, amount, unit string) string

	// Numeric functions.
	Round(number string) string
	RoundN(number, decimals string) string
	Ceil(number string) string
	Floor(number string) string
	Abs(number string) string
	Rand() string

	// Conditional expressions.
	Conditional(cond, ifTrue, ifFalse string) string
	IfNull(a, b string) string
	NullIf(a, b string) string
}

// JSONExtractor is the capability interface for backends that can extract
// values from JSON documents by path (e.g. "$.address.city").
type JSONExtractor interface {
	JSONExtract(doc, path string) (string, error)
}

// FullTextSearcher is the capability interface for backends with a full-text
// match predicate over one or more columns.
type FullTextSearcher interface {
	FullTextMatch(cols []string, query string) (string, error)
}

// canonicalUnits holds the shared date-unit vocabulary in canonical form.
var canonicalUnits = map[string]string{
	"DAY":     "DAY",
	"MONTH":   "MONTH",
	"YEAR":    "YEAR",
	"HOUR":    "HOUR",
	"MINUTE":  "MINUTE",
	"SECOND":  "SECOND",
	"WEEK":    "WEEK",
	"QUARTER": "QUARTER",
}

// canonicalUnit normalizes a date unit (any case, singular or plural) to its
// canonical uppercase singular form. Unrecognized units fall back to DAY.
func canonicalUnit(unit string) string {
	u := strings.ToUpper(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, "S")
	if c, ok := canonicalUnits[u]; ok {
		return c
	}
	return "DAY"
}

// quoteWith quotes each dot-separated segment of ident between left and
// right, doubling embedded closing quote characters.
func quoteWith(ident, left, right string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = left + strings.ReplaceAll(p, right, right+right) + right
	}
	return strings.Join(parts, ".")
}

// escapeString doubles single quotes so user text can be embedded in a SQL
// string literal.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// aggr renders a standard aggregate call. The five common aggregates share
// this spelling on every backend.
func aggr(name, expr string) string {
	return name + "(" + expr + ")"
}
