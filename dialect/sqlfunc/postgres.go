package sqlfunc

import (
	"errors"
	"strings"

	"github.com/syssam/sqlbridge/dialect"
)

// Postgres translates abstract function calls into PostgreSQL syntax.
type Postgres struct{}

var (
	_ Translator       = Postgres{}
	_ JSONExtractor    = Postgres{}
	_ FullTextSearcher = Postgres{}
)

// pgFormat rewrites the abstract date-format vocabulary into TO_CHAR
// templates. A single-pass replacer keeps emitted native tokens from being
// matched again by later rules.
var pgFormat = strings.NewReplacer(
	"%Y", "YYYY",
	"%y", "YY",
	"%m", "MM",
	"%d", "DD",
	"%H", "HH24",
	"%i", "MI",
	"%s", "SS",
	"%M", "Month",
	"%b", "Mon",
	"%W", "Day",
	"%a", "Dy",
)

// pgIntervalUnits maps canonical units onto interval literals; QUARTER has
// no interval keyword and becomes three months.
var pgIntervalUnits = map[string]string{
	"DAY":     "1 day",
	"MONTH":   "1 month",
	"YEAR":    "1 year",
	"HOUR":    "1 hour",
	"MINUTE":  "1 minute",
	"SECOND":  "1 second",
	"WEEK":    "1 week",
	"QUARTER": "3 month",
}

// Dialect returns the canonical dialect name.
func (Postgres) Dialect() string { return dialect.Postgres }

// QuoteIdent quotes an identifier with double quotes.
func (Postgres) QuoteIdent(name string) string { return quoteWith(name, `"`, `"`) }

func (Postgres) Count(expr string) string { return aggr("COUNT", expr) }
func (Postgres) Sum(expr string) string   { return aggr("SUM", expr) }
func (Postgres) Avg(expr string) string   { return aggr("AVG", expr) }
func (Postgres) Min(expr string) string   { return aggr("MIN", expr) }
func (Postgres) Max(expr string) string   { return aggr("MAX", expr) }

// Concat joins expressions with the || operator.
func (Postgres) Concat(parts ...string) string {
	switch len(parts) {
	case 0:
		return "''"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func (Postgres) Substring(str, start string) string {
	return "SUBSTRING(" + str + " FROM " + start + ")"
}

func (Postgres) SubstringN(str, start, length string) string {
	return "SUBSTRING(" + str + " FROM " + start + " FOR " + length + ")"
}

// Now returns the current date and time.
func (Postgres) Now() string { return "NOW()" }

// DateFormat renders TO_CHAR with the translated format template.
func (Postgres) DateFormat(date, format string) string {
	return "TO_CHAR(" + date + ", '" + escapeString(pgFormat.Replace(format)) + "')"
}

// DateAdd shifts date forward by amount units. The amount multiplies a unit
// interval so column and expression amounts work, not only literals.
func (Postgres) DateAdd(date, amount, unit string) string {
	return "(" + date + " + (" + amount + ") * INTERVAL '" + pgIntervalUnits[canonicalUnit(unit)] + "')"
}

// DateSub shifts date backward by amount units.
func (Postgres) DateSub(date, amount, unit string) string {
	return "(" + date + " - (" + amount + ") * INTERVAL '" + pgIntervalUnits[canonicalUnit(unit)] + "')"
}

func (Postgres) Round(number string) string { return "ROUND(" + number + ")" }

func (Postgres) RoundN(number, decimals string) string {
	return "ROUND(" + number + ", " + decimals + ")"
}

func (Postgres) Ceil(number string) string  { return "CEIL(" + number + ")" }
func (Postgres) Floor(number string) string { return "FLOOR(" + number + ")" }
func (Postgres) Abs(number string) string   { return "ABS(" + number + ")" }

// Rand returns a random float in [0, 1).
func (Postgres) Rand() string { return "RANDOM()" }

func (Postgres) Conditional(cond, ifTrue, ifFalse string) string {
	return "CASE WHEN " + cond + " THEN " + ifTrue + " ELSE " + ifFalse + " END"
}

func (Postgres) IfNull(a, b string) string { return "COALESCE(" + a + ", " + b + ")" }
func (Postgres) NullIf(a, b string) string { return "NULLIF(" + a + ", " + b + ")" }

// JSONExtract renders a #>> text-extraction over the path. The abstract
// "$.a.b" path form becomes the '{a,b}' path array.
func (Postgres) JSONExtract(doc, path string) (string, error) {
	switch {
	case path == "$":
		return "(" + doc + ")::text", nil
	case !strings.HasPrefix(path, "$."):
		return "", errors.New("sqlfunc: json path must start with $")
	}
	parts := strings.Split(strings.TrimPrefix(path, "$."), ".")
	return "(" + doc + " #>> '{" + escapeString(strings.Join(parts, ",")) + "}')", nil
}

// FullTextMatch renders a tsvector match over the given columns using the
// default text search configuration.
func (Postgres) FullTextMatch(cols []string, query string) (string, error) {
	if len(cols) == 0 {
		return "", errors.New("sqlfunc: full-text match requires at least one column")
	}
	return "to_tsvector(" + strings.Join(cols, " || ' ' || ") + ") @@ plainto_tsquery('" + escapeString(query) + "')", nil
}
