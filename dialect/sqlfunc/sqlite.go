package sqlfunc

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlbridge/dialect"
)

// SQLite translates abstract function calls into SQLite syntax.
//
// SQLite does not implement FullTextSearcher: FTS5 matching is declared
// against a virtual table, not a column list, so the capability
// assertion reports it unavailable.
type SQLite struct{}

var (
	_ Translator    = SQLite{}
	_ JSONExtractor = SQLite{}
)

// sqliteFormat rewrites the abstract date-format vocabulary into strftime
// tokens. SQLite has no month-name or 2-digit-year tokens; the table maps
// those onto the closest numeric forms.
var sqliteFormat = strings.NewReplacer(
	"%Y", "%Y",
	"%y", "%Y",
	"%m", "%m",
	"%d", "%d",
	"%H", "%H",
	"%i", "%M",
	"%s", "%S",
	"%M", "%m",
	"%b", "%m",
	"%W", "%w",
	"%a", "%w",
)

// sqliteUnits maps canonical units onto datetime() modifiers. WEEK and
// QUARTER have no modifier of their own and scale onto days and months.
var sqliteUnits = map[string]struct {
	unit   string
	factor int
}{
	"DAY":     {"days", 1},
	"MONTH":   {"months", 1},
	"YEAR":    {"years", 1},
	"HOUR":    {"hours", 1},
	"MINUTE":  {"minutes", 1},
	"SECOND":  {"seconds", 1},
	"WEEK":    {"days", 7},
	"QUARTER": {"months", 3},
}

// Dialect returns the canonical dialect name.
func (SQLite) Dialect() string { return dialect.SQLite }

// QuoteIdent quotes an identifier with double quotes.
func (SQLite) QuoteIdent(name string) string { return quoteWith(name, `"`, `"`) }

func (SQLite) Count(expr string) string { return aggr("COUNT", expr) }
func (SQLite) Sum(expr string) string   { return aggr("SUM", expr) }
func (SQLite) Avg(expr string) string   { return aggr("AVG", expr) }
func (SQLite) Min(expr string) string   { return aggr("MIN", expr) }
func (SQLite) Max(expr string) string   { return aggr("MAX", expr) }

// Concat joins expressions with the || operator.
func (SQLite) Concat(parts ...string) string {
	switch len(parts) {
	case 0:
		return "''"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func (SQLite) Substring(str, start string) string {
	return "SUBSTR(" + str + ", " + start + ")"
}

func (SQLite) SubstringN(str, start, length string) string {
	return "SUBSTR(" + str + ", " + start + ", " + length + ")"
}

// Now returns the current date and time.
func (SQLite) Now() string { return "datetime('now')" }

// DateFormat renders strftime with the translated format template. Note the
// reversed argument order next to the other backends.
func (SQLite) DateFormat(date, format string) string {
	return "strftime('" + escapeString(sqliteFormat.Replace(format)) + "', " + date + ")"
}

// DateAdd shifts date forward by amount units through a datetime() modifier
// built with string concatenation, so expression amounts work too.
func (SQLite) DateAdd(date, amount, unit string) string {
	return "datetime(" + date + ", '+' || " + sqliteAmount(amount, unit) + ")"
}

// DateSub shifts date backward by amount units.
func (SQLite) DateSub(date, amount, unit string) string {
	return "datetime(" + date + ", '-' || " + sqliteAmount(amount, unit) + ")"
}

// sqliteAmount renders the unsigned part of a datetime() modifier,
// scaling WEEK and QUARTER onto their base units.
func sqliteAmount(amount, unit string) string {
	u := sqliteUnits[canonicalUnit(unit)]
	if u.factor > 1 {
		return "((" + amount + ") * " + strconv.Itoa(u.factor) + ") || ' " + u.unit + "'"
	}
	return "(" + amount + ") || ' " + u.unit + "'"
}

func (SQLite) Round(number string) string { return "ROUND(" + number + ")" }

func (SQLite) RoundN(number, decimals string) string {
	return "ROUND(" + number + ", " + decimals + ")"
}

func (SQLite) Ceil(number string) string  { return "CEIL(" + number + ")" }
func (SQLite) Floor(number string) string { return "FLOOR(" + number + ")" }
func (SQLite) Abs(number string) string   { return "ABS(" + number + ")" }

// Rand returns a random 64-bit integer; SQLite has no unit-interval random
// function.
func (SQLite) Rand() string { return "RANDOM()" }

func (SQLite) Conditional(cond, ifTrue, ifFalse string) string {
	return "CASE WHEN " + cond + " THEN " + ifTrue + " ELSE " + ifFalse + " END"
}

func (SQLite) IfNull(a, b string) string { return "IFNULL(" + a + ", " + b + ")" }
func (SQLite) NullIf(a, b string) string { return "NULLIF(" + a + ", " + b + ")" }

// JSONExtract renders json_extract with the JSON path passed verbatim.
func (SQLite) JSONExtract(doc, path string) (string, error) {
	return "json_extract(" + doc + ", '" + escapeString(path) + "')", nil
}
