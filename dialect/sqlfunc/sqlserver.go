package sqlfunc

import (
	"errors"
	"strings"

	"github.com/syssam/sqlbridge/dialect"
)

// SQLServer translates abstract function calls into Transact-SQL syntax.
type SQLServer struct{}

var (
	_ Translator       = SQLServer{}
	_ JSONExtractor    = SQLServer{}
	_ FullTextSearcher = SQLServer{}
)

// mssqlFormat rewrites the abstract date-format vocabulary into the .NET
// format tokens consumed by FORMAT().
var mssqlFormat = strings.NewReplacer(
	"%Y", "yyyy",
	"%y", "yy",
	"%m", "MM",
	"%d", "dd",
	"%H", "HH",
	"%i", "mm",
	"%s", "ss",
	"%M", "MMMM",
	"%b", "MMM",
	"%W", "dddd",
	"%a", "ddd",
)

// mssqlDateParts maps canonical units onto DATEADD dateparts.
var mssqlDateParts = map[string]string{
	"DAY":     "day",
	"MONTH":   "month",
	"YEAR":    "year",
	"HOUR":    "hour",
	"MINUTE":  "minute",
	"SECOND":  "second",
	"WEEK":    "week",
	"QUARTER": "quarter",
}

// Dialect returns the canonical dialect name.
func (SQLServer) Dialect() string { return dialect.SQLServer }

// QuoteIdent quotes an identifier with brackets.
func (SQLServer) QuoteIdent(name string) string { return quoteWith(name, "[", "]") }

func (SQLServer) Count(expr string) string { return aggr("COUNT", expr) }
func (SQLServer) Sum(expr string) string   { return aggr("SUM", expr) }
func (SQLServer) Avg(expr string) string   { return aggr("AVG", expr) }
func (SQLServer) Min(expr string) string   { return aggr("MIN", expr) }
func (SQLServer) Max(expr string) string   { return aggr("MAX", expr) }

// Concat joins expressions with the + operator.
func (SQLServer) Concat(parts ...string) string {
	switch len(parts) {
	case 0:
		return "''"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

// Substring renders SUBSTRING with the length argument T-SQL requires; the
// open-ended form reads to the end of the string.
func (SQLServer) Substring(str, start string) string {
	return "SUBSTRING(" + str + ", " + start + ", LEN(" + str + "))"
}

func (SQLServer) SubstringN(str, start, length string) string {
	return "SUBSTRING(" + str + ", " + start + ", " + length + ")"
}

// Now returns the current date and time.
func (SQLServer) Now() string { return "GETDATE()" }

// DateFormat renders FORMAT with the translated format template.
func (SQLServer) DateFormat(date, format string) string {
	return "FORMAT(" + date + ", '" + escapeString(mssqlFormat.Replace(format)) + "')"
}

func (SQLServer) DateAdd(date, amount, unit string) string {
	return "DATEADD(" + mssqlDateParts[canonicalUnit(unit)] + ", " + amount + ", " + date + ")"
}

func (SQLServer) DateSub(date, amount, unit string) string {
	return "DATEADD(" + mssqlDateParts[canonicalUnit(unit)] + ", -(" + amount + "), " + date + ")"
}

// Round renders ROUND with the length argument T-SQL requires.
func (SQLServer) Round(number string) string { return "ROUND(" + number + ", 0)" }

func (SQLServer) RoundN(number, decimals string) string {
	return "ROUND(" + number + ", " + decimals + ")"
}

func (SQLServer) Ceil(number string) string  { return "CEILING(" + number + ")" }
func (SQLServer) Floor(number string) string { return "FLOOR(" + number + ")" }
func (SQLServer) Abs(number string) string   { return "ABS(" + number + ")" }

// Rand returns a per-row random float in [0, 1). Bare RAND() is evaluated
// once per statement, so it is seeded from NEWID.
func (SQLServer) Rand() string { return "RAND(CHECKSUM(NEWID()))" }

func (SQLServer) Conditional(cond, ifTrue, ifFalse string) string {
	return "IIF(" + cond + ", " + ifTrue + ", " + ifFalse + ")"
}

func (SQLServer) IfNull(a, b string) string { return "ISNULL(" + a + ", " + b + ")" }
func (SQLServer) NullIf(a, b string) string { return "NULLIF(" + a + ", " + b + ")" }

// JSONExtract renders JSON_VALUE with the JSON path passed verbatim.
func (SQLServer) JSONExtract(doc, path string) (string, error) {
	return "JSON_VALUE(" + doc + ", '" + escapeString(path) + "')", nil
}

// FullTextMatch renders a CONTAINS predicate over the given columns. The
// table must carry a full-text index.
func (SQLServer) FullTextMatch(cols []string, query string) (string, error) {
	if len(cols) == 0 {
		return "", errors.New("sqlfunc: full-text match requires at least one column")
	}
	return "CONTAINS((" + strings.Join(cols, ", ") + "), '" + escapeString(query) + "')", nil
}
