package sqlfunc

import (
	"errors"
	"strings"

	"github.com/syssam/sqlbridge/dialect"
)

// MySQL translates abstract function calls into MySQL/MariaDB syntax.
// The abstract date-format vocabulary is MySQL's own, so format strings pass
// through unchanged.
type MySQL struct{}

var (
	_ Translator       = MySQL{}
	_ JSONExtractor    = MySQL{}
	_ FullTextSearcher = MySQL{}
)

// Dialect returns the canonical dialect name.
func (MySQL) Dialect() string { return dialect.MySQL }

// QuoteIdent quotes an identifier with backticks.
func (MySQL) QuoteIdent(name string) string { return quoteWith(name, "`", "`") }

func (MySQL) Count(expr string) string { return aggr("COUNT", expr) }
func (MySQL) Sum(expr string) string   { return aggr("SUM", expr) }
func (MySQL) Avg(expr string) string   { return aggr("AVG", expr) }
func (MySQL) Min(expr string) string   { return aggr("MIN", expr) }
func (MySQL) Max(expr string) string   { return aggr("MAX", expr) }

// Concat joins expressions with CONCAT.
func (MySQL) Concat(parts ...string) string {
	switch len(parts) {
	case 0:
		return "''"
	case 1:
		return parts[0]
	}
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}

func (MySQL) Substring(str, start string) string {
	return "SUBSTRING(" + str + ", " + start + ")"
}

func (MySQL) SubstringN(str, start, length string) string {
	return "SUBSTRING(" + str + ", " + start + ", " + length + ")"
}

// Now returns the current date and time.
func (MySQL) Now() string { return "NOW()" }

// DateFormat renders DATE_FORMAT with the format string unchanged: MySQL's
// token set is the abstract vocabulary.
func (MySQL) DateFormat(date, format string) string {
	return "DATE_FORMAT(" + date + ", '" + escapeString(format) + "')"
}

func (MySQL) DateAdd(date, amount, unit string) string {
	return "DATE_ADD(" + date + ", INTERVAL " + amount + " " + canonicalUnit(unit) + ")"
}

func (MySQL) DateSub(date, amount, unit string) string {
	return "DATE_SUB(" + date + ", INTERVAL " + amount + " " + canonicalUnit(unit) + ")"
}

func (MySQL) Round(number string) string { return "ROUND(" + number + ")" }

func (MySQL) RoundN(number, decimals string) string {
	return "ROUND(" + number + ", " + decimals + ")"
}

func (MySQL) Ceil(number string) string  { return "CEIL(" + number + ")" }
func (MySQL) Floor(number string) string { return "FLOOR(" + number + ")" }
func (MySQL) Abs(number string) string   { return "ABS(" + number + ")" }

// Rand returns a random float in [0, 1).
func (MySQL) Rand() string { return "RAND()" }

func (MySQL) Conditional(cond, ifTrue, ifFalse string) string {
	return "IF(" + cond + ", " + ifTrue + ", " + ifFalse + ")"
}

func (MySQL) IfNull(a, b string) string { return "IFNULL(" + a + ", " + b + ")" }
func (MySQL) NullIf(a, b string) string { return "NULLIF(" + a + ", " + b + ")" }

// JSONExtract renders JSON_EXTRACT with the JSON path passed verbatim.
func (MySQL) JSONExtract(doc, path string) (string, error) {
	return "JSON_EXTRACT(" + doc + ", '" + escapeString(path) + "')", nil
}

// FullTextMatch renders a natural-language MATCH ... AGAINST predicate over
// the given columns. The columns must be covered by a FULLTEXT index.
func (MySQL) FullTextMatch(cols []string, query string) (string, error) {
	if len(cols) == 0 {
		return "", errors.New("sqlfunc: full-text match requires at least one column")
	}
	return "MATCH (" + strings.Join(cols, ", ") + ") AGAINST ('" + escapeString(query) + "')", nil
}
