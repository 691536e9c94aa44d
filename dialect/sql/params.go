package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlbridge/dialect"
)

// ExpandNamed rewrites the named placeholders of a query to the
// positional marker of the given dialect: "?" on MySQL, SQLite and the
// legacy dialect, "$<N>" on PostgreSQL and "@p<N>" on SQL Server. Each
// referenced binding is appended to the returned argument list in
// textual order, duplicated references duplicate the value. Names
// missing from args are left named so they can be bound at execution
// time; on SQL Server they are rewritten to the "@name" form its
// driver parses. String literals, quoted identifiers, line and block
// comments and PostgreSQL "::" casts are left untouched.
func ExpandNamed(d, query string, args map[string]any) (string, []any) {
	var (
		sb  strings.Builder
		out []any
	)
	sb.Grow(len(query))
	for n := 0; n < len(query); n++ {
		switch ch := query[n]; {
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[' && d == dialect.SQLServer:
			end := skipQuoted(query, n)
			sb.WriteString(query[n:end])
			n = end - 1
		case ch == '-' && n+1 < len(query) && query[n+1] == '-':
			end := skipLine(query, n)
			sb.WriteString(query[n:end])
			n = end - 1
		case ch == '/' && n+1 < len(query) && query[n+1] == '*':
			end := skipBlock(query, n)
			sb.WriteString(query[n:end])
			n = end - 1
		case ch == ':':
			if n+1 < len(query) && query[n+1] == ':' {
				sb.WriteString("::")
				n++
				continue
			}
			start := n + 1
			end := start
			for end < len(query) && isNameByte(query[end]) {
				end++
			}
			if end == start {
				sb.WriteByte(ch)
				continue
			}
			name := query[start:end]
			v, ok := args[name]
			if !ok {
				if d == dialect.SQLServer {
					sb.WriteString("@" + name)
				} else {
					sb.WriteString(query[n:end])
				}
				n = end - 1
				continue
			}
			out = append(out, v)
			switch d {
			case dialect.Postgres:
				sb.WriteString("$" + strconv.Itoa(len(out)))
			case dialect.SQLServer:
				sb.WriteString("@p" + strconv.Itoa(len(out)))
			default:
				sb.WriteByte('?')
			}
			n = end - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), out
}

func isNameByte(ch byte) bool {
	return ch == '_' ||
		'0' <= ch && ch <= '9' ||
		'a' <= ch && ch <= 'z' ||
		'A' <= ch && ch <= 'Z'
}

// skipQuoted returns the index just past the quoted region starting at
// start. A doubled closing character escapes itself, a backslash
// escapes the next character inside string literals.
func skipQuoted(s string, start int) int {
	left := s[start]
	right := left
	if left == '[' {
		right = ']'
	}
	for n := start + 1; n < len(s); n++ {
		switch s[n] {
		case '\\':
			if left == '\'' {
				n++
			}
		case right:
			if n+1 < len(s) && s[n+1] == right {
				n++
				continue
			}
			return n + 1
		}
	}
	return len(s)
}

// skipLine returns the index just past a "--" comment.
func skipLine(s string, start int) int {
	for n := start; n < len(s); n++ {
		if s[n] == '\n' {
			return n + 1
		}
	}
	return len(s)
}

// skipBlock returns the index just past a "/* */" comment.
func skipBlock(s string, start int) int {
	for n := start + 2; n+1 < len(s); n++ {
		if s[n] == '*' && s[n+1] == '/' {
			return n + 2
		}
	}
	return len(s)
}
