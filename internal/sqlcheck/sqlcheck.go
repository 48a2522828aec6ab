// Package sqlcheck decides, from raw text alone, whether a SQL statement
// may run. It is a conservative allow-list filter, not a SQL parser:
// anything not provably safe is rejected. For the Postgres engine an
// additional AST-based layer (pg_query) adds rejections on top; the text
// checks here are the cross-engine baseline.
package sqlcheck

import (
	"fmt"
	"strings"
)

// readOnlyPrefixes are the leading keywords accepted without the explicit
// write-permission flag.
var readOnlyPrefixes = []string{"select", "show", "describe", "explain", "with"}

// StripLeadingComments removes line comments (-- to end of line) and block
// comments (/* ... */) from the front of the text, iterating until no
// comment prefix remains.
func StripLeadingComments(sql string) string {
	s := strings.TrimSpace(sql)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = strings.TrimSpace(s[idx+1:])
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s, "*/")
			if idx < 0 {
				return ""
			}
			s = strings.TrimSpace(s[idx+2:])
		default:
			return s
		}
	}
}

// StripLiterals replaces single-quoted string literals (with doubled-quote
// escaping) by empty literals, so keywords inside string values never
// influence keyword or table scanning.
func StripLiterals(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	inLiteral := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if !inLiteral {
			b.WriteByte(c)
			if c == '\'' {
				inLiteral = true
			}
			continue
		}
		if c == '\'' {
			// Doubled quote is an escaped quote inside the literal.
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inLiteral = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HasMultipleStatements reports whether the text contains more than one
// statement: any semicolon remaining after removing one optional trailing
// semicolon.
func HasMultipleStatements(sql string) bool {
	s := strings.TrimSpace(sql)
	s = strings.TrimSuffix(s, ";")
	return strings.Contains(s, ";")
}

// IsReadOnly reports whether the cleaned text begins with one of the
// approved read-only keywords.
func IsReadOnly(cleaned string) bool {
	lower := strings.ToLower(cleaned)
	for _, prefix := range readOnlyPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := lower[len(prefix):]
		if rest == "" || !isIdentChar(rest[0]) {
			return true
		}
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// Validate runs the text checks in order: comment stripping, the
// multi-statement rejection, and the read-only allow-list unless
// allowWrite is set. A multi-statement rejection applies regardless of
// allowWrite.
func Validate(sql string, allowWrite bool) error {
	cleaned := StripLeadingComments(sql)
	if cleaned == "" {
		return fmt.Errorf("empty SQL statement")
	}
	if HasMultipleStatements(cleaned) {
		return fmt.Errorf("multi-statement queries are not allowed")
	}
	if allowWrite {
		return nil
	}
	if !IsReadOnly(cleaned) {
		return fmt.Errorf("only read-only statements (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH) are allowed without allow_write")
	}
	return nil
}
