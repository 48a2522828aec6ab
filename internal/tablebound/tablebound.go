// Package tablebound enforces the single-table policy used by table-bound
// tools: a statement may only read from the one permitted table, never
// mutate, and never reach into system catalogs or other databases.
//
// The checks are deliberately layered and additive — disallowed keywords,
// system-catalog names, and table-reference extraction are independent
// filters, so a statement slipping past one is still caught by another.
// A statement whose table references cannot be extracted is rejected, not
// passed.
package tablebound

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mbellgren/sqlgate/internal/resolve"
	"github.com/mbellgren/sqlgate/internal/sqlcheck"
)

var disallowedKeywords = []string{
	"insert", "update", "delete", "replace", "alter", "drop", "truncate",
	"create", "grant", "revoke", "call", "set",
}

var systemSchemas = []string{
	"information_schema", "pg_catalog", "mysql.", "performance_schema",
}

var (
	keywordRe = regexp.MustCompile(`\b(` + strings.Join(disallowedKeywords, "|") + `)\b`)

	// One identifier: bare, back-quoted, or double-quoted.
	ident = "(?:[a-z_][a-z0-9_$]*|`[^`]+`|\"[^\"]+\")"

	// One table reference, optionally schema-qualified.
	qualified = ident + `(?:\s*\.\s*` + ident + `)?`

	// The references after FROM or JOIN: the first table plus every
	// comma-separated table that follows it, each with an optional alias.
	tableRefRe = regexp.MustCompile(`\b(?:from|join)\s+(` + qualified +
		`(?:(?:\s+(?:as\s+)?` + ident + `)?\s*,\s*` + qualified + `)*)`)

	// A FROM-list continuation the reference pattern could not consume,
	// e.g. a comma followed by a subquery.
	listContRe = regexp.MustCompile(`^\s*(?:(?:as\s+)?` + ident + `\s*)?,`)

	leadingRefRe = regexp.MustCompile(`^` + qualified)
)

// Ref is one extracted (schema-or-empty, table) reference, lower-cased
// with identifier quoting stripped.
type Ref struct {
	Schema string
	Table  string
}

// Policy binds a tool instance to exactly one table on one descriptor.
type Policy struct {
	Table    string
	Engine   resolve.Engine
	Database string
}

// New creates a policy for the given bound table.
func New(table string, engine resolve.Engine, database string) *Policy {
	return &Policy{
		Table:    strings.ToLower(table),
		Engine:   engine,
		Database: strings.ToLower(database),
	}
}

// Check decides whether the statement may execute against the bound
// table. The text is comment- and literal-stripped before any scanning.
func (p *Policy) Check(sql string) error {
	cleaned := sqlcheck.StripLeadingComments(sql)
	stripped := strings.ToLower(sqlcheck.StripLiterals(cleaned))

	if m := keywordRe.FindString(stripped); m != "" {
		return fmt.Errorf("statement contains disallowed keyword %q", strings.ToUpper(m))
	}
	for _, schema := range systemSchemas {
		if strings.Contains(stripped, schema) {
			return fmt.Errorf("access to system schema %q is not allowed", strings.TrimSuffix(schema, "."))
		}
	}

	refs, complete := ExtractTableRefs(stripped)
	if !complete {
		return fmt.Errorf("could not resolve every table reference; only plain references to %q are allowed", p.Table)
	}
	if len(refs) == 0 {
		return fmt.Errorf("statement must include FROM/JOIN on bound table %q", p.Table)
	}
	for _, ref := range refs {
		if ref.Table != p.Table {
			return fmt.Errorf("statement references table %q but this tool is bound to %q", ref.Table, p.Table)
		}
		if ref.Schema != "" && p.Engine == resolve.EngineMySQL && ref.Schema != p.Database {
			return fmt.Errorf("cross-database access to %q is not allowed (configured database is %q)", ref.Schema+"."+ref.Table, p.Database)
		}
	}
	return nil
}

// ExtractTableRefs extracts every table reference following a FROM or
// JOIN keyword from already lower-cased, literal-stripped text,
// including comma-separated FROM lists. The boolean result is false when
// a FROM list continues with something the pattern cannot consume (a
// comma followed by a non-identifier); such statements must be rejected,
// never passed.
func ExtractTableRefs(stripped string) ([]Ref, bool) {
	matches := tableRefRe.FindAllStringSubmatchIndex(stripped, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		for _, item := range splitList(stripped[m[2]:m[3]]) {
			parts := splitQualified(leadingRefRe.FindString(strings.TrimSpace(item)))
			ref := Ref{Table: unquoteIdent(parts[len(parts)-1])}
			if len(parts) == 2 {
				ref.Schema = unquoteIdent(parts[0])
			}
			refs = append(refs, ref)
		}
		if listContRe.MatchString(stripped[m[1]:]) {
			return nil, false
		}
	}
	return refs, true
}

// splitList splits a matched FROM list on commas, ignoring commas inside
// quoted identifiers.
func splitList(list string) []string {
	items := []string{}
	depth := byte(0)
	start := 0
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case depth == 0 && (c == '`' || c == '"'):
			depth = c
		case depth != 0 && c == depth:
			depth = 0
		case depth == 0 && c == ',':
			items = append(items, list[start:i])
			start = i + 1
		}
	}
	return append(items, list[start:])
}

// splitQualified splits "schema . table" on the dot separating two
// identifiers, ignoring dots inside quoted parts.
func splitQualified(ref string) []string {
	depth := byte(0)
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case depth == 0 && (c == '`' || c == '"'):
			depth = c
		case depth != 0 && c == depth:
			depth = 0
		case depth == 0 && c == '.':
			return []string{strings.TrimSpace(ref[:i]), strings.TrimSpace(ref[i+1:])}
		}
	}
	return []string{strings.TrimSpace(ref)}
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && (s[0] == '`' && s[len(s)-1] == '`' || s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
