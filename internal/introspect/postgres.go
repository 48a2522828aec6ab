package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// postgresIntrospector reads pg_catalog directly (pg_class, pg_namespace,
// pg_attribute, pg_attrdef, pg_index) instead of information_schema, to
// match the system-schema policy applied to caller SQL. Primary keys come
// from index introspection; identity and serial columns are detected via
// attidentity and nextval() defaults.
type postgresIntrospector struct{}

const pgTablesSQL = `
SELECT c.relname,
       COALESCE(obj_description(c.oid, 'pg_class'), ''),
       COALESCE(am.amname, ''),
       GREATEST(c.reltuples::bigint, 0)
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_am am ON am.oid = c.relam
WHERE c.relkind IN ('r', 'p') AND n.nspname = 'public'`

const pgColumnsSQL = `
SELECT a.attname,
       pg_catalog.format_type(a.atttypid, a.atttypmod),
       NOT a.attnotnull,
       COALESCE(pg_catalog.pg_get_expr(d.adbin, d.adrelid), ''),
       a.attidentity <> '',
       COALESCE(col_description(a.attrelid, a.attnum), ''),
       EXISTS (
           SELECT 1
           FROM pg_catalog.pg_index i
           WHERE i.indrelid = a.attrelid
             AND i.indisprimary
             AND a.attnum = ANY(i.indkey)
       )
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
WHERE n.nspname = 'public'
  AND c.relname = $1
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

func (p *postgresIntrospector) ListTables(ctx context.Context, db *sql.DB, database, pattern string, limit int) ([]TableInfo, error) {
	query := pgTablesSQL
	args := []any{}
	if pattern != "" {
		query += " AND c.relname LIKE $1"
		args = append(args, likePattern(pattern))
	}
	query += fmt.Sprintf(" ORDER BY c.relname LIMIT %d", clampLimit(limit))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.Comment, &t.Engine, &t.RowsEstimate); err != nil {
			return nil, fmt.Errorf("list tables scan: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p *postgresIntrospector) DescribeTable(ctx context.Context, db *sql.DB, database, table string) (*TableSchema, bool, error) {
	var comment string
	err := db.QueryRowContext(ctx,
		pgTablesSQL+" AND c.relname = $1", table).
		Scan(new(string), &comment, new(string), new(int64))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("describe table: %w", err)
	}

	columns, err := p.fetchColumns(ctx, db, table)
	if err != nil {
		return nil, false, err
	}
	return &TableSchema{Name: table, Comment: comment, Columns: columns}, true, nil
}

func (p *postgresIntrospector) FetchSchema(ctx context.Context, db *sql.DB, database string, tables []string) ([]TableSchema, error) {
	wanted := make(map[string]bool, len(tables))
	for _, t := range tables {
		wanted[t] = true
	}

	listed, err := p.ListTables(ctx, db, database, "", 1000)
	if err != nil {
		return nil, err
	}

	schemas := []TableSchema{}
	for _, t := range listed {
		if len(wanted) > 0 && !wanted[t.Name] {
			continue
		}
		columns, err := p.fetchColumns(ctx, db, t.Name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, TableSchema{Name: t.Name, Comment: t.Comment, Columns: columns})
	}
	return schemas, nil
}

func (p *postgresIntrospector) fetchColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, pgColumnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("fetch columns: %w", err)
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var col Column
		var identity, primary bool
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &identity, &col.Comment, &primary); err != nil {
			return nil, fmt.Errorf("fetch columns scan: %w", err)
		}
		if primary {
			col.Key = "PRI"
		}
		col.Default, col.Extra = normalizeDefault(col.Default, identity)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

var castSuffixRe = regexp.MustCompile(`::[a-z_][a-z0-9_ ]*(\[\])?$`)

// normalizeDefault maps Postgres default expressions to the shared
// column shape: identity columns and nextval() serials surface as extra
// flags, and trailing type casts are trimmed from plain defaults.
func normalizeDefault(def string, identity bool) (normalized, extra string) {
	if identity {
		return "", "identity"
	}
	if strings.HasPrefix(def, "nextval(") {
		return "", "auto_increment"
	}
	return castSuffixRe.ReplaceAllString(def, ""), ""
}
