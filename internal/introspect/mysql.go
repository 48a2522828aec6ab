package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type mysqlIntrospector struct{}

const mysqlTablesSQL = `
SELECT TABLE_NAME,
       COALESCE(TABLE_COMMENT, ''),
       COALESCE(ENGINE, ''),
       COALESCE(TABLE_ROWS, 0)
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`

const mysqlColumnsSQL = `
SELECT TABLE_NAME,
       COLUMN_NAME,
       COLUMN_TYPE,
       CASE IS_NULLABLE WHEN 'YES' THEN 1 ELSE 0 END,
       COALESCE(COLUMN_KEY, ''),
       COALESCE(COLUMN_DEFAULT, ''),
       COALESCE(EXTRA, ''),
       COALESCE(COLUMN_COMMENT, '')
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ?`

func (m *mysqlIntrospector) ListTables(ctx context.Context, db *sql.DB, database, pattern string, limit int) ([]TableInfo, error) {
	query := mysqlTablesSQL
	args := []any{database}
	if pattern != "" {
		query += " AND TABLE_NAME LIKE ?"
		args = append(args, likePattern(pattern))
	}
	query += fmt.Sprintf(" ORDER BY TABLE_NAME LIMIT %d", clampLimit(limit))

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

func (m *mysqlIntrospector) DescribeTable(ctx context.Context, db *sql.DB, database, table string) (*TableSchema, bool, error) {
	var comment string
	err := db.QueryRowContext(ctx,
		mysqlTablesSQL+" AND TABLE_NAME = ?", database, table).
		Scan(new(string), &comment, new(string), new(int64))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("describe table: %w", err)
	}

	columns, err := m.fetchColumns(ctx, db, database, table)
	if err != nil {
		return nil, false, err
	}
	return &TableSchema{Name: table, Comment: comment, Columns: columns[table]}, true, nil
}

func (m *mysqlIntrospector) FetchSchema(ctx context.Context, db *sql.DB, database string, tables []string) ([]TableSchema, error) {
	query := mysqlTablesSQL
	args := []any{database}
	if len(tables) > 0 {
		query += " AND TABLE_NAME IN (" + placeholders(len(tables)) + ")"
		for _, t := range tables {
			args = append(args, t)
		}
	}
	query += " ORDER BY TABLE_NAME"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	defer rows.Close()

	schemas := []TableSchema{}
	for rows.Next() {
		var ts TableSchema
		if err := rows.Scan(&ts.Name, &ts.Comment, new(string), new(int64)); err != nil {
			return nil, fmt.Errorf("fetch schema scan: %w", err)
		}
		schemas = append(schemas, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns, err := m.fetchColumns(ctx, db, database, tables...)
	if err != nil {
		return nil, err
	}
	for i := range schemas {
		schemas[i].Columns = columns[schemas[i].Name]
	}
	return schemas, nil
}

// fetchColumns loads ordered column metadata for the schema, optionally
// filtered to a table name list, grouped by table.
func (m *mysqlIntrospector) fetchColumns(ctx context.Context, db *sql.DB, database string, tables ...string) (map[string][]Column, error) {
	query := mysqlColumnsSQL
	args := []any{database}
	if len(tables) > 0 {
		query += " AND TABLE_NAME IN (" + placeholders(len(tables)) + ")"
		for _, t := range tables {
			args = append(args, t)
		}
	}
	query += " ORDER BY TABLE_NAME, ORDINAL_POSITION"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch columns: %w", err)
	}
	defer rows.Close()

	byTable := make(map[string][]Column)
	for rows.Next() {
		var table string
		var col Column
		if err := rows.Scan(&table, &col.Name, &col.Type, &col.Nullable, &col.Key, &col.Default, &col.Extra, &col.Comment); err != nil {
			return nil, fmt.Errorf("fetch columns scan: %w", err)
		}
		byTable[table] = append(byTable[table], col)
	}
	return byTable, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
