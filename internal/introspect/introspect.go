// Package introspect lists tables, describes columns, and fetches the
// full database schema. One contract, two implementations: the MySQL
// family reads information_schema; PostgreSQL reconstructs the same shape
// from pg_catalog alone, so the gateway's system-schema policy holds for
// its own queries too.
package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

// TableInfo is one entry of a table listing.
type TableInfo struct {
	Name         string `json:"name"`
	Comment      string `json:"comment"`
	Engine       string `json:"engine"`
	RowsEstimate int64  `json:"rows_estimate"`
}

// Column describes a single column of a table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Key      string `json:"key"`
	Default  string `json:"default"`
	Extra    string `json:"extra"`
	Comment  string `json:"comment"`
}

// TableSchema is one table with its ordered column list.
type TableSchema struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment"`
	Columns []Column `json:"columns"`
}

// Introspector is the per-engine schema introspection contract. The
// boolean result of DescribeTable distinguishes a missing table from an
// error: a missing table is a normal structured result, never a failure.
type Introspector interface {
	ListTables(ctx context.Context, db *sql.DB, database, pattern string, limit int) ([]TableInfo, error)
	DescribeTable(ctx context.Context, db *sql.DB, database, table string) (*TableSchema, bool, error)
	FetchSchema(ctx context.Context, db *sql.DB, database string, tables []string) ([]TableSchema, error)
}

// ForEngine selects the implementation for a descriptor's engine.
func ForEngine(engine resolve.Engine) Introspector {
	if engine == resolve.EnginePostgres {
		return &postgresIntrospector{}
	}
	return &mysqlIntrospector{}
}

// likePattern widens a bare pattern to a substring match; patterns that
// already carry LIKE wildcards are used as-is.
func likePattern(pattern string) string {
	if strings.ContainsAny(pattern, "%_") {
		return pattern
	}
	return "%" + pattern + "%"
}

// clampLimit bounds a caller-supplied listing limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
