package sqlcheck

import (
	"strings"
	"testing"
)

func assertPgAllowed(t *testing.T, sql string, allowWrite bool) {
	t.Helper()
	if err := CheckPostgres(sql, allowWrite); err != nil {
		t.Fatalf("expected SQL to pass: %q, got error: %v", sql, err)
	}
}

func assertPgBlocked(t *testing.T, sql string, allowWrite bool, errContains string) {
	t.Helper()
	err := CheckPostgres(sql, allowWrite)
	if err == nil {
		t.Fatalf("expected error containing %q for SQL %q, got nil", errContains, sql)
	}
	if !strings.Contains(err.Error(), errContains) {
		t.Fatalf("expected error containing %q, got %q", errContains, err.Error())
	}
}

func TestCheckPostgres_SelectAllowed(t *testing.T) {
	t.Parallel()
	assertPgAllowed(t, "SELECT * FROM orders WHERE id = 1", false)
}

func TestCheckPostgres_CTEAllowed(t *testing.T) {
	t.Parallel()
	assertPgAllowed(t, "WITH c AS (SELECT 1 AS n) SELECT n FROM c", false)
}

func TestCheckPostgres_ExplainAllowed(t *testing.T) {
	t.Parallel()
	assertPgAllowed(t, "EXPLAIN SELECT 1", false)
}

func TestCheckPostgres_ShowAllowed(t *testing.T) {
	t.Parallel()
	assertPgAllowed(t, "SHOW search_path", false)
}

func TestCheckPostgres_WriteBlocked(t *testing.T) {
	t.Parallel()
	assertPgBlocked(t, "DELETE FROM orders", false, "statement is not read-only")
	assertPgBlocked(t, "UPDATE orders SET total = 0", false, "statement is not read-only")
	assertPgBlocked(t, "INSERT INTO orders VALUES (1)", false, "statement is not read-only")
}

func TestCheckPostgres_WriteAllowedWithFlag(t *testing.T) {
	t.Parallel()
	assertPgAllowed(t, "UPDATE orders SET total = 0 WHERE id = 1", true)
}

func TestCheckPostgres_MultiStatement(t *testing.T) {
	t.Parallel()
	assertPgBlocked(t, "SELECT 1; SELECT 2", false, "found 2 statements")
	assertPgBlocked(t, "SELECT 1; DROP TABLE orders", true, "found 2 statements")
}

func TestCheckPostgres_ParseFailureIsNoOp(t *testing.T) {
	t.Parallel()
	// MySQL-only syntax does not parse as Postgres. The layer only adds
	// rejections, so unparseable text passes through untouched.
	assertPgAllowed(t, "SHOW TABLES LIKE 'ord%'", false)
}
