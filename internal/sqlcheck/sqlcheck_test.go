package sqlcheck

import (
	"strings"
	"testing"
)

func assertValid(t *testing.T, sql string, allowWrite bool) {
	t.Helper()
	if err := Validate(sql, allowWrite); err != nil {
		t.Fatalf("expected SQL to pass: %q, got error: %v", sql, err)
	}
}

func assertInvalid(t *testing.T, sql string, allowWrite bool, errContains string) {
	t.Helper()
	err := Validate(sql, allowWrite)
	if err == nil {
		t.Fatalf("expected error containing %q for SQL %q, got nil", errContains, sql)
	}
	if !strings.Contains(err.Error(), errContains) {
		t.Fatalf("expected error containing %q, got %q", errContains, err.Error())
	}
}

// --- Comment Stripping ---

func TestStripLeadingComments_LineComment(t *testing.T) {
	t.Parallel()
	got := StripLeadingComments("-- a note\nSELECT 1")
	if got != "SELECT 1" {
		t.Fatalf("expected SELECT 1, got %q", got)
	}
}

func TestStripLeadingComments_BlockComment(t *testing.T) {
	t.Parallel()
	got := StripLeadingComments("/* header */ SELECT 1")
	if got != "SELECT 1" {
		t.Fatalf("expected SELECT 1, got %q", got)
	}
}

func TestStripLeadingComments_Stacked(t *testing.T) {
	t.Parallel()
	got := StripLeadingComments("-- one\n/* two */\n-- three\nSHOW TABLES")
	if got != "SHOW TABLES" {
		t.Fatalf("expected SHOW TABLES, got %q", got)
	}
}

func TestStripLeadingComments_OnlyComments(t *testing.T) {
	t.Parallel()
	if got := StripLeadingComments("-- nothing here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := StripLeadingComments("/* unterminated"); got != "" {
		t.Fatalf("expected empty for unterminated block, got %q", got)
	}
}

// --- Literal Stripping ---

func TestStripLiterals_Basic(t *testing.T) {
	t.Parallel()
	got := StripLiterals("select * from t where name = 'DROP TABLE'")
	if got != "select * from t where name = ''" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestStripLiterals_DoubledQuoteEscape(t *testing.T) {
	t.Parallel()
	got := StripLiterals("select 'it''s a test', col from t")
	if got != "select '', col from t" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestStripLiterals_MultipleLiterals(t *testing.T) {
	t.Parallel()
	got := StripLiterals("select 'a', 'b; c' from t")
	if got != "select '', '' from t" {
		t.Fatalf("unexpected result: %q", got)
	}
}

// --- Multi-Statement Detection ---

func TestValidate_MultiStatement(t *testing.T) {
	t.Parallel()
	assertInvalid(t, "SELECT 1; SELECT 2", false, "multi-statement queries are not allowed")
}

func TestValidate_MultiStatementEvenWithAllowWrite(t *testing.T) {
	t.Parallel()
	assertInvalid(t, "DELETE FROM t; SELECT 1", true, "multi-statement queries are not allowed")
}

func TestValidate_TrailingSemicolonAllowed(t *testing.T) {
	t.Parallel()
	assertValid(t, "SELECT 1;", false)
}

func TestHasMultipleStatements_SemicolonInsideText(t *testing.T) {
	t.Parallel()
	// The text rule is conservative: a semicolon anywhere but the tail
	// counts, even inside what a parser would see as one statement.
	if !HasMultipleStatements("SELECT 'a; b' FROM t") {
		t.Fatal("expected embedded semicolon to count as multi-statement")
	}
}

// --- Read-Only Allow-List ---

func TestValidate_ReadOnlyKeywords(t *testing.T) {
	t.Parallel()
	for _, sql := range []string{
		"SELECT * FROM orders",
		"select 1",
		"SHOW TABLES",
		"DESCRIBE orders",
		"EXPLAIN SELECT 1",
		"WITH c AS (SELECT 1) SELECT * FROM c",
	} {
		assertValid(t, sql, false)
	}
}

func TestValidate_WriteRejectedWithoutFlag(t *testing.T) {
	t.Parallel()
	for _, sql := range []string{
		"INSERT INTO t VALUES (1)",
		"UPDATE t SET x = 1",
		"DELETE FROM t",
		"DROP TABLE t",
	} {
		assertInvalid(t, sql, false, "only read-only statements")
	}
}

func TestValidate_WriteAllowedWithFlag(t *testing.T) {
	t.Parallel()
	assertValid(t, "UPDATE t SET x = 1 WHERE id = 2", true)
}

func TestValidate_CommentedWriteStillRejected(t *testing.T) {
	t.Parallel()
	assertInvalid(t, "-- just reading\nDELETE FROM t", false, "only read-only statements")
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()
	assertInvalid(t, "", false, "empty SQL statement")
	assertInvalid(t, "   ", false, "empty SQL statement")
	assertInvalid(t, "-- only a comment", false, "empty SQL statement")
}

func TestIsReadOnly_PrefixNeedsWordBoundary(t *testing.T) {
	t.Parallel()
	// "selection" starts with "select" but is not a SELECT statement.
	if IsReadOnly("selection_audit()") {
		t.Fatal("expected selection_audit not to pass the prefix check")
	}
	if !IsReadOnly("select(1)") {
		t.Fatal("expected select(1) to pass: parenthesis is a boundary")
	}
}
