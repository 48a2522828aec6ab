package sqlgate

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestGateway(t *testing.T, config Config) *Gateway {
	t.Helper()
	gw, err := New(config, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return gw
}

// --- Configuration ---

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()
	c := Config{}
	if err := c.validate(); err != nil {
		t.Fatalf("zero config must validate: %v", err)
	}
	if c.MaxRows != 100 {
		t.Fatalf("expected default max_rows 100, got %d", c.MaxRows)
	}
	if c.MaxSQLLength != 100000 {
		t.Fatalf("expected default max_sql_length 100000, got %d", c.MaxSQLLength)
	}
}

func TestConfig_BadBoundTable(t *testing.T) {
	t.Parallel()
	_, err := New(Config{BoundTable: "shop.orders"}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "not a plain table identifier") {
		t.Fatalf("expected bound_table error, got %v", err)
	}
}

func TestConfig_NegativeMaxRows(t *testing.T) {
	t.Parallel()
	_, err := New(Config{MaxRows: -1}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "max_rows") {
		t.Fatalf("expected max_rows error, got %v", err)
	}
}

// --- ListDatabases ---

func TestListDatabases_InlineTargets(t *testing.T) {
	t.Setenv(EnvTargets, `{"prod": "postgres://app:pw@db.prod/orders", "stage": "mysql://db.stage/shop"}`)
	t.Setenv(EnvDefaultKey, "prod")

	gw := newTestGateway(t, Config{})
	out := gw.ListDatabases(context.Background(), ListDatabasesInput{})
	if !out.OK {
		t.Fatalf("expected OK, got error %q", out.Error)
	}
	if out.DefaultKey != "prod" || len(out.Targets) != 2 {
		t.Fatalf("unexpected output: default=%q targets=%d", out.DefaultKey, len(out.Targets))
	}
	if out.Targets[0].Key != "prod" || out.Targets[1].Key != "stage" {
		t.Fatalf("expected sorted keys, got %q, %q", out.Targets[0].Key, out.Targets[1].Key)
	}
	if !out.Targets[0].PasswordSet {
		t.Fatal("prod has a password: password_set must be true")
	}
	if out.Targets[1].PasswordSet {
		t.Fatal("stage has no password: password_set must be false")
	}
	for _, tgt := range out.Targets {
		if strings.Contains(tgt.Database+tgt.User+tgt.Host, "pw") {
			t.Fatalf("password must never appear in listing: %+v", tgt)
		}
	}
}

func TestListDatabases_FilterUnknownKey(t *testing.T) {
	t.Setenv(EnvTargets, `{"prod": "mysql://db/shop"}`)

	gw := newTestGateway(t, Config{})
	out := gw.ListDatabases(context.Background(), ListDatabasesInput{TargetKey: "nope"})
	if out.OK {
		t.Fatal("expected failure for unknown key")
	}
	if !strings.Contains(out.Error, `unknown target key "nope"`) {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}

func TestListDatabases_ImplicitSingle(t *testing.T) {
	t.Setenv(EnvTargets, "")
	t.Setenv(EnvTargetsFile, "")
	t.Setenv("MYSQL_DATABASE", "shop")

	gw := newTestGateway(t, Config{})
	out := gw.ListDatabases(context.Background(), ListDatabasesInput{})
	if !out.OK || len(out.Targets) != 1 || out.Targets[0].Key != "default" {
		t.Fatalf("expected single implicit target, got %+v (error %q)", out.Targets, out.Error)
	}
}

// --- Query Validation Pipeline ---

func TestQuery_TooLong(t *testing.T) {
	t.Parallel()
	gw := newTestGateway(t, Config{MaxSQLLength: 10})
	out := gw.Query(context.Background(), QueryInput{SQL: "SELECT * FROM orders"})
	if out.OK {
		t.Fatal("expected failure for oversized SQL")
	}
	if !strings.Contains(out.Error, "SQL query too long") {
		t.Fatalf("unexpected error: %q", out.Error)
	}
	if out.Rows == nil || out.Columns == nil {
		t.Fatal("error output must carry empty slices, not nulls")
	}
}

func TestQuery_MultiStatementRejectedBeforeConnecting(t *testing.T) {
	t.Setenv("MYSQL_DATABASE", "shop")

	gw := newTestGateway(t, Config{})
	out := gw.Query(context.Background(), QueryInput{SQL: "SELECT 1; DROP TABLE orders"})
	if out.OK {
		t.Fatal("expected multi-statement rejection")
	}
	if !strings.Contains(out.Error, "multi-statement queries are not allowed") {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}

func TestQuery_WriteRejectedWithoutFlag(t *testing.T) {
	t.Setenv("MYSQL_DATABASE", "shop")

	gw := newTestGateway(t, Config{})
	out := gw.Query(context.Background(), QueryInput{SQL: "DELETE FROM orders"})
	if out.OK || !strings.Contains(out.Error, "only read-only statements") {
		t.Fatalf("expected read-only rejection, got ok=%v error=%q", out.OK, out.Error)
	}
}

func TestQuery_BoundTableForcesReadOnly(t *testing.T) {
	t.Setenv("MYSQL_DATABASE", "shop")

	gw := newTestGateway(t, Config{BoundTable: "orders"})
	out := gw.Query(context.Background(), QueryInput{
		SQL:        "UPDATE orders SET total = 0",
		AllowWrite: true,
	})
	if out.OK {
		t.Fatal("bound instances must never execute writes")
	}
	if !strings.Contains(out.Error, "only read-only statements") {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}

func TestQuery_BoundTablePolicyApplied(t *testing.T) {
	t.Setenv("MYSQL_DATABASE", "shop")

	gw := newTestGateway(t, Config{BoundTable: "orders"})
	out := gw.Query(context.Background(), QueryInput{SQL: "SELECT * FROM customers"})
	if out.OK {
		t.Fatal("expected bound-table rejection")
	}
	if !strings.Contains(out.Error, `bound to "orders"`) {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}

func TestQuery_UnresolvableTarget(t *testing.T) {
	t.Setenv(EnvTargets, "")
	t.Setenv(EnvTargetsFile, "")
	t.Setenv("MYSQL_DATABASE", "")
	t.Setenv("PGDATABASE", "")

	gw := newTestGateway(t, Config{})
	out := gw.Query(context.Background(), QueryInput{SQL: "SELECT 1"})
	if out.OK || !strings.Contains(out.Error, "no database name could be determined") {
		t.Fatalf("expected resolution failure, got ok=%v error=%q", out.OK, out.Error)
	}
}

// --- Table Argument Handling ---

func TestEffectiveTable_Unbound(t *testing.T) {
	t.Parallel()
	gw := newTestGateway(t, Config{})
	table, err := gw.effectiveTable("orders")
	if err != nil || table != "orders" {
		t.Fatalf("expected orders, got %q (%v)", table, err)
	}
	if _, err := gw.effectiveTable(""); err == nil {
		t.Fatal("expected error for missing table on unbound gateway")
	}
}

func TestEffectiveTable_Bound(t *testing.T) {
	t.Parallel()
	gw := newTestGateway(t, Config{BoundTable: "orders"})

	table, err := gw.effectiveTable("")
	if err != nil || table != "orders" {
		t.Fatalf("omitted table must default to bound table, got %q (%v)", table, err)
	}

	table, err = gw.effectiveTable("ORDERS")
	if err != nil || table != "orders" {
		t.Fatalf("case-insensitive match must resolve to bound table, got %q (%v)", table, err)
	}

	if _, err := gw.effectiveTable("customers"); err == nil || !strings.Contains(err.Error(), `bound to table "orders"`) {
		t.Fatalf("expected bound rejection, got %v", err)
	}
}

func TestPreviewRows_BoundTableMismatch(t *testing.T) {
	t.Parallel()
	gw := newTestGateway(t, Config{BoundTable: "orders"})
	out := gw.PreviewRows(context.Background(), PreviewInput{Table: "customers"})
	if out.OK || !strings.Contains(out.Error, `bound to table "orders"`) {
		t.Fatalf("expected bound rejection, got ok=%v error=%q", out.OK, out.Error)
	}
}

func TestCountRows_TableRequired(t *testing.T) {
	t.Parallel()
	gw := newTestGateway(t, Config{})
	out := gw.CountRows(context.Background(), CountInput{})
	if out.OK || !strings.Contains(out.Error, "table is required") {
		t.Fatalf("expected table-required error, got ok=%v error=%q", out.OK, out.Error)
	}
}
