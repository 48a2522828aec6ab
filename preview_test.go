package sqlgate

import (
	"testing"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	if got := quoteIdent(resolve.EngineMySQL, "orders"); got != "`orders`" {
		t.Fatalf("unexpected mysql quoting: %q", got)
	}
	if got := quoteIdent(resolve.EnginePostgres, "orders"); got != `"orders"` {
		t.Fatalf("unexpected postgres quoting: %q", got)
	}
	if got := quoteIdent(resolve.EngineMySQL, "weird`name"); got != "`weird``name`" {
		t.Fatalf("embedded backquote must double: %q", got)
	}
	if got := quoteIdent(resolve.EnginePostgres, `weird"name`); got != `"weird""name"` {
		t.Fatalf("embedded double quote must double: %q", got)
	}
}

func TestBuildPreviewSQL_Defaults(t *testing.T) {
	t.Parallel()
	got := buildPreviewSQL(resolve.EngineMySQL, "orders", nil, "", false, 10)
	want := "SELECT * FROM `orders` LIMIT 10"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildPreviewSQL_ColumnsAndOrder(t *testing.T) {
	t.Parallel()
	got := buildPreviewSQL(resolve.EnginePostgres, "orders", []string{"id", "total"}, "created_at", true, 5)
	want := `SELECT "id", "total" FROM "orders" ORDER BY "created_at" DESC LIMIT 5`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildPreviewSQL_AscendingOrder(t *testing.T) {
	t.Parallel()
	got := buildPreviewSQL(resolve.EngineMySQL, "orders", nil, "id", false, 3)
	want := "SELECT * FROM `orders` ORDER BY `id` ASC LIMIT 3"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
