package sqlgate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

// PreviewRows returns the first rows of a table. The statement is built
// entirely from quoted identifiers and a numeric limit — identifiers
// cannot be bound as parameters, so they are quoted per engine instead.
func (g *Gateway) PreviewRows(ctx context.Context, input PreviewInput) *PreviewOutput {
	start := time.Now()

	table, err := g.effectiveTable(input.Table)
	if err != nil {
		g.logger.Error().Err(err).Msg("preview_rows failed")
		return &PreviewOutput{Error: err.Error()}
	}

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("preview_rows failed")
		return &PreviewOutput{Error: err.Error()}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > g.config.MaxRows {
		limit = g.config.MaxRows
	}

	query := buildPreviewSQL(d.Engine, table, input.Columns, input.OrderBy, input.OrderDesc, limit)

	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("preview_rows failed")
		return &PreviewOutput{Error: err.Error()}
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		g.logger.Error().Err(err).Str("table", table).Msg("preview_rows failed")
		return &PreviewOutput{Error: err.Error()}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &PreviewOutput{Error: err.Error()}
	}
	collected, _, err := collectRows(rows, columns, limit)
	if err != nil {
		g.logger.Error().Err(err).Str("table", table).Msg("preview_rows failed")
		return &PreviewOutput{Error: err.Error()}
	}

	g.logger.Info().
		Str("table", table).
		Dur("duration", time.Since(start)).
		Int("row_count", len(collected)).
		Msg("preview_rows executed")

	return &PreviewOutput{OK: true, Columns: columns, Rows: collected, RowCount: len(collected)}
}

// CountRows returns the exact row count of a table.
func (g *Gateway) CountRows(ctx context.Context, input CountInput) *CountOutput {
	start := time.Now()

	table, err := g.effectiveTable(input.Table)
	if err != nil {
		g.logger.Error().Err(err).Msg("count_rows failed")
		return &CountOutput{Error: err.Error()}
	}

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("count_rows failed")
		return &CountOutput{Table: table, Error: err.Error()}
	}

	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("count_rows failed")
		return &CountOutput{Table: table, Error: err.Error()}
	}
	defer db.Close()

	var count int64
	query := "SELECT COUNT(*) FROM " + quoteIdent(d.Engine, table)
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		g.logger.Error().Err(err).Str("table", table).Msg("count_rows failed")
		return &CountOutput{Table: table, Error: err.Error()}
	}

	g.logger.Info().
		Str("table", table).
		Dur("duration", time.Since(start)).
		Int64("count", count).
		Msg("count_rows executed")

	return &CountOutput{OK: true, Table: table, Count: count}
}

// effectiveTable applies the bound-table restriction to an explicit or
// omitted table argument.
func (g *Gateway) effectiveTable(table string) (string, error) {
	bound := g.config.BoundTable
	if bound == "" {
		if table == "" {
			return "", fmt.Errorf("table is required")
		}
		return table, nil
	}
	if table == "" || strings.EqualFold(table, bound) {
		return bound, nil
	}
	return "", fmt.Errorf("this tool is bound to table %q", bound)
}

// buildPreviewSQL assembles SELECT <cols> FROM <table> [ORDER BY <col>
// ASC|DESC] LIMIT <n> with per-engine identifier quoting.
func buildPreviewSQL(engine resolve.Engine, table string, columns []string, orderBy string, desc bool, limit int) string {
	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = quoteIdent(engine, c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(engine, table))
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(engine, orderBy))
		if desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)
	return b.String()
}

// quoteIdent quotes an identifier per engine: back-quotes for the MySQL
// family, double quotes for Postgres, with embedded quote doubling.
func quoteIdent(engine resolve.Engine, name string) string {
	if engine == resolve.EnginePostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
