package sqlgate

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mbellgren/sqlgate/internal/normalize"
	"github.com/mbellgren/sqlgate/internal/resolve"
	"github.com/mbellgren/sqlgate/internal/sqlcheck"
	"github.com/mbellgren/sqlgate/internal/tablebound"
)

// Query validates and executes one SQL statement. Validation runs before
// any connection is opened: size check, target resolution, the text
// analyzer, the Postgres AST layer where applicable, and the table-bound
// policy when this gateway is scoped to a table. All failures come back
// as OK:false — callers never see a Go error or a partial row set.
func (g *Gateway) Query(ctx context.Context, input QueryInput) *QueryOutput {
	start := time.Now()

	if len(input.SQL) > g.config.MaxSQLLength {
		return g.queryError(fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(input.SQL), g.config.MaxSQLLength))
	}

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		return g.queryError(err)
	}

	// Table-bound instances never execute writes, regardless of the flag.
	allowWrite := input.AllowWrite
	if g.config.BoundTable != "" {
		allowWrite = false
	}

	if err := sqlcheck.Validate(input.SQL, allowWrite); err != nil {
		return g.queryError(err)
	}
	if d.Engine == resolve.EnginePostgres {
		if err := sqlcheck.CheckPostgres(input.SQL, allowWrite); err != nil {
			return g.queryError(err)
		}
	}
	if g.config.BoundTable != "" {
		policy := tablebound.New(g.config.BoundTable, d.Engine, d.Database)
		if err := policy.Check(input.SQL); err != nil {
			return g.queryError(err)
		}
	}

	maxRows := input.MaxRows
	if maxRows <= 0 {
		maxRows = g.config.MaxRows
	}

	db, err := openDB(d)
	if err != nil {
		return g.queryError(err)
	}
	defer db.Close()

	cleaned := sqlcheck.StripLeadingComments(input.SQL)
	if !sqlcheck.IsReadOnly(cleaned) && !hasReturningClause(d.Engine, cleaned) {
		res, err := db.ExecContext(ctx, input.SQL, input.Params...)
		if err != nil {
			return g.queryError(err)
		}
		affected, _ := res.RowsAffected()
		g.logger.Info().
			Str("database", d.Database).
			Dur("duration", time.Since(start)).
			Int64("rows_affected", affected).
			Msg("query executed")
		return &QueryOutput{OK: true, Columns: []string{}, Rows: []map[string]any{}, RowsAffected: affected}
	}

	rows, err := db.QueryContext(ctx, input.SQL, input.Params...)
	if err != nil {
		return g.queryError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return g.queryError(err)
	}

	collected, truncated, err := collectRows(rows, columns, maxRows)
	if err != nil {
		return g.queryError(err)
	}

	g.logger.Info().
		Str("database", d.Database).
		Dur("duration", time.Since(start)).
		Int("row_count", len(collected)).
		Bool("truncated", truncated).
		Msg("query executed")

	return &QueryOutput{
		OK:        true,
		Columns:   columns,
		Rows:      collected,
		RowCount:  len(collected),
		Truncated: truncated,
	}
}

var returningRe = regexp.MustCompile(`\breturning\b`)

// hasReturningClause reports whether a write statement yields a row set.
// Postgres writes with RETURNING must run through the query path so the
// returned rows are not discarded; MySQL has no RETURNING clause.
func hasReturningClause(engine resolve.Engine, cleaned string) bool {
	if engine != resolve.EnginePostgres {
		return false
	}
	return returningRe.MatchString(strings.ToLower(sqlcheck.StripLiterals(cleaned)))
}

// collectRows scans and normalizes up to maxRows rows. Reading one row
// past the cap detects truncation without a second round trip; the extra
// row is discarded unscanned.
func collectRows(rows *sql.Rows, columns []string, maxRows int) ([]map[string]any, bool, error) {
	collected := make([]map[string]any, 0)
	truncated := false

	for rows.Next() {
		if len(collected) == maxRows {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, err
		}
		collected = append(collected, normalize.Row(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return collected, truncated, nil
}

// queryError converts any pipeline error into an OK:false output.
func (g *Gateway) queryError(err error) *QueryOutput {
	g.logger.Error().Err(err).Msg("query error")
	return &QueryOutput{Columns: []string{}, Rows: []map[string]any{}, Error: err.Error()}
}
