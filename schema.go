package sqlgate

import (
	"context"
	"fmt"
	"time"

	"github.com/mbellgren/sqlgate/internal/introspect"
)

// GetSchema fetches the full database schema, optionally filtered to a
// table name list.
func (g *Gateway) GetSchema(ctx context.Context, input SchemaInput) *SchemaOutput {
	start := time.Now()

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("get_schema failed")
		return &SchemaOutput{Error: err.Error()}
	}

	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("get_schema failed")
		return &SchemaOutput{Database: d.Database, Error: err.Error()}
	}
	defer db.Close()

	tables, err := introspect.ForEngine(d.Engine).FetchSchema(ctx, db, d.Database, input.Tables)
	if err != nil {
		g.logger.Error().Err(err).Str("database", d.Database).Msg("get_schema failed")
		return &SchemaOutput{Database: d.Database, Error: err.Error()}
	}

	g.logger.Info().
		Str("database", d.Database).
		Dur("duration", time.Since(start)).
		Int("table_count", len(tables)).
		Msg("get_schema executed")

	return &SchemaOutput{OK: true, Database: d.Database, TableCount: len(tables), Tables: tables}
}

// ListTables lists base tables matching an optional pattern, up to limit.
func (g *Gateway) ListTables(ctx context.Context, input ListTablesInput) *ListTablesOutput {
	start := time.Now()

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("list_tables failed")
		return &ListTablesOutput{Error: err.Error()}
	}

	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("list_tables failed")
		return &ListTablesOutput{Error: err.Error()}
	}
	defer db.Close()

	tables, err := introspect.ForEngine(d.Engine).ListTables(ctx, db, d.Database, input.Pattern, input.Limit)
	if err != nil {
		g.logger.Error().Err(err).Str("database", d.Database).Msg("list_tables failed")
		return &ListTablesOutput{Error: err.Error()}
	}

	g.logger.Info().
		Str("database", d.Database).
		Dur("duration", time.Since(start)).
		Int("table_count", len(tables)).
		Msg("list_tables executed")

	return &ListTablesOutput{OK: true, Count: len(tables), Tables: tables}
}

// DescribeTable describes one table's columns. A missing table is a
// normal structured result with OK:false and a not-found message.
func (g *Gateway) DescribeTable(ctx context.Context, input DescribeTableInput) *DescribeTableOutput {
	start := time.Now()

	table := input.Table
	if g.config.BoundTable != "" {
		resolved, err := g.effectiveTable(table)
		if err != nil {
			g.logger.Error().Err(err).Msg("describe_table failed")
			return &DescribeTableOutput{Table: table, Error: err.Error()}
		}
		table = resolved
	}
	if table == "" {
		err := fmt.Errorf("table is required")
		g.logger.Error().Err(err).Msg("describe_table failed")
		return &DescribeTableOutput{Error: err.Error()}
	}

	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("describe_table failed")
		return &DescribeTableOutput{Table: table, Error: err.Error()}
	}

	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("describe_table failed")
		return &DescribeTableOutput{Table: table, Error: err.Error()}
	}
	defer db.Close()

	schema, found, err := introspect.ForEngine(d.Engine).DescribeTable(ctx, db, d.Database, table)
	if err != nil {
		g.logger.Error().Err(err).Str("table", table).Msg("describe_table failed")
		return &DescribeTableOutput{Table: table, Error: err.Error()}
	}
	if !found {
		g.logger.Info().
			Str("table", table).
			Dur("duration", time.Since(start)).
			Msg("describe_table: not found")
		return &DescribeTableOutput{
			Table:   table,
			Columns: []introspect.Column{},
			Error:   fmt.Sprintf("Table '%s' not found.", table),
		}
	}

	g.logger.Info().
		Str("table", table).
		Dur("duration", time.Since(start)).
		Int("column_count", len(schema.Columns)).
		Msg("describe_table executed")

	return &DescribeTableOutput{OK: true, Table: schema.Name, Comment: schema.Comment, Columns: schema.Columns}
}
