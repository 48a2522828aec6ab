package sqlgate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
)

// RegisterMCPTools registers the gateway's tools on an MCP server. On an
// unrestricted gateway that is list_databases, ping, get_schema,
// list_tables, describe_table, preview_rows, count_rows, and query; on a
// table-bound gateway only the single-table tools are registered and the
// query tool exposes no allow_write parameter.
func RegisterMCPTools(mcpServer *server.MCPServer, gw *Gateway) {
	if gw.BoundTable() != "" {
		registerTableBoundTools(mcpServer, gw)
		return
	}

	mcpServer.AddTool(mcp.NewTool("list_databases",
		mcp.WithDescription("List the configured database targets and the default target key. Passwords are reported only as set/unset."),
		mcp.WithString("target_key", mcp.Description("Report only this target")),
		mcp.WithReadOnlyHintAnnotation(true),
	), gw.loggedToolHandler("list_databases", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := gw.ListDatabases(ctx, ListDatabasesInput{TargetKey: req.GetString("target_key", "")})
		return toolResult(out, out.OK, out.Error)
	}))

	mcpServer.AddTool(mcp.NewTool("ping",
		mcp.WithDescription("Open a connection to a target database and run a minimal probe statement."),
		mcp.WithString("database", mcp.Description("Database name override")),
		mcp.WithString("target_key", mcp.Description("Target to ping (defaults to the default target)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), gw.loggedToolHandler("ping", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := gw.Ping(ctx, PingInput{
			Database:  req.GetString("database", ""),
			TargetKey: req.GetString("target_key", ""),
		})
		return toolResult(out, out.OK, out.Error)
	}))

	mcpServer.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Fetch the full database schema: every table with its ordered column list."),
		mcp.WithString("database", mcp.Description("Database name override")),
		mcp.WithString("target_key", mcp.Description("Target to inspect")),
		mcp.WithArray("tables", mcp.Description("Restrict to these table names")),
		mcp.WithReadOnlyHintAnnotation(true),
	), gw.loggedToolHandler("get_schema", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := gw.GetSchema(ctx, SchemaInput{
			Database:  req.GetString("database", ""),
			TargetKey: req.GetString("target_key", ""),
			Tables:    stringSliceArg(req, "tables"),
		})
		return toolResult(out, out.OK, out.Error)
	}))

	mcpServer.AddTool(mcp.NewTool("list_tables",
		mcp.WithDescription("List base tables, optionally filtered by a name pattern."),
		mcp.WithString("database", mcp.Description("Database name override")),
		mcp.WithString("pattern", mcp.Description("Table name pattern (SQL LIKE, or a plain substring)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tables to return")),
		mcp.WithReadOnlyHintAnnotation(true),
	), gw.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := gw.ListTables(ctx, ListTablesInput{
			Database: req.GetString("database", ""),
			Pattern:  req.GetString("pattern", ""),
			Limit:    intArg(req, "limit", 0),
		})
		return toolResult(out, out.OK, out.Error)
	}))

	registerDescribeTable(mcpServer, gw, true)
	registerPreviewAndCount(mcpServer, gw, true)

	mcpServer.AddTool(mcp.NewTool("query",
		mcp.WithDescription("Execute a single SQL statement. Read-only unless allow_write is set; multi-statement input is always rejected."),
		mcp.WithString("sql", mcp.Required(), mcp.Description("The SQL statement to execute")),
		mcp.WithString("database", mcp.Description("Database name override")),
		mcp.WithString("target_key", mcp.Description("Target to query")),
		mcp.WithArray("params", mcp.Description("Positional statement parameters")),
		mcp.WithNumber("max_rows", mcp.Description("Row cap; results beyond it set truncated")),
		mcp.WithBoolean("allow_write", mcp.Description("Permit a mutating statement")),
	), gw.loggedToolHandler("query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		out := gw.Query(ctx, QueryInput{
			SQL:        sql,
			Params:     anySliceArg(req, "params"),
			MaxRows:    intArg(req, "max_rows", 0),
			AllowWrite: boolArg(req, "allow_write"),
			Database:   req.GetString("database", ""),
			TargetKey:  req.GetString("target_key", ""),
		})
		return toolResult(out, out.OK, out.Error)
	}))
}

// registerTableBoundTools registers the restricted tool set of a
// table-bound gateway: describe, preview, count, and a read-only query
// validated against the bound table.
func registerTableBoundTools(mcpServer *server.MCPServer, gw *Gateway) {
	registerDescribeTable(mcpServer, gw, false)
	registerPreviewAndCount(mcpServer, gw, false)

	mcpServer.AddTool(mcp.NewTool("query",
		mcp.WithDescription(fmt.Sprintf("Execute a read-only SQL statement against the %q table. Statements referencing any other table are rejected.", gw.BoundTable())),
		mcp.WithString("sql", mcp.Required(), mcp.Description("The SQL statement to execute")),
		mcp.WithArray("params", mcp.Description("Positional statement parameters")),
		mcp.WithNumber("max_rows", mcp.Description("Row cap; results beyond it set truncated")),
		mcp.WithReadOnlyHintAnnotation(true),
	), gw.loggedToolHandler("query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		out := gw.Query(ctx, QueryInput{
			SQL:     sql,
			Params:  anySliceArg(req, "params"),
			MaxRows: intArg(req, "max_rows", 0),
		})
		return toolResult(out, out.OK, out.Error)
	}))
}

func registerDescribeTable(mcpServer *server.MCPServer, gw *Gateway, withTableParam bool) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Describe a table: columns with types, nullability, key role, defaults, and comments."),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	if withTableParam {
		opts = append(opts,
			mcp.WithString("table", mcp.Required(), mcp.Description("The table name to describe")),
			mcp.WithString("database", mcp.Description("Database name override")),
			mcp.WithString("target_key", mcp.Description("Target to inspect")),
		)
	}
	mcpServer.AddTool(mcp.NewTool("describe_table", opts...),
		gw.loggedToolHandler("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out := gw.DescribeTable(ctx, DescribeTableInput{
				Table:     req.GetString("table", ""),
				Database:  req.GetString("database", ""),
				TargetKey: req.GetString("target_key", ""),
			})
			return toolResult(out, out.OK, out.Error)
		}))
}

func registerPreviewAndCount(mcpServer *server.MCPServer, gw *Gateway, withTableParam bool) {
	previewOpts := []mcp.ToolOption{
		mcp.WithDescription("Preview the first rows of a table with optional column selection and ordering."),
		mcp.WithArray("columns", mcp.Description("Columns to select (all when omitted)")),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return")),
		mcp.WithString("order_by", mcp.Description("Column to order by")),
		mcp.WithBoolean("order_desc", mcp.Description("Order descending")),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	countOpts := []mcp.ToolOption{
		mcp.WithDescription("Count the rows of a table."),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	if withTableParam {
		tableParam := []mcp.ToolOption{
			mcp.WithString("table", mcp.Required(), mcp.Description("The table to read")),
			mcp.WithString("database", mcp.Description("Database name override")),
			mcp.WithString("target_key", mcp.Description("Target to read from")),
		}
		previewOpts = append(previewOpts, tableParam...)
		countOpts = append(countOpts, tableParam...)
	}

	mcpServer.AddTool(mcp.NewTool("preview_rows", previewOpts...),
		gw.loggedToolHandler("preview_rows", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out := gw.PreviewRows(ctx, PreviewInput{
				Table:     req.GetString("table", ""),
				Columns:   stringSliceArg(req, "columns"),
				Limit:     intArg(req, "limit", 0),
				OrderBy:   req.GetString("order_by", ""),
				OrderDesc: boolArg(req, "order_desc"),
				Database:  req.GetString("database", ""),
				TargetKey: req.GetString("target_key", ""),
			})
			return toolResult(out, out.OK, out.Error)
		}))

	mcpServer.AddTool(mcp.NewTool("count_rows", countOpts...),
		gw.loggedToolHandler("count_rows", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out := gw.CountRows(ctx, CountInput{
				Table:     req.GetString("table", ""),
				Database:  req.GetString("database", ""),
				TargetKey: req.GetString("target_key", ""),
			})
			return toolResult(out, out.OK, out.Error)
		}))
}

// toolResult marshals a tool output; failures become MCP error results
// carrying the output's error message.
func toolResult(out any, ok bool, errMsg string) (*mcp.CallToolResult, error) {
	if !ok {
		return mcp.NewToolResultError(errMsg), nil
	}
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal tool result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (g *Gateway) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		g.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}

func intArg(req mcp.CallToolRequest, name string, def int) int {
	v, ok := req.GetArguments()[name]
	if !ok {
		return def
	}
	return cast.ToInt(v)
}

func boolArg(req mcp.CallToolRequest, name string) bool {
	return cast.ToBool(req.GetArguments()[name])
}

func stringSliceArg(req mcp.CallToolRequest, name string) []string {
	v, ok := req.GetArguments()[name]
	if !ok {
		return nil
	}
	return cast.ToStringSlice(v)
}

func anySliceArg(req mcp.CallToolRequest, name string) []any {
	if v, ok := req.GetArguments()[name].([]any); ok {
		return v
	}
	return nil
}
