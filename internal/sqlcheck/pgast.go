package sqlcheck

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// CheckPostgres adds an AST-based layer for the Postgres engine on top of
// the text checks: statement count and statement class come from the real
// PostgreSQL parser. The layer only adds rejections — a parse failure is
// not an approval and not a rejection; the engine's own error surfaces at
// execution time.
func CheckPostgres(sql string, allowWrite bool) error {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil
	}

	if len(result.Stmts) > 1 {
		return fmt.Errorf("multi-statement queries are not allowed: found %d statements", len(result.Stmts))
	}
	if allowWrite || len(result.Stmts) == 0 {
		return nil
	}

	switch result.Stmts[0].Stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return nil
	case *pg_query.Node_ExplainStmt:
		return nil
	case *pg_query.Node_VariableShowStmt:
		return nil
	default:
		return fmt.Errorf("statement is not read-only: set allow_write to execute it")
	}
}
