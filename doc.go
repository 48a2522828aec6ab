// Package sqlgate provides safe, policy-bounded access to MySQL-family
// and PostgreSQL databases for AI agents, without handing the agent raw
// credentials or unrestricted SQL.
//
// A Gateway resolves which physical database a logical call targets from
// flexible configuration (inline JSON target maps, a JSON file, a config
// file section, or discrete environment variables), statically vets the
// SQL text before execution, optionally restricts a tool instance to a
// single table, and normalizes driver values into a stable JSON-safe
// result shape across both engines.
//
// Every call is independent: it opens exactly one connection, performs
// one logical operation, and closes the connection on every exit path.
// There is no pool, no cache of resolved targets, and no shared state, so
// concurrent calls need no coordination.
//
// # Library Usage
//
//	gw, err := sqlgate.New(sqlgate.Config{}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out := gw.Query(ctx, sqlgate.QueryInput{
//		SQL:     "SELECT id, name FROM users WHERE active = ?",
//		Params:  []any{1},
//		MaxRows: 50,
//	})
//	if !out.OK {
//		log.Println(out.Error)
//	}
//
//	// Or register the tools on an MCP server:
//	sqlgate.RegisterMCPTools(mcpServer, gw)
//
// # SQL validation
//
// Validation is a conservative allow-list, layered: a text analyzer
// strips comments and string literals, rejects multi-statement input,
// and requires a read-only leading keyword unless the call explicitly
// allows writes; for PostgreSQL targets the real PostgreSQL parser adds
// an AST-based rejection layer on top. Table-bound instances additionally
// reject mutating keywords, system catalogs, and any FROM/JOIN reference
// outside the bound table. This is not a full SQL parser and is not meant
// to be: anything the analyzers cannot confidently accept is rejected.
package sqlgate
