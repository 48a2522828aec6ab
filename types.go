package sqlgate

import "github.com/mbellgren/sqlgate/internal/introspect"

// Every tool output carries OK; failures carry a human-readable Error and
// never a partial row set.

// ListDatabasesInput selects an optional single target to report.
type ListDatabasesInput struct {
	TargetKey string `json:"target_key"`
}

// TargetInfo describes one configured target. The password itself is
// never reported, only whether one is set.
type TargetInfo struct {
	Key         string `json:"key"`
	Engine      string `json:"engine"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	User        string `json:"user"`
	Database    string `json:"database"`
	PasswordSet bool   `json:"password_set"`
	Description string `json:"description,omitempty"`
}

// ListDatabasesOutput is the output of the list_databases tool.
type ListDatabasesOutput struct {
	OK         bool         `json:"ok"`
	Targets    []TargetInfo `json:"targets"`
	DefaultKey string       `json:"default_key"`
	Error      string       `json:"error,omitempty"`
}

// PingInput is the input for the ping tool.
type PingInput struct {
	Database  string `json:"database"`
	TargetKey string `json:"target_key"`
}

// PingOutput is the output of the ping tool.
type PingOutput struct {
	OK        bool   `json:"ok"`
	Database  string `json:"database"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// SchemaInput is the input for the get_schema tool.
type SchemaInput struct {
	Database  string   `json:"database"`
	TargetKey string   `json:"target_key"`
	Tables    []string `json:"tables"`
}

// SchemaOutput is the output of the get_schema tool.
type SchemaOutput struct {
	OK         bool                     `json:"ok"`
	Database   string                   `json:"database"`
	TableCount int                      `json:"table_count"`
	Tables     []introspect.TableSchema `json:"tables"`
	Error      string                   `json:"error,omitempty"`
}

// ListTablesInput is the input for the list_tables tool.
type ListTablesInput struct {
	Database  string `json:"database"`
	TargetKey string `json:"target_key"`
	Pattern   string `json:"pattern"`
	Limit     int    `json:"limit"`
}

// ListTablesOutput is the output of the list_tables tool.
type ListTablesOutput struct {
	OK     bool                   `json:"ok"`
	Count  int                    `json:"count"`
	Tables []introspect.TableInfo `json:"tables"`
	Error  string                 `json:"error,omitempty"`
}

// DescribeTableInput is the input for the describe_table tool.
type DescribeTableInput struct {
	Table     string `json:"table"`
	Database  string `json:"database"`
	TargetKey string `json:"target_key"`
}

// DescribeTableOutput is the output of the describe_table tool. A missing
// table is reported as OK:false with a not-found message, never an
// exception.
type DescribeTableOutput struct {
	OK      bool                `json:"ok"`
	Table   string              `json:"table"`
	Comment string              `json:"comment,omitempty"`
	Columns []introspect.Column `json:"columns"`
	Error   string              `json:"error,omitempty"`
}

// PreviewInput is the input for the preview_rows tool.
type PreviewInput struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Limit     int      `json:"limit"`
	OrderBy   string   `json:"order_by"`
	OrderDesc bool     `json:"order_desc"`
	Database  string   `json:"database"`
	TargetKey string   `json:"target_key"`
}

// PreviewOutput is the output of the preview_rows tool.
type PreviewOutput struct {
	OK       bool             `json:"ok"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	Error    string           `json:"error,omitempty"`
}

// CountInput is the input for the count_rows tool.
type CountInput struct {
	Table     string `json:"table"`
	Database  string `json:"database"`
	TargetKey string `json:"target_key"`
}

// CountOutput is the output of the count_rows tool.
type CountOutput struct {
	OK    bool   `json:"ok"`
	Table string `json:"table"`
	Count int64  `json:"count"`
	Error string `json:"error,omitempty"`
}

// QueryInput is the input for the query tool. Params are bound
// positionally with the target engine's placeholder style. AllowWrite is
// ignored — always false — on a table-bound gateway.
type QueryInput struct {
	SQL        string `json:"sql"`
	Params     []any  `json:"params"`
	MaxRows    int    `json:"max_rows"`
	AllowWrite bool   `json:"allow_write"`
	Database   string `json:"database"`
	TargetKey  string `json:"target_key"`
}

// QueryOutput is the output of the query tool. Truncated is set when more
// rows matched than the row cap.
type QueryOutput struct {
	OK           bool             `json:"ok"`
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
	RowCount     int              `json:"row_count"`
	RowsAffected int64            `json:"rows_affected"`
	Truncated    bool             `json:"truncated"`
	Error        string           `json:"error,omitempty"`
}
