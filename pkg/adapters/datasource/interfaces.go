// Package datasource provides query execution adapters for user databases.
// Adapters register themselves via init(); callers go through the registry
// with a per-turn credential capability.
package datasource

import "context"

// QueryExecutor executes a single SQL statement against a user datasource.
// Implementations own their connection, perform bounded transport-level
// retries internally (connection loss, timeout), and must be closed when the
// turn completes. SQL correctness errors are returned as *ExecError and are
// never retried at this level.
type QueryExecutor interface {
	// Execute runs one query and returns up to maxRows rows.
	// Truncated is set when the query produced more rows than maxRows.
	Execute(ctx context.Context, sqlQuery string, maxRows int) (*QueryResult, error)

	// Close releases the database connection.
	Close() error
}

// QueryResult contains the results of a SQL query execution.
// Row values are serialized to JSON-compatible types (string fallback for
// driver-specific types) so results can be rendered or marshalled directly.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}
