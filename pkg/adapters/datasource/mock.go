package datasource

import "context"

// MockExecutor is a configurable QueryExecutor for tests.
// Set the function fields to control behavior.
type MockExecutor struct {
	// ExecuteFunc is called when Execute is invoked.
	// If nil, returns an empty result and nil error.
	ExecuteFunc func(ctx context.Context, sqlQuery string, maxRows int) (*QueryResult, error)

	// CloseFunc is called when Close is invoked. If nil, Close returns nil.
	CloseFunc func() error

	// Call tracking for verification
	ExecuteCalls int
	CloseCalls   int

	// Queries records every statement passed to Execute.
	Queries []string
}

// Execute implements QueryExecutor.
func (m *MockExecutor) Execute(ctx context.Context, sqlQuery string, maxRows int) (*QueryResult, error) {
	m.ExecuteCalls++
	m.Queries = append(m.Queries, sqlQuery)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, sqlQuery, maxRows)
	}
	return &QueryResult{Columns: []string{}, Rows: [][]any{}}, nil
}

// Close implements QueryExecutor.
func (m *MockExecutor) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Ensure MockExecutor implements QueryExecutor at compile time.
var _ QueryExecutor = (*MockExecutor)(nil)
