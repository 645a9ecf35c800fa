package datasource

import (
	"context"
	"time"
)

// timeoutExecutor enforces a wall-clock cap on each Execute call.
type timeoutExecutor struct {
	inner   QueryExecutor
	timeout time.Duration
}

// WithTimeout wraps an executor so every query runs under a deadline.
// A non-positive timeout returns the executor unchanged.
func WithTimeout(inner QueryExecutor, timeout time.Duration) QueryExecutor {
	if timeout <= 0 {
		return inner
	}
	return &timeoutExecutor{inner: inner, timeout: timeout}
}

func (t *timeoutExecutor) Execute(ctx context.Context, sqlQuery string, maxRows int) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Execute(ctx, sqlQuery, maxRows)
}

func (t *timeoutExecutor) Close() error {
	return t.inner.Close()
}

var _ QueryExecutor = (*timeoutExecutor)(nil)
