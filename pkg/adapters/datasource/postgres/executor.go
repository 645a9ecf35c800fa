// Package postgres implements the PostgreSQL query executor.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/retry"
)

const defaultConnectTimeout = 20 * time.Second

// Executor runs queries against a PostgreSQL datasource over a single
// connection. Transport failures (connection loss, statement timeout) are
// retried with linear backoff; SQL errors surface immediately as
// *datasource.ExecError.
type Executor struct {
	conn   *pgx.Conn
	logger *zap.Logger
}

// NewExecutor opens a connection using the given credentials.
func NewExecutor(ctx context.Context, creds datasource.Credentials, logger *zap.Logger) (*Executor, error) {
	sslMode := creds.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		creds.Username, creds.Password, creds.Host, creds.Port, creds.Database,
		sslMode, int(defaultConnectTimeout.Seconds()),
	)

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres datasource: %w", datasource.ClassifyError(err))
	}

	return &Executor{
		conn:   conn,
		logger: logger.Named("postgres_executor"),
	}, nil
}

// Execute implements datasource.QueryExecutor. It reads at most maxRows rows
// and sets Truncated when the query produced more.
func (e *Executor) Execute(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
	var result *datasource.QueryResult
	err := retry.DoIfRetryable(ctx, retry.DatasourceConfig(), func() error {
		var runErr error
		result, runErr = e.runQuery(ctx, sqlQuery, maxRows)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query executed",
		zap.Int("row_count", result.RowCount),
		zap.Bool("truncated", result.Truncated))
	return result, nil
}

func (e *Executor) runQuery(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
	rows, err := e.conn.Query(ctx, sqlQuery)
	if err != nil {
		return nil, datasource.ClassifyError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	result := &datasource.QueryResult{
		Columns: columns,
		Rows:    make([][]any, 0, maxRows),
	}

	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, datasource.ClassifyError(err)
		}
		result.Rows = append(result.Rows, datasource.SerializeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, datasource.ClassifyError(err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// Close implements datasource.QueryExecutor.
func (e *Executor) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.conn.Close(ctx)
}

// Ensure Executor implements the interface at compile time.
var _ datasource.QueryExecutor = (*Executor)(nil)
