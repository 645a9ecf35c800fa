// Package mssql implements the SQL Server query executor.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/retry"
)

const defaultConnectTimeout = 20 * time.Second

// Executor runs queries against a SQL Server datasource. Like the postgres
// executor it performs bounded transport retries and classifies SQL errors
// via message matching, since go-mssqldb does not expose SQLSTATE codes.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExecutor opens a connection pool using the given credentials.
func NewExecutor(ctx context.Context, creds datasource.Credentials, logger *zap.Logger) (*Executor, error) {
	query := url.Values{}
	query.Set("database", creds.Database)
	query.Set("dial timeout", fmt.Sprintf("%d", int(defaultConnectTimeout.Seconds())))

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(creds.Username, creds.Password),
		Host:     fmt.Sprintf("%s:%d", creds.Host, creds.Port),
		RawQuery: query.Encode(),
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("opening sqlserver datasource: %w", datasource.ClassifyError(err))
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlserver datasource: %w", datasource.ClassifyError(err))
	}

	return &Executor{
		db:     db,
		logger: logger.Named("mssql_executor"),
	}, nil
}

// Execute implements datasource.QueryExecutor.
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
	rows, err := e.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, datasource.ClassifyError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, datasource.ClassifyError(err)
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

		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
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
	return e.db.Close()
}

// Ensure Executor implements the interface at compile time.
var _ datasource.QueryExecutor = (*Executor)(nil)
