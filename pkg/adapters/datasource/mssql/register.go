package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register("mssql", func(ctx context.Context, creds datasource.Credentials, logger *zap.Logger) (datasource.QueryExecutor, error) {
		return NewExecutor(ctx, creds, logger)
	})
}
