package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
)

func TestRegistryUnknownDriver(t *testing.T) {
	_, err := NewExecutor(context.Background(), Credentials{Driver: "oracle"}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedDriver)
}

func TestRegistryDispatch(t *testing.T) {
	mock := &MockExecutor{}
	Register("testdriver", func(ctx context.Context, creds Credentials, logger *zap.Logger) (QueryExecutor, error) {
		assert.Equal(t, "db1", creds.Database)
		return mock, nil
	})

	executor, err := NewExecutor(context.Background(), Credentials{Driver: "testdriver", Database: "db1"}, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, QueryExecutor(mock), executor)
	assert.Contains(t, RegisteredDrivers(), "testdriver")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dupdriver", func(ctx context.Context, creds Credentials, logger *zap.Logger) (QueryExecutor, error) {
		return &MockExecutor{}, nil
	})
	assert.Panics(t, func() {
		Register("dupdriver", func(ctx context.Context, creds Credentials, logger *zap.Logger) (QueryExecutor, error) {
			return &MockExecutor{}, nil
		})
	})
}
