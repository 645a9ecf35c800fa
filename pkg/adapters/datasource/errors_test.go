package datasource

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyErrorSQLState(t *testing.T) {
	tests := []struct {
		code string
		want ErrorKind
	}{
		{"42601", ErrorKindSyntax},
		{"42703", ErrorKindUndefinedColumn},
		{"42P01", ErrorKindUndefinedRelation},
		{"42501", ErrorKindPermission},
		{"42804", ErrorKindSyntax}, // class 42 default
		{"57014", ErrorKindTimeout},
		{"08006", ErrorKindConnection},
		{"28P01", ErrorKindPermission},
		{"XX000", ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &pgconn.PgError{Code: tt.code, Message: "boom"}
			execErr := ClassifyError(fmt.Errorf("query failed: %w", err))
			require.NotNil(t, execErr)
			assert.Equal(t, tt.want, execErr.Kind)
			assert.Equal(t, "boom", execErr.Message)
		})
	}
}

func TestClassifyErrorMessageFallback(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorKind
	}{
		{"Syntax error near SELECT", ErrorKindSyntax},
		{"unknown column 'nmae' in field list", ErrorKindUndefinedColumn},
		{"relation \"userss\" does not exist", ErrorKindUndefinedRelation},
		{"Invalid object name 'dbo.Userss'", ErrorKindUndefinedRelation},
		{"permission denied for table users", ErrorKindPermission},
		{"i/o timeout", ErrorKindTimeout},
		{"dial tcp: connection refused", ErrorKindConnection},
		{"something else entirely", ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			execErr := ClassifyError(errors.New(tt.msg))
			assert.Equal(t, tt.want, execErr.Kind)
		})
	}
}

func TestClassifyErrorPassesThroughExecError(t *testing.T) {
	orig := &ExecError{Kind: ErrorKindSyntax, Message: "bad"}
	wrapped := fmt.Errorf("attempt 2: %w", orig)
	assert.Same(t, orig, ClassifyError(wrapped))
	assert.Nil(t, ClassifyError(nil))
}

func TestErrorKindRecoverable(t *testing.T) {
	assert.True(t, ErrorKindSyntax.Recoverable())
	assert.True(t, ErrorKindUndefinedColumn.Recoverable())
	assert.True(t, ErrorKindUndefinedRelation.Recoverable())
	assert.False(t, ErrorKindPermission.Recoverable())
	assert.False(t, ErrorKindTimeout.Recoverable())
	assert.False(t, ErrorKindConnection.Recoverable())
	assert.False(t, ErrorKindUnknown.Recoverable())
}

func TestExecErrorRetryableIsTransportOnly(t *testing.T) {
	assert.True(t, (&ExecError{Kind: ErrorKindConnection}).IsRetryable())
	assert.True(t, (&ExecError{Kind: ErrorKindTimeout}).IsRetryable())
	assert.False(t, (&ExecError{Kind: ErrorKindSyntax}).IsRetryable())
	assert.False(t, (&ExecError{Kind: ErrorKindPermission}).IsRetryable())
}

func TestExecErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	execErr := &ExecError{Kind: ErrorKindUnknown, Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, execErr, cause)
	assert.Equal(t, "unknown: wrapped", execErr.Error())
}
