package datasource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies executor failures. The reasoning workflow uses this
// enum to decide whether a failed query is worth regenerating, instead of
// sniffing error message substrings.
type ErrorKind string

const (
	// ErrorKindSyntax is a malformed statement the model may fix by rewriting.
	ErrorKindSyntax ErrorKind = "syntax"
	// ErrorKindUndefinedColumn references a column that does not exist.
	ErrorKindUndefinedColumn ErrorKind = "undefined_column"
	// ErrorKindUndefinedRelation references a table/relation that does not exist.
	ErrorKindUndefinedRelation ErrorKind = "undefined_relation"
	// ErrorKindPermission is an access violation. Terminal.
	ErrorKindPermission ErrorKind = "permission"
	// ErrorKindTimeout is a wall-clock or statement timeout. Transport-retryable.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindConnection is a transport failure. Transport-retryable.
	ErrorKindConnection ErrorKind = "connection"
	// ErrorKindUnknown is anything else. Terminal.
	ErrorKindUnknown ErrorKind = "unknown"
)

// Recoverable reports whether a query failing with this kind is worth
// regenerating with error feedback in the prompt. This is the workflow-level
// retry signal, distinct from transport retryability.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case ErrorKindSyntax, ErrorKindUndefinedColumn, ErrorKindUndefinedRelation:
		return true
	}
	return false
}

// ExecError is a classified query execution failure.
type ExecError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *ExecError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError. Only transport failures are
// retryable at the executor level; SQL correctness errors belong to the
// workflow's regeneration loop.
func (e *ExecError) IsRetryable() bool {
	return e.Kind == ErrorKindConnection || e.Kind == ErrorKindTimeout
}

// ClassifyError converts a driver error into an *ExecError.
// PostgreSQL errors are classified by SQLSTATE; everything else falls back to
// message substring matching so non-PG engines still map onto the enum.
func ClassifyError(err error) *ExecError {
	if err == nil {
		return nil
	}

	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &ExecError{
			Kind:    kindFromSQLState(pgErr.Code),
			Message: pgErr.Message,
			Cause:   err,
		}
	}

	return &ExecError{
		Kind:    kindFromMessage(err.Error()),
		Message: err.Error(),
		Cause:   err,
	}
}

// kindFromSQLState maps PostgreSQL SQLSTATE codes to error kinds.
func kindFromSQLState(code string) ErrorKind {
	switch code {
	case "42601": // syntax_error
		return ErrorKindSyntax
	case "42703": // undefined_column
		return ErrorKindUndefinedColumn
	case "42P01": // undefined_table
		return ErrorKindUndefinedRelation
	case "42501": // insufficient_privilege
		return ErrorKindPermission
	case "57014": // query_canceled (statement timeout)
		return ErrorKindTimeout
	}

	switch {
	case strings.HasPrefix(code, "08"): // connection exception class
		return ErrorKindConnection
	case strings.HasPrefix(code, "28"): // invalid authorization class
		return ErrorKindPermission
	case strings.HasPrefix(code, "42"): // syntax or access rule violation class
		return ErrorKindSyntax
	}

	return ErrorKindUnknown
}

// kindFromMessage is the fallback classifier for engines without SQLSTATE
// access. It preserves the historical substring contract: messages containing
// "syntax", "column", or "relation" are treated as recoverable.
func kindFromMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "syntax"):
		return ErrorKindSyntax
	case strings.Contains(lower, "column"):
		return ErrorKindUndefinedColumn
	case strings.Contains(lower, "relation") || strings.Contains(lower, "invalid object name"):
		return ErrorKindUndefinedRelation
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied"):
		return ErrorKindPermission
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "context deadline exceeded"):
		return ErrorKindTimeout
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection lost") || strings.Contains(lower, "broken pipe") ||
		strings.Contains(lower, "no such host"):
		return ErrorKindConnection
	}

	return ErrorKindUnknown
}
