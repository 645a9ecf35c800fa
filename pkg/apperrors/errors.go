package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoCredentials      = errors.New("connection credentials not found")
	ErrUnsupportedDriver  = errors.New("unsupported datasource driver")
	ErrNoGeneratedSQL     = errors.New("could not generate valid SQL")
	ErrEmbeddingsDisabled = errors.New("embeddings not supported by this provider")
)
