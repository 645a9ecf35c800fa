package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValueForInjectionCleanValues(t *testing.T) {
	for _, v := range []string{"New York", "pending_review", "Alice Smith", "O'Brien"} {
		assert.Nil(t, CheckValueForInjection(v), "value %q should pass", v)
	}
}

func TestCheckValueForInjectionDetectsPayloads(t *testing.T) {
	result := CheckValueForInjection("' OR '1'='1")
	require.NotNil(t, result)
	assert.True(t, result.IsSQLi)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Equal(t, "' OR '1'='1", result.Value)

	assert.NotNil(t, CheckValueForInjection("1; DROP TABLE users--"))
}
