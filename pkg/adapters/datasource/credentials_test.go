package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialCache(t *testing.T) {
	cache := NewCredentialCache(time.Minute)
	defer cache.Stop()

	creds := Credentials{
		Driver:   "postgres",
		Host:     "db.example.com",
		Port:     5432,
		Database: "sales",
		Username: "reader",
		Password: "secret",
	}

	_, ok := cache.Get("ds-1")
	assert.False(t, ok)

	cache.Put("ds-1", creds)
	got, ok := cache.Get("ds-1")
	require.True(t, ok)
	assert.Equal(t, creds, got)

	cache.Delete("ds-1")
	_, ok = cache.Get("ds-1")
	assert.False(t, ok)
}

func TestCredentialCacheExpiry(t *testing.T) {
	cache := NewCredentialCache(20 * time.Millisecond)
	defer cache.Stop()

	cache.Put("ds-1", Credentials{Driver: "postgres"})
	time.Sleep(60 * time.Millisecond)

	_, ok := cache.Get("ds-1")
	assert.False(t, ok)
}

func TestCredentialsRedacted(t *testing.T) {
	creds := Credentials{
		Driver:   "postgres",
		Host:     "db.example.com",
		Port:     5432,
		Database: "sales",
		Username: "reader",
		Password: "hunter2",
	}
	redacted := creds.Redacted()
	assert.Equal(t, "postgres://reader@db.example.com:5432/sales", redacted)
	assert.NotContains(t, redacted, "hunter2")
}
