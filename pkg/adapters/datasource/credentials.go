package datasource

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Credentials holds everything needed to open a connection to a user
// datasource. Password never appears in logs; use Redacted for logging.
type Credentials struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"-"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// Redacted returns a loggable description of the credentials.
func (c Credentials) Redacted() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s", c.Driver, c.Username, c.Host, c.Port, c.Database)
}

// CredentialCache holds short-lived datasource credentials keyed by
// datasource ID. Entries expire after a fixed TTL; the reasoning workflow
// receives the cache as a capability and looks credentials up per turn
// rather than carrying secrets through its state.
type CredentialCache struct {
	cache *ttlcache.Cache[string, Credentials]
}

// NewCredentialCache creates a credential cache with the given entry TTL.
// The returned cache runs a background expiry loop; call Stop on shutdown.
func NewCredentialCache(ttl time.Duration) *CredentialCache {
	cache := ttlcache.New[string, Credentials](
		ttlcache.WithTTL[string, Credentials](ttl),
	)
	go cache.Start()

	return &CredentialCache{cache: cache}
}

// Put stores credentials for a datasource, refreshing the TTL.
func (c *CredentialCache) Put(datasourceID string, creds Credentials) {
	c.cache.Set(datasourceID, creds, ttlcache.DefaultTTL)
}

// Get returns the credentials for a datasource, or false when absent or
// expired.
func (c *CredentialCache) Get(datasourceID string) (Credentials, bool) {
	item := c.cache.Get(datasourceID)
	if item == nil {
		return Credentials{}, false
	}
	return item.Value(), true
}

// Delete removes credentials for a datasource.
func (c *CredentialCache) Delete(datasourceID string) {
	c.cache.Delete(datasourceID)
}

// Stop terminates the background expiry loop.
func (c *CredentialCache) Stop() {
	c.cache.Stop()
}
