package spauth

import (
	"sync"
	"time"
)

// tokenRefreshWindow is subtracted from a token's lifetime so callers refresh
// before SharePoint starts rejecting it.
const tokenRefreshWindow = 60 * time.Second

// tokenCache stores one bearer token in memory for per-process caching.
// Tokens are never persisted to disk.
type tokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{}
}

// Get returns the cached token and its unix expiry while the token remains
// outside the refresh window. Returns false once a refresh is due.
func (c *tokenCache) Get() (string, int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return "", 0, false
	}
	if time.Now().After(c.expiresAt.Add(-tokenRefreshWindow)) {
		return "", 0, false
	}
	return c.token, c.expiresAt.Unix(), true
}

// Set stores a token with its expiry time.
func (c *tokenCache) Set(token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = expiresAt
}
