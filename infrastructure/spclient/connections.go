package spclient

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/api"
	"golang.org/x/sync/singleflight"

	"spwebhooks/domain/contracts"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/metrics"
	"spwebhooks/logging"
	"spwebhooks/spauth"
)

// retryAttempts bounds gosip's retries for throttled and failed requests.
const retryAttempts = 4

// Connection bundles the authenticated clients bound to one site. Connections
// are built lazily, cached for the process lifetime, and never torn down.
type Connection struct {
	Identity sharepoint.SiteIdentity
	SiteURL  string
	Client   *gosip.SPClient
	API      *api.SP
	SP       SharePointClient
}

// ConnectionCache hands out one connection per distinct site identity. The
// cache is safe for concurrent use; concurrent first requests for the same
// identity share a single construction.
type ConnectionCache struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	group       singleflight.Group

	credential azcore.TokenCredential
	authCfg    spauth.Config
	userAgent  string

	builds  atomic.Int64
	metrics *metrics.ServiceMetrics
	logger  *logging.Logger
}

// NewConnectionCache creates an empty cache bound to the process credential.
func NewConnectionCache(credential azcore.TokenCredential, authCfg spauth.Config, userAgent string) *ConnectionCache {
	return &ConnectionCache{
		connections: make(map[string]*Connection),
		credential:  credential,
		authCfg:     authCfg,
		userAgent:   userAgent,
		metrics:     metrics.NewServiceMetrics(),
		logger:      logging.Default().WithComponent("connection_cache"),
	}
}

// Get returns the connection for an identity, building it on first use.
// Failed constructions are never cached; the next request retries.
func (c *ConnectionCache) Get(identity sharepoint.SiteIdentity) (*Connection, error) {
	key := identity.Key()

	c.mu.RLock()
	conn, ok := c.connections[key]
	c.mu.RUnlock()
	if ok {
		c.metrics.RecordCacheHit()
		return conn, nil
	}

	c.metrics.RecordCacheMiss()
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check: a concurrent caller may have built and cached it while
		// this one waited on the flight group.
		c.mu.RLock()
		conn, ok := c.connections[key]
		c.mu.RUnlock()
		if ok {
			return conn, nil
		}

		conn, err := c.build(identity)
		if err != nil {
			c.metrics.RecordConnectionBuild("error")
			return nil, err
		}
		c.builds.Add(1)
		c.metrics.RecordConnectionBuild("success")

		c.mu.Lock()
		c.connections[key] = conn
		c.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Connection), nil
}

// BuildCount reports how many connections have been constructed.
func (c *ConnectionCache) BuildCount() int64 {
	return c.builds.Load()
}

// Size reports how many connections are currently cached.
func (c *ConnectionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.connections)
}

// build constructs the gosip client stack for one site identity.
func (c *ConnectionCache) build(identity sharepoint.SiteIdentity) (*Connection, error) {
	if identity.TenantPrefix == "" {
		return nil, fmt.Errorf("%w: tenant prefix", contracts.ErrMissingParameter)
	}

	siteURL := identity.URL(c.authCfg.SharePointDomain)
	scopes := spauth.Scopes(c.authCfg, identity.TenantPrefix)

	authCnfg := spauth.NewAuthCnfg(siteURL, c.credential, scopes)
	client := &gosip.SPClient{AuthCnfg: authCnfg}
	client.RetryPolicies = map[int]int{
		429: retryAttempts,
		500: retryAttempts,
		503: retryAttempts,
		504: retryAttempts,
	}
	client.Hooks = &gosip.HookHandlers{
		OnRetry: func(e *gosip.HookEvent) {
			c.metrics.RecordRequestRetry()
			c.logger.Warn("Retrying SharePoint request",
				"url", e.Request.URL.String(),
				"status", e.StatusCode,
			)
		},
	}

	gosipAPI := api.NewSP(client)
	conn := &Connection{
		Identity: identity,
		SiteURL:  siteURL,
		Client:   client,
		API:      gosipAPI,
		SP:       NewSharePointClient(gosipAPI, client, c.userAgent),
	}

	c.logger.SharePoint("Built site connection",
		"site_url", siteURL,
		"tenant_prefix", identity.TenantPrefix,
		"scopes", len(scopes),
	)

	return conn, nil
}
