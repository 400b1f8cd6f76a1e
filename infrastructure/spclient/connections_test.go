package spclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spwebhooks/domain/contracts"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/spauth"
)

// staticCredential satisfies azcore.TokenCredential without network access.
// Connection construction never requests a token, so this is never invoked
// in these tests.
type staticCredential struct{}

func (staticCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "static", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func testCache() *ConnectionCache {
	return NewConnectionCache(staticCredential{}, spauth.Config{SharePointDomain: "sharepoint.com"}, "NONISV|spwebhooks|test/1.0")
}

func TestConnectionCache_Get_ReusesConnectionForEqualIdentities(t *testing.T) {
	cache := testCache()
	identity := sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"}

	first, err := cache.Get(identity)
	require.NoError(t, err)

	// A second identity value with the same fields maps to the same connection
	second, err := cache.Get(sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), cache.BuildCount())
	assert.Equal(t, 1, cache.Size())
}

func TestConnectionCache_Get_DistinctIdentitiesGetDistinctConnections(t *testing.T) {
	cache := testCache()

	base, err := cache.Get(sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"})
	require.NoError(t, err)

	otherTenant, err := cache.Get(sharepoint.SiteIdentity{TenantPrefix: "fabrikam", SiteRelativePath: "/sites/Engineering"})
	require.NoError(t, err)

	otherPath, err := cache.Get(sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/HR"})
	require.NoError(t, err)

	assert.NotSame(t, base, otherTenant)
	assert.NotSame(t, base, otherPath)
	assert.NotSame(t, otherTenant, otherPath)
	assert.Equal(t, int64(3), cache.BuildCount())
	assert.Equal(t, 3, cache.Size())
}

func TestConnectionCache_Get_ConcurrentFirstRequestsBuildOnce(t *testing.T) {
	cache := testCache()
	identity := sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"}

	const workers = 20
	results := make(chan *Connection, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := cache.Get(identity)
			assert.NoError(t, err)
			results <- conn
		}()
	}
	wg.Wait()
	close(results)

	first := <-results
	for conn := range results {
		assert.Same(t, first, conn)
	}
	assert.Equal(t, int64(1), cache.BuildCount())
	assert.Equal(t, 1, cache.Size())
}

func TestConnectionCache_Get_FailedConstructionNotCached(t *testing.T) {
	cache := testCache()

	_, err := cache.Get(sharepoint.SiteIdentity{SiteRelativePath: "/sites/Engineering"})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrMissingParameter)
	assert.Equal(t, int64(0), cache.BuildCount())
	assert.Equal(t, 0, cache.Size())

	// The failure leaves the cache usable
	conn, err := cache.Get(sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"})
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.Equal(t, int64(1), cache.BuildCount())
}

func TestConnectionCache_Get_BindsConnectionToSite(t *testing.T) {
	cache := testCache()
	identity := sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"}

	conn, err := cache.Get(identity)
	require.NoError(t, err)

	assert.Equal(t, identity, conn.Identity)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/Engineering", conn.SiteURL)
	assert.Equal(t, conn.SiteURL, conn.Client.AuthCnfg.GetSiteURL())
	assert.NotNil(t, conn.API)
	assert.NotNil(t, conn.SP)
}
