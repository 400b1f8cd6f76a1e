package application

import (
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spwebhooks/domain/contracts"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/config"
	"spwebhooks/spauth"
	"spwebhooks/test/helpers"
)

func testSiteConfig() *config.SiteConfig {
	return &config.SiteConfig{
		TenantPrefix:     "contoso",
		SiteRelativePath: "/sites/Engineering",
	}
}

func testAuthConfig() spauth.Config {
	return spauth.Config{SharePointDomain: "sharepoint.com"}
}

func newTestSiteService(mocks *helpers.MockClients, authCfg spauth.Config, defaults *config.SiteConfig) *SiteService {
	return NewSiteService(mocks.Connections, mocks.Credential, authCfg, defaults)
}

func TestSiteService_ResolveSiteIdentity(t *testing.T) {
	tests := []struct {
		name         string
		tenantPrefix string
		sitePath     string
		expected     sharepoint.SiteIdentity
	}{
		{
			name:     "both_empty_uses_defaults",
			expected: sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"},
		},
		{
			name:         "tenant_override_keeps_default_path",
			tenantPrefix: "fabrikam",
			expected:     sharepoint.SiteIdentity{TenantPrefix: "fabrikam", SiteRelativePath: "/sites/Engineering"},
		},
		{
			name:     "path_override_keeps_default_tenant",
			sitePath: "/sites/HR",
			expected: sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/sites/HR"},
		},
		{
			name:     "missing_leading_slash_normalized",
			sitePath: "teams/Finance",
			expected: sharepoint.SiteIdentity{TenantPrefix: "contoso", SiteRelativePath: "/teams/Finance"},
		},
		{
			name:         "full_override",
			tenantPrefix: "fabrikam",
			sitePath:     "/sites/HR",
			expected:     sharepoint.SiteIdentity{TenantPrefix: "fabrikam", SiteRelativePath: "/sites/HR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := helpers.NewMockClients()
			service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

			identity := service.ResolveSiteIdentity(tt.tenantPrefix, tt.sitePath)

			assert.Equal(t, tt.expected, identity)
		})
	}
}

func TestSiteService_AccessToken_ScopedLikeConnections(t *testing.T) {
	// Arrange
	mocks := helpers.NewMockClients()
	service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

	expiresOn := time.Now().Add(time.Hour)
	wantScopes := []string{"https://contoso.sharepoint.com/.default"}
	mocks.Credential.On("GetToken", mock.Anything, mock.MatchedBy(func(options policy.TokenRequestOptions) bool {
		return assert.ObjectsAreEqual(wantScopes, options.Scopes)
	})).Return(azcore.AccessToken{Token: "issued-token", ExpiresOn: expiresOn}, nil)

	// Act: empty prefix falls back to the configured default tenant
	data, err := service.AccessToken(helpers.TestContext(), "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "issued-token", data.Token)
	assert.Equal(t, expiresOn, data.ExpiresOn)
	assert.Equal(t, wantScopes, data.Scopes)
	assert.Equal(t, spauth.StrategyDefaultChain, data.Strategy)
	mocks.AssertAllExpectations(t)
}

func TestSiteService_AccessToken_LocalEnvironmentAddsSitesSelected(t *testing.T) {
	mocks := helpers.NewMockClients()
	authCfg := spauth.Config{SharePointDomain: "sharepoint.com", LocalEnvironment: true}
	service := newTestSiteService(mocks, authCfg, testSiteConfig())

	mocks.Credential.On("GetToken", mock.Anything, mock.Anything).
		Return(azcore.AccessToken{Token: "issued-token", ExpiresOn: time.Now().Add(time.Hour)}, nil)

	data, err := service.AccessToken(helpers.TestContext(), "fabrikam")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://fabrikam.sharepoint.com/.default", "Sites.Selected"}, data.Scopes)
	assert.Equal(t, spauth.StrategyAzureCLI, data.Strategy)
}

func TestSiteService_AccessToken_NoTenantAnywhere(t *testing.T) {
	mocks := helpers.NewMockClients()
	service := newTestSiteService(mocks, testAuthConfig(), &config.SiteConfig{})

	_, err := service.AccessToken(helpers.TestContext(), "")

	assert.ErrorIs(t, err, contracts.ErrMissingParameter)
	mocks.AssertAllExpectations(t)
}

func TestSiteService_AccessToken_CredentialFailure(t *testing.T) {
	mocks := helpers.NewMockClients()
	service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

	mocks.Credential.On("GetToken", mock.Anything, mock.Anything).
		Return(azcore.AccessToken{}, errors.New("az login required"))

	_, err := service.AccessToken(helpers.TestContext(), "contoso")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get access token")
	assert.Contains(t, err.Error(), "az login required")
}

func TestSiteService_SiteInfo_ComposesIdentityAndWeb(t *testing.T) {
	mocks := helpers.NewMockClients()
	identity := helpers.TestIdentity()

	web := helpers.NewTestData().SimpleWeb("Engineering")
	mocks.ExpectConnection(identity)
	mocks.ExpectWeb(web)

	service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

	info, err := service.SiteInfo(helpers.TestContext(), identity)

	require.NoError(t, err)
	assert.Equal(t, "contoso", info.TenantPrefix)
	assert.Equal(t, "/sites/Engineering", info.SiteRelativePath)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/Engineering", info.URL)
	assert.Same(t, web, info.Web)
	mocks.AssertAllExpectations(t)
}

func TestSiteService_RecentChanges_DefaultsFetchLimit(t *testing.T) {
	mocks := helpers.NewMockClients()
	identity := helpers.TestIdentity()

	changes := []*sharepoint.ListChange{
		helpers.NewTestData().SimpleChange(101, sharepoint.ChangeTypeAdd),
		helpers.NewTestData().SimpleChange(102, sharepoint.ChangeTypeUpdate),
	}
	mocks.ExpectConnection(identity)
	mocks.ExpectChanges(helpers.TestListID, 100, changes)

	service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

	result, err := service.RecentChanges(helpers.TestContext(), identity, helpers.TestListID, 0)

	require.NoError(t, err)
	assert.Equal(t, changes, result)
	mocks.AssertAllExpectations(t)
}

func TestSiteService_RecentChanges_InvalidListID(t *testing.T) {
	mocks := helpers.NewMockClients()
	service := newTestSiteService(mocks, testAuthConfig(), testSiteConfig())

	_, err := service.RecentChanges(helpers.TestContext(), helpers.TestIdentity(), "not-a-guid", 25)

	assert.ErrorIs(t, err, contracts.ErrMissingParameter)
	mocks.AssertAllExpectations(t)
}
