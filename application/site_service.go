package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"spwebhooks/domain/contracts"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/config"
	"spwebhooks/infrastructure/metrics"
	"spwebhooks/spauth"
)

// defaultChangeFetchLimit bounds change queries when the caller gives no limit.
const defaultChangeFetchLimit = 100

// AccessTokenData represents a freshly issued access token together with the
// scopes and credential strategy that produced it.
type AccessTokenData struct {
	Token     string
	ExpiresOn time.Time
	Scopes    []string
	Strategy  spauth.Strategy
}

// SiteService resolves site identities and serves the debug surfaces: token
// issuance, site metadata, and recent list changes.
type SiteService struct {
	connections ConnectionProvider
	credential  azcore.TokenCredential
	authCfg     spauth.Config
	defaults    *config.SiteConfig
	metrics     *metrics.ServiceMetrics
}

// NewSiteService creates a new site service backed by the process credential
// and connection cache.
func NewSiteService(connections ConnectionProvider, credential azcore.TokenCredential, authCfg spauth.Config, defaults *config.SiteConfig) *SiteService {
	return &SiteService{
		connections: connections,
		credential:  credential,
		authCfg:     authCfg,
		defaults:    defaults,
		metrics:     metrics.NewServiceMetrics(),
	}
}

// ResolveSiteIdentity fills missing identity fields from configured defaults.
// Each field falls back independently, so a request may override just the
// tenant or just the site path. Site paths are normalized to a leading slash.
func (s *SiteService) ResolveSiteIdentity(tenantPrefix, sitePath string) sharepoint.SiteIdentity {
	if tenantPrefix == "" {
		tenantPrefix = s.defaults.TenantPrefix
	}
	if sitePath == "" {
		sitePath = s.defaults.SiteRelativePath
	}
	if sitePath != "" && !strings.HasPrefix(sitePath, "/") {
		sitePath = "/" + sitePath
	}
	return sharepoint.SiteIdentity{
		TenantPrefix:     tenantPrefix,
		SiteRelativePath: sitePath,
	}
}

// AccessToken issues an access token for a tenant using the process
// credential, scoped the same way site connections are.
func (s *SiteService) AccessToken(ctx context.Context, tenantPrefix string) (*AccessTokenData, error) {
	if tenantPrefix == "" {
		tenantPrefix = s.defaults.TenantPrefix
	}
	if tenantPrefix == "" {
		return nil, fmt.Errorf("%w: tenant prefix", contracts.ErrMissingParameter)
	}

	scopes := spauth.Scopes(s.authCfg, tenantPrefix)
	tok, err := s.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	s.metrics.RecordTokenRequest()

	return &AccessTokenData{
		Token:     tok.Token,
		ExpiresOn: tok.ExpiresOn,
		Scopes:    scopes,
		Strategy:  spauth.ResolveStrategy(s.authCfg),
	}, nil
}

// SiteInfo retrieves web metadata for a site.
func (s *SiteService) SiteInfo(ctx context.Context, identity sharepoint.SiteIdentity) (*sharepoint.SiteInfo, error) {
	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	web, err := conn.SP.GetSiteWeb(ctx)
	if err != nil {
		return nil, err
	}

	return &sharepoint.SiteInfo{
		TenantPrefix:     identity.TenantPrefix,
		SiteRelativePath: identity.SiteRelativePath,
		URL:              identity.URL(s.authCfg.SharePointDomain),
		Web:              web,
	}, nil
}

// RecentChanges retrieves recent item-level changes on a list. A limit of
// zero or less falls back to the default fetch limit.
func (s *SiteService) RecentChanges(ctx context.Context, identity sharepoint.SiteIdentity, listID string, limit int) ([]*sharepoint.ListChange, error) {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultChangeFetchLimit
	}

	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	return conn.SP.GetListChanges(ctx, normalizedListID, limit)
}
