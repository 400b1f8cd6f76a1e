package spauth

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/koltyakov/gosip"
)

// AuthCnfg is a gosip auth strategy backed by an azcore token credential.
// One instance binds a single site URL to the process credential and the
// scope set for that site's tenant.
type AuthCnfg struct {
	siteURL    string
	credential azcore.TokenCredential
	scopes     []string
	cache      *tokenCache
}

// NewAuthCnfg binds a site URL to a token credential and scope set.
func NewAuthCnfg(siteURL string, credential azcore.TokenCredential, scopes []string) *AuthCnfg {
	return &AuthCnfg{
		siteURL:    siteURL,
		credential: credential,
		scopes:     scopes,
		cache:      newTokenCache(),
	}
}

// GetSiteURL returns the bound site URL.
func (c *AuthCnfg) GetSiteURL() string {
	return c.siteURL
}

// GetStrategy returns the auth strategy name.
func (c *AuthCnfg) GetStrategy() string {
	return "azureidentity"
}

// ReadConfig is part of the gosip strategy contract. Credentials come from
// the environment, not config files.
func (c *AuthCnfg) ReadConfig(configPath string) error {
	return nil
}

// ParseConfig is part of the gosip strategy contract. Credentials come from
// the environment, not config files.
func (c *AuthCnfg) ParseConfig(byteValue []byte) error {
	return nil
}

// WriteConfig is part of the gosip strategy contract. Tokens are never
// persisted.
func (c *AuthCnfg) WriteConfig(configPath string) error {
	return nil
}

// GetAuth acquires a bearer token for the bound site, reusing the cached
// token while it remains inside its validity window.
func (c *AuthCnfg) GetAuth() (string, int64, error) {
	if token, exp, ok := c.cache.Get(); ok {
		return token, exp, nil
	}

	tok, err := c.credential.GetToken(context.Background(), policy.TokenRequestOptions{
		Scopes: c.scopes,
	})
	if err != nil {
		return "", 0, err
	}

	c.cache.Set(tok.Token, tok.ExpiresOn)
	return tok.Token, tok.ExpiresOn.Unix(), nil
}

// SetAuth applies a bearer token to an outgoing request.
func (c *AuthCnfg) SetAuth(req *http.Request, httpClient *gosip.SPClient) error {
	token, _, err := c.GetAuth()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
