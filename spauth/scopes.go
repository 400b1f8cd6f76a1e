package spauth

import "fmt"

// ScopeSitesSelected is the delegated scope appended in local environments so
// CLI-issued tokens carry site-scoped consent.
const ScopeSitesSelected = "Sites.Selected"

// Scopes returns the OAuth scopes to request for a tenant prefix. The first
// element is always the tenant's SharePoint resource default scope. Local
// environments append the Sites.Selected delegated scope. The branch keys off
// the environment flag rather than the credential type; managed identity
// token requests reject extra delegated scopes.
func Scopes(cfg Config, tenantPrefix string) []string {
	scopes := []string{fmt.Sprintf("https://%s.%s/.default", tenantPrefix, cfg.SharePointDomain)}
	if cfg.LocalEnvironment {
		scopes = append(scopes, ScopeSitesSelected)
	}
	return scopes
}
