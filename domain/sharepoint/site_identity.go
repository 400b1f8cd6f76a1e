package sharepoint

import "fmt"

// SiteIdentity identifies one site-scoped connection target: a tenant name
// prefix plus a server-relative site path. It is a value type; two identities
// with equal fields address the same site.
type SiteIdentity struct {
	TenantPrefix     string
	SiteRelativePath string
}

// Key returns the canonical cache key for this identity.
func (si SiteIdentity) Key() string {
	return si.TenantPrefix + "|" + si.SiteRelativePath
}

// URL composes the absolute site URL for the given SharePoint domain
// (e.g. "sharepoint.com").
func (si SiteIdentity) URL(domain string) string {
	return fmt.Sprintf("https://%s.%s%s", si.TenantPrefix, domain, si.SiteRelativePath)
}
