package sharepoint

// Web represents a SharePoint web's live metadata.
type Web struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Template string `json:"template"`
}

// SiteInfo joins a resolved site identity with the web metadata fetched from
// the tenant.
type SiteInfo struct {
	TenantPrefix     string `json:"tenantPrefix"`
	SiteRelativePath string `json:"sitePath"`
	URL              string `json:"url"`
	Web              *Web   `json:"web"`
}
