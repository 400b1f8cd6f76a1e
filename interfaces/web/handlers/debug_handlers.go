package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"spwebhooks/application"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/logging"
)

// tokenClaimKeys are the token claims worth echoing back for inspection.
var tokenClaimKeys = []string{"aud", "iss", "tid", "appid", "oid", "roles", "scp"}

// DebugHandlers handles the debug endpoints: raw token issuance, site
// metadata, and recent list changes. These routes are only mounted behind the
// debug key middleware.
type DebugHandlers struct {
	siteService *application.SiteService
	logger      *logging.Logger
}

// NewDebugHandlers creates a new debug handlers instance.
func NewDebugHandlers(siteService *application.SiteService) *DebugHandlers {
	return &DebugHandlers{
		siteService: siteService,
		logger:      logging.Default().WithComponent("debug_handler"),
	}
}

// tokenResponse carries an issued token plus enough context to diagnose
// scope and credential problems.
type tokenResponse struct {
	Token     string         `json:"token"`
	ExpiresOn time.Time      `json:"expiresOn"`
	Scopes    []string       `json:"scopes"`
	Strategy  string         `json:"strategy"`
	Claims    map[string]any `json:"claims,omitempty"`
}

// changeListResponse wraps a change listing.
type changeListResponse struct {
	Changes []*sharepoint.ListChange `json:"changes"`
	Count   int                      `json:"count"`
}

// Token issues an access token for the requested tenant and returns it with
// a claims preview.
func (h *DebugHandlers) Token(w http.ResponseWriter, r *http.Request) {
	tenantPrefix := r.URL.Query().Get("tenantPrefix")

	data, err := h.siteService.AccessToken(r.Context(), tenantPrefix)
	if err != nil {
		h.logger.Error("Failed to issue debug token", "tenant_prefix", tenantPrefix, "error", err)
		RespondError(w, err)
		return
	}

	h.logger.Security("Debug token issued", "tenant_prefix", tenantPrefix, "strategy", string(data.Strategy))

	RespondJSON(w, http.StatusOK, tokenResponse{
		Token:     data.Token,
		ExpiresOn: data.ExpiresOn,
		Scopes:    data.Scopes,
		Strategy:  string(data.Strategy),
		Claims:    previewClaims(data.Token),
	})
}

// Site returns web metadata for the requested site.
func (h *DebugHandlers) Site(w http.ResponseWriter, r *http.Request) {
	identity := h.siteService.ResolveSiteIdentity(
		r.URL.Query().Get("tenantPrefix"),
		r.URL.Query().Get("sitePath"),
	)

	info, err := h.siteService.SiteInfo(r.Context(), identity)
	if err != nil {
		h.logger.Error("Failed to get site info", "site_key", identity.Key(), "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, info)
}

// Changes returns recent item-level changes on a list.
func (h *DebugHandlers) Changes(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	identity := h.siteService.ResolveSiteIdentity(
		r.URL.Query().Get("tenantPrefix"),
		r.URL.Query().Get("sitePath"),
	)

	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_parameter", Detail: "top must be an integer"})
			return
		}
		top = parsed
	}

	changes, err := h.siteService.RecentChanges(r.Context(), identity, listID, top)
	if err != nil {
		h.logger.Error("Failed to get list changes", "list_id", listID, "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, changeListResponse{
		Changes: changes,
		Count:   len(changes),
	})
}

// previewClaims extracts a subset of claims from a token for display.
// ParseUnverified is fine here: the token came straight from Entra ID and is
// only being decoded for inspection, not used to authenticate anything.
func previewClaims(token string) map[string]any {
	parser := new(jwt.Parser)
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	preview := map[string]any{}
	for _, key := range tokenClaimKeys {
		if value, ok := claims[key]; ok {
			preview[key] = value
		}
	}
	if len(preview) == 0 {
		return nil
	}
	return preview
}
