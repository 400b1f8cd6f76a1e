package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"spwebhooks/application"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/logging"
)

// WebhookHandlers handles webhook subscription HTTP endpoints. Thin
// orchestration layer; subscription logic lives in the webhook service.
type WebhookHandlers struct {
	webhookService *application.WebhookService
	siteService    *application.SiteService
	logger         *logging.Logger
}

// NewWebhookHandlers creates a new webhook handlers instance.
func NewWebhookHandlers(
	webhookService *application.WebhookService,
	siteService *application.SiteService,
) *WebhookHandlers {
	return &WebhookHandlers{
		webhookService: webhookService,
		siteService:    siteService,
		logger:         logging.Default().WithComponent("webhook_handler"),
	}
}

// registerWebhookRequest is the JSON body for webhook registration. All
// fields are optional; identity fields may instead come from query
// parameters, and the rest fall back to configured defaults.
type registerWebhookRequest struct {
	TenantPrefix       string    `json:"tenantPrefix"`
	SitePath           string    `json:"sitePath"`
	NotificationURL    string    `json:"notificationUrl"`
	ClientState        string    `json:"clientState"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// renewWebhookRequest is the JSON body for webhook renewal.
type renewWebhookRequest struct {
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// subscriptionListResponse wraps a subscription listing.
type subscriptionListResponse struct {
	Subscriptions []*sharepoint.Subscription `json:"subscriptions"`
	Count         int                        `json:"count"`
}

// Register creates a webhook subscription on a list.
func (h *WebhookHandlers) Register(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	var req registerWebhookRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request_body", Detail: err.Error()})
			return
		}
	}

	identity := h.resolveIdentity(r, req.TenantPrefix, req.SitePath)

	subscription, err := h.webhookService.Register(r.Context(), identity, listID, application.RegisterWebhookParams{
		NotificationURL:    req.NotificationURL,
		ClientState:        req.ClientState,
		ExpirationDateTime: req.ExpirationDateTime,
	})
	if err != nil {
		h.logger.Error("Failed to register webhook", "list_id", listID, "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, subscription)
}

// List returns all webhook subscriptions on a list.
func (h *WebhookHandlers) List(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	identity := h.resolveIdentity(r, "", "")

	subscriptions, err := h.webhookService.List(r.Context(), identity, listID)
	if err != nil {
		h.logger.Error("Failed to list webhooks", "list_id", listID, "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, subscriptionListResponse{
		Subscriptions: subscriptions,
		Count:         len(subscriptions),
	})
}

// Get returns a single webhook subscription.
func (h *WebhookHandlers) Get(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	subscriptionID := chi.URLParam(r, "subscriptionID")
	identity := h.resolveIdentity(r, "", "")

	subscription, err := h.webhookService.Get(r.Context(), identity, listID, subscriptionID)
	if err != nil {
		h.logger.Error("Failed to get webhook", "list_id", listID, "subscription_id", subscriptionID, "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, subscription)
}

// Renew moves a webhook subscription's expiration forward.
func (h *WebhookHandlers) Renew(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	subscriptionID := chi.URLParam(r, "subscriptionID")
	identity := h.resolveIdentity(r, "", "")

	var req renewWebhookRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request_body", Detail: err.Error()})
			return
		}
	}

	subscription, err := h.webhookService.Renew(r.Context(), identity, listID, subscriptionID, req.ExpirationDateTime)
	if err != nil {
		h.logger.Error("Failed to renew webhook", "list_id", listID, "subscription_id", subscriptionID, "error", err)
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, subscription)
}

// Delete removes a webhook subscription.
func (h *WebhookHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	subscriptionID := chi.URLParam(r, "subscriptionID")
	identity := h.resolveIdentity(r, "", "")

	if err := h.webhookService.Delete(r.Context(), identity, listID, subscriptionID); err != nil {
		h.logger.Error("Failed to delete webhook", "list_id", listID, "subscription_id", subscriptionID, "error", err)
		RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveIdentity builds the target site identity from body fields, query
// parameters, and configured defaults, in that order.
func (h *WebhookHandlers) resolveIdentity(r *http.Request, tenantPrefix, sitePath string) sharepoint.SiteIdentity {
	if tenantPrefix == "" {
		tenantPrefix = r.URL.Query().Get("tenantPrefix")
	}
	if sitePath == "" {
		sitePath = r.URL.Query().Get("sitePath")
	}
	return h.siteService.ResolveSiteIdentity(tenantPrefix, sitePath)
}
