package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/metrics"
	"spwebhooks/logging"
)

// NotificationHandlers handles the endpoint SharePoint delivers webhook
// notifications to. SharePoint expects an answer within seconds, so the
// handler only validates, records, and acknowledges.
type NotificationHandlers struct {
	metrics *metrics.ServiceMetrics
	logger  *logging.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers() *NotificationHandlers {
	return &NotificationHandlers{
		metrics: metrics.NewServiceMetrics(),
		logger:  logging.Default().WithComponent("notification_handler"),
	}
}

// notificationEnvelope is the body SharePoint posts to the notification URL.
type notificationEnvelope struct {
	Value []*sharepoint.ChangeNotification `json:"value"`
}

// Receive answers SharePoint's validation handshake and acknowledges change
// notifications. During registration SharePoint calls this endpoint with a
// validationtoken query parameter and requires it echoed back as plain text.
func (h *NotificationHandlers) Receive(w http.ResponseWriter, r *http.Request) {
	if token := r.URL.Query().Get("validationtoken"); token != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(token))
		return
	}

	var envelope notificationEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Error("Failed to decode notification payload", "error", err)
		RespondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request_body", Detail: err.Error()})
		return
	}

	for _, notification := range envelope.Value {
		h.metrics.RecordNotificationReceived()
		h.logger.Webhook("Received change notification", notification.SiteURL,
			slog.String("subscription_id", notification.SubscriptionID),
			slog.String("resource", notification.Resource),
			slog.String("web_id", notification.WebID),
		)
	}

	w.WriteHeader(http.StatusOK)
}
