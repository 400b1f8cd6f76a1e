package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spwebhooks/domain/contracts"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/config"
	"spwebhooks/infrastructure/metrics"
	"spwebhooks/infrastructure/spclient"
	"spwebhooks/logging"
)

// ConnectionProvider resolves site identities to cached connections.
// *spclient.ConnectionCache is the production implementation.
type ConnectionProvider interface {
	Get(identity sharepoint.SiteIdentity) (*spclient.Connection, error)
}

// RegisterWebhookParams carries optional overrides for webhook registration.
// Empty fields fall back to configured defaults.
type RegisterWebhookParams struct {
	NotificationURL    string
	ClientState        string
	ExpirationDateTime time.Time
}

// WebhookService handles the webhook subscription lifecycle against
// SharePoint lists. SharePoint owns delivery and retry of the notifications
// themselves; this service only manages the subscriptions.
type WebhookService struct {
	connections ConnectionProvider
	defaults    *config.WebhookConfig
	metrics     *metrics.ServiceMetrics
	logger      *logging.Logger
}

// NewWebhookService creates a new webhook service with its connection cache
// and subscription defaults.
func NewWebhookService(connections ConnectionProvider, defaults *config.WebhookConfig) *WebhookService {
	return &WebhookService{
		connections: connections,
		defaults:    defaults,
		metrics:     metrics.NewServiceMetrics(),
		logger:      logging.Default().WithComponent("webhook_service"),
	}
}

// Register creates a webhook subscription on a list, filling notification
// URL, client state, and expiration from defaults where the caller left them
// empty. Expirations beyond SharePoint's maximum lifetime are clamped.
func (s *WebhookService) Register(ctx context.Context, identity sharepoint.SiteIdentity, listID string, params RegisterWebhookParams) (*sharepoint.Subscription, error) {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return nil, err
	}

	notificationURL := params.NotificationURL
	if notificationURL == "" {
		notificationURL = s.defaults.NotificationURL
	}
	if notificationURL == "" {
		return nil, fmt.Errorf("%w: notification URL", contracts.ErrMissingParameter)
	}

	clientState := params.ClientState
	if clientState == "" {
		clientState = uuid.NewString()
	}

	now := time.Now()
	expiration := params.ExpirationDateTime
	if expiration.IsZero() {
		expiration = now.AddDate(0, 0, s.defaults.ExpirationDays)
	}
	expiration = sharepoint.ClampExpiration(now, expiration)

	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	created, err := conn.SP.CreateSubscription(ctx, normalizedListID, &sharepoint.Subscription{
		NotificationURL:    notificationURL,
		ClientState:        clientState,
		ExpirationDateTime: expiration,
	})
	if err != nil {
		s.metrics.RecordWebhookOperation("register", "error")
		return nil, err
	}

	s.metrics.RecordWebhookOperation("register", "success")
	s.logger.Webhook("Registered webhook", conn.SiteURL,
		slog.String("list_id", normalizedListID),
		slog.String("subscription_id", created.ID),
	)
	return created, nil
}

// List retrieves all webhook subscriptions registered on a list.
func (s *WebhookService) List(ctx context.Context, identity sharepoint.SiteIdentity, listID string) ([]*sharepoint.Subscription, error) {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return nil, err
	}

	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	subscriptions, err := conn.SP.GetSubscriptions(ctx, normalizedListID)
	if err != nil {
		s.metrics.RecordWebhookOperation("list", "error")
		return nil, err
	}

	s.metrics.RecordWebhookOperation("list", "success")
	return subscriptions, nil
}

// Get retrieves a single webhook subscription by its ID.
func (s *WebhookService) Get(ctx context.Context, identity sharepoint.SiteIdentity, listID, subscriptionID string) (*sharepoint.Subscription, error) {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return nil, err
	}
	normalizedSubID, err := normalizeGUID(subscriptionID, "subscription ID")
	if err != nil {
		return nil, err
	}

	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	return s.find(ctx, conn, normalizedListID, normalizedSubID)
}

// Renew moves a subscription's expiration forward and returns the refreshed
// subscription. A zero until falls back to the configured default lifetime.
func (s *WebhookService) Renew(ctx context.Context, identity sharepoint.SiteIdentity, listID, subscriptionID string, until time.Time) (*sharepoint.Subscription, error) {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return nil, err
	}
	normalizedSubID, err := normalizeGUID(subscriptionID, "subscription ID")
	if err != nil {
		return nil, err
	}

	conn, err := s.connections.Get(identity)
	if err != nil {
		return nil, err
	}

	// Confirm the subscription exists before updating so a bad ID surfaces
	// as not-found rather than an upstream failure.
	if _, err := s.find(ctx, conn, normalizedListID, normalizedSubID); err != nil {
		return nil, err
	}

	now := time.Now()
	if until.IsZero() {
		until = now.AddDate(0, 0, s.defaults.ExpirationDays)
	}
	until = sharepoint.ClampExpiration(now, until)

	if err := conn.SP.UpdateSubscriptionExpiration(ctx, normalizedListID, normalizedSubID, until); err != nil {
		s.metrics.RecordWebhookOperation("renew", "error")
		return nil, err
	}

	renewed, err := s.find(ctx, conn, normalizedListID, normalizedSubID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordWebhookOperation("renew", "success")
	s.logger.Webhook("Renewed webhook", conn.SiteURL,
		slog.String("list_id", normalizedListID),
		slog.String("subscription_id", normalizedSubID),
		slog.Time("expires", renewed.ExpirationDateTime),
	)
	return renewed, nil
}

// Delete removes a webhook subscription from a list.
func (s *WebhookService) Delete(ctx context.Context, identity sharepoint.SiteIdentity, listID, subscriptionID string) error {
	normalizedListID, err := normalizeGUID(listID, "list ID")
	if err != nil {
		return err
	}
	normalizedSubID, err := normalizeGUID(subscriptionID, "subscription ID")
	if err != nil {
		return err
	}

	conn, err := s.connections.Get(identity)
	if err != nil {
		return err
	}

	if _, err := s.find(ctx, conn, normalizedListID, normalizedSubID); err != nil {
		return err
	}

	if err := conn.SP.DeleteSubscription(ctx, normalizedListID, normalizedSubID); err != nil {
		s.metrics.RecordWebhookOperation("delete", "error")
		return err
	}

	s.metrics.RecordWebhookOperation("delete", "success")
	s.logger.Webhook("Deleted webhook", conn.SiteURL,
		slog.String("list_id", normalizedListID),
		slog.String("subscription_id", normalizedSubID),
	)
	return nil
}

// find locates a subscription on a list by ID.
func (s *WebhookService) find(ctx context.Context, conn *spclient.Connection, listID, subscriptionID string) (*sharepoint.Subscription, error) {
	subscriptions, err := conn.SP.GetSubscriptions(ctx, listID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subscriptions {
		if strings.EqualFold(sub.ID, subscriptionID) {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", contracts.ErrSubscriptionNotFound, subscriptionID)
}

// normalizeGUID validates a GUID-valued request parameter and normalizes its
// formatting.
func normalizeGUID(value, field string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: %s", contracts.ErrMissingParameter, field)
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q is not a GUID", contracts.ErrMissingParameter, field, value)
	}
	return parsed.String(), nil
}
