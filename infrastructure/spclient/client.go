package spclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spwebhooks/domain/sharepoint"
	"spwebhooks/logging"

	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/api"
)

// SharePointClient abstracts the SharePoint REST operations this service
// performs against one site: web metadata, webhook subscription management,
// and change queries. Implementations handle authentication, throttling, and
// response parsing.
type SharePointClient interface {
	// Site Operations
	GetSiteWeb(ctx context.Context) (*sharepoint.Web, error)

	// Webhook Subscription Operations
	GetSubscriptions(ctx context.Context, listID string) ([]*sharepoint.Subscription, error)
	CreateSubscription(ctx context.Context, listID string, sub *sharepoint.Subscription) (*sharepoint.Subscription, error)
	UpdateSubscriptionExpiration(ctx context.Context, listID, subscriptionID string, expiration time.Time) error
	DeleteSubscription(ctx context.Context, listID, subscriptionID string) error

	// Change Operations
	GetListChanges(ctx context.Context, listID string, fetchLimit int) ([]*sharepoint.ListChange, error)
}

// SharePoint OData field selectors for consistent API queries
const (
	WebFields = `Id,Title,Url,WebTemplate`
)

// SharePointClientImpl wraps the Gosip API client to provide SharePoint
// operations. The Gosip fluent client covers web metadata; webhook
// subscriptions and change queries go through direct HTTP calls because the
// fluent surface does not cover them.
type SharePointClientImpl struct {
	gosipAPI      *api.SP            // Primary Gosip API client for SharePoint operations
	authClient    *gosip.SPClient    // Authentication client for direct HTTP calls
	defaultConfig *api.RequestConfig // Default request configuration (headers, parsing mode)
	logger        *logging.Logger    // Component logger
}

// NewSharePointClient creates a new SharePoint client implementation bound to
// one authenticated site connection.
func NewSharePointClient(gosipAPI *api.SP, authClient *gosip.SPClient, userAgent string) SharePointClient {
	headers := map[string]string{}
	for k, v := range api.HeadersPresets.Nometadata.Headers {
		headers[k] = v
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}

	return &SharePointClientImpl{
		gosipAPI:      gosipAPI,
		authClient:    authClient,
		defaultConfig: &api.RequestConfig{Headers: headers},
		logger:        logging.Default().WithComponent("sharepoint_client"),
	}
}

// createRequestConfig creates a RequestConfig with the provided context,
// inheriting the default headers.
func (c *SharePointClientImpl) createRequestConfig(ctx context.Context) *api.RequestConfig {
	config := *c.defaultConfig // Copy default config
	config.Context = ctx       // Override with per-request context
	return &config
}

// GetSiteWeb retrieves web (site) metadata for the bound site.
func (c *SharePointClientImpl) GetSiteWeb(ctx context.Context) (*sharepoint.Web, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	res, err := sp.Web().Select(WebFields).Get()
	if err != nil {
		return nil, fmt.Errorf("get web: %w", err)
	}

	var webData struct {
		Id          string
		Title       string
		Url         string
		WebTemplate string
	}
	if err := json.Unmarshal(res.Normalized(), &webData); err != nil {
		return nil, fmt.Errorf("decode web: %w", err)
	}

	return &sharepoint.Web{
		ID:       webData.Id,
		URL:      webData.Url,
		Title:    webData.Title,
		Template: webData.WebTemplate,
	}, nil
}

// GetSubscriptions retrieves all webhook subscriptions registered on a list.
func (c *SharePointClientImpl) GetSubscriptions(ctx context.Context, listID string) ([]*sharepoint.Subscription, error) {
	spClient := api.NewHTTPClient(c.authClient)
	endpoint := fmt.Sprintf("%s/_api/web/lists(guid'%s')/subscriptions", c.siteURL(), listID)

	data, err := spClient.Get(endpoint, c.createRequestConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("get subscriptions: %w", err)
	}

	items, err := decodeCollection[subscriptionApiData](data)
	if err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}

	subscriptions := make([]*sharepoint.Subscription, 0, len(items))
	for i := range items {
		subscriptions = append(subscriptions, mapSubscription(&items[i]))
	}
	return subscriptions, nil
}

// CreateSubscription registers a webhook subscription on a list. The resource
// field is filled from the list endpoint; callers provide the notification
// URL, expiration, and client state.
func (c *SharePointClientImpl) CreateSubscription(ctx context.Context, listID string, sub *sharepoint.Subscription) (*sharepoint.Subscription, error) {
	spClient := api.NewHTTPClient(c.authClient)
	endpoint := fmt.Sprintf("%s/_api/web/lists(guid'%s')/subscriptions", c.siteURL(), listID)

	payload := subscriptionApiData{
		Resource:           fmt.Sprintf("%s/_api/web/lists(guid'%s')", c.siteURL(), listID),
		NotificationURL:    sub.NotificationURL,
		ExpirationDateTime: formatSubscriptionTime(sub.ExpirationDateTime),
		ClientState:        sub.ClientState,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode subscription: %w", err)
	}

	data, err := spClient.Post(endpoint, bytes.NewReader(body), c.createRequestConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	created, err := decodeObject[subscriptionApiData](data)
	if err != nil {
		return nil, fmt.Errorf("decode created subscription: %w", err)
	}

	c.logger.SharePoint("Created webhook subscription",
		"list_id", listID,
		"subscription_id", created.ID,
		"expires", created.ExpirationDateTime,
	)

	return mapSubscription(&created), nil
}

// UpdateSubscriptionExpiration moves a subscription's expiration. SharePoint
// answers the update with an empty body; callers re-fetch for current state.
func (c *SharePointClientImpl) UpdateSubscriptionExpiration(ctx context.Context, listID, subscriptionID string, expiration time.Time) error {
	spClient := api.NewHTTPClient(c.authClient)
	endpoint := fmt.Sprintf("%s/_api/web/lists(guid'%s')/subscriptions('%s')", c.siteURL(), listID, subscriptionID)

	body, err := json.Marshal(map[string]string{"expirationDateTime": formatSubscriptionTime(expiration)})
	if err != nil {
		return fmt.Errorf("encode subscription update: %w", err)
	}

	if _, err := spClient.Update(endpoint, bytes.NewReader(body), c.createRequestConfig(ctx)); err != nil {
		return fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}

	c.logger.SharePoint("Renewed webhook subscription",
		"list_id", listID,
		"subscription_id", subscriptionID,
		"expires", expiration,
	)
	return nil
}

// DeleteSubscription removes a webhook subscription from a list.
func (c *SharePointClientImpl) DeleteSubscription(ctx context.Context, listID, subscriptionID string) error {
	spClient := api.NewHTTPClient(c.authClient)
	endpoint := fmt.Sprintf("%s/_api/web/lists(guid'%s')/subscriptions('%s')", c.siteURL(), listID, subscriptionID)

	if _, err := spClient.Delete(endpoint, c.createRequestConfig(ctx)); err != nil {
		return fmt.Errorf("delete subscription %s: %w", subscriptionID, err)
	}

	c.logger.SharePoint("Deleted webhook subscription",
		"list_id", listID,
		"subscription_id", subscriptionID,
	)
	return nil
}

// GetListChanges runs a change query against a list and returns recent item
// changes, newest last, bounded by fetchLimit.
func (c *SharePointClientImpl) GetListChanges(ctx context.Context, listID string, fetchLimit int) ([]*sharepoint.ListChange, error) {
	spClient := api.NewHTTPClient(c.authClient)
	endpoint := fmt.Sprintf("%s/_api/web/lists(guid'%s')/GetChanges", c.siteURL(), listID)

	query := changeQueryApiData{
		Query: changeQueryFields{
			Item:         true,
			Add:          true,
			Update:       true,
			DeleteObject: true,
			FetchLimit:   fetchLimit,
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode change query: %w", err)
	}

	data, err := spClient.Post(endpoint, bytes.NewReader(body), c.createRequestConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("get list changes: %w", err)
	}

	items, err := decodeCollection[changeApiData](data)
	if err != nil {
		return nil, fmt.Errorf("decode list changes: %w", err)
	}

	changes := make([]*sharepoint.ListChange, 0, len(items))
	for i := range items {
		changes = append(changes, mapListChange(&items[i]))
	}
	return changes, nil
}

// siteURL returns the absolute URL of the bound site.
func (c *SharePointClientImpl) siteURL() string {
	return c.authClient.AuthCnfg.GetSiteURL()
}
