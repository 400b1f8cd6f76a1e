package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spwebhooks/application"
	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/config"
	"spwebhooks/spauth"
	"spwebhooks/test/helpers"
)

func newWebhookHandlersFixture(webhookCfg *config.WebhookConfig) (*WebhookHandlers, *helpers.MockClients) {
	mocks := helpers.NewMockClients()
	webhookService := application.NewWebhookService(mocks.Connections, webhookCfg)
	siteService := application.NewSiteService(
		mocks.Connections,
		mocks.Credential,
		spauth.Config{SharePointDomain: "sharepoint.com"},
		&config.SiteConfig{TenantPrefix: "contoso", SiteRelativePath: "/sites/Engineering"},
	)
	return NewWebhookHandlers(webhookService, siteService), mocks
}

func defaultWebhookConfig() *config.WebhookConfig {
	return &config.WebhookConfig{
		NotificationURL: "https://svc.example.com/api/notifications",
		ExpirationDays:  90,
	}
}

// newRouteRequest builds a request carrying chi URL parameters, matching how
// the router hands requests to the handlers.
func newRouteRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestWebhookHandlers_Register_Success(t *testing.T) {
	// Arrange
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	created := helpers.NewTestData().SimpleSubscription(helpers.TestSubscriptionID, "https://svc.example.com/api/notifications", 90)
	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptionCreated(helpers.TestListID, created)

	body := strings.NewReader(`{"clientState": "my-secret"}`)
	req := newRouteRequest(http.MethodPost, "/api/lists/"+helpers.TestListID+"/webhooks", body, map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	// Act
	handlers.Register(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)

	var got sharepoint.Subscription
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, helpers.TestSubscriptionID, got.ID)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_Register_InvalidBody(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	req := newRouteRequest(http.MethodPost, "/api/lists/"+helpers.TestListID+"/webhooks", strings.NewReader("{not json"), map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	handlers.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var got errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "invalid_request_body", got.Error)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_Register_MissingNotificationURL(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(&config.WebhookConfig{ExpirationDays: 90})

	req := newRouteRequest(http.MethodPost, "/api/lists/"+helpers.TestListID+"/webhooks", nil, map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	handlers.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var got errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "missing_parameter", got.Error)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_List_Success(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	subs := []*sharepoint.Subscription{
		helpers.NewTestData().SimpleSubscription(helpers.TestSubscriptionID, "https://svc.example.com/api/notifications", 30),
	}
	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptions(helpers.TestListID, subs)

	req := newRouteRequest(http.MethodGet, "/api/lists/"+helpers.TestListID+"/webhooks", nil, map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	handlers.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got subscriptionListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Subscriptions, 1)
	assert.Equal(t, helpers.TestSubscriptionID, got.Subscriptions[0].ID)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_List_QueryParametersOverrideSite(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	// The mock only answers for the overridden identity, so resolving to the
	// default site would fail the test.
	override := sharepoint.SiteIdentity{TenantPrefix: "fabrikam", SiteRelativePath: "/sites/HR"}
	mocks.ExpectConnection(override)
	mocks.ExpectSubscriptions(helpers.TestListID, []*sharepoint.Subscription{})

	target := "/api/lists/" + helpers.TestListID + "/webhooks?tenantPrefix=fabrikam&sitePath=/sites/HR"
	req := newRouteRequest(http.MethodGet, target, nil, map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	handlers.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_Get_NotFound(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptions(helpers.TestListID, []*sharepoint.Subscription{})

	req := newRouteRequest(http.MethodGet, "/api/lists/"+helpers.TestListID+"/webhooks/"+helpers.TestSubscriptionID, nil, map[string]string{
		"listID":         helpers.TestListID,
		"subscriptionID": helpers.TestSubscriptionID,
	})
	w := httptest.NewRecorder()

	handlers.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var got errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "subscription_not_found", got.Error)
}

func TestWebhookHandlers_Get_InvalidListID(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	req := newRouteRequest(http.MethodGet, "/api/lists/not-a-guid/webhooks/"+helpers.TestSubscriptionID, nil, map[string]string{
		"listID":         "not-a-guid",
		"subscriptionID": helpers.TestSubscriptionID,
	})
	w := httptest.NewRecorder()

	handlers.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var got errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "missing_parameter", got.Error)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_Renew_Success(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	sub := helpers.NewTestData().SimpleSubscription(helpers.TestSubscriptionID, "https://svc.example.com/api/notifications", 90)
	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptions(helpers.TestListID, []*sharepoint.Subscription{sub})
	mocks.ExpectExpirationUpdated(helpers.TestListID, helpers.TestSubscriptionID)

	req := newRouteRequest(http.MethodPatch, "/api/lists/"+helpers.TestListID+"/webhooks/"+helpers.TestSubscriptionID, nil, map[string]string{
		"listID":         helpers.TestListID,
		"subscriptionID": helpers.TestSubscriptionID,
	})
	w := httptest.NewRecorder()

	handlers.Renew(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got sharepoint.Subscription
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, helpers.TestSubscriptionID, got.ID)
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_Delete_Success(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	sub := helpers.NewTestData().SimpleSubscription(helpers.TestSubscriptionID, "https://svc.example.com/api/notifications", 30)
	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptions(helpers.TestListID, []*sharepoint.Subscription{sub})
	mocks.ExpectSubscriptionDeleted(helpers.TestListID, helpers.TestSubscriptionID)

	req := newRouteRequest(http.MethodDelete, "/api/lists/"+helpers.TestListID+"/webhooks/"+helpers.TestSubscriptionID, nil, map[string]string{
		"listID":         helpers.TestListID,
		"subscriptionID": helpers.TestSubscriptionID,
	})
	w := httptest.NewRecorder()

	handlers.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mocks.AssertAllExpectations(t)
}

func TestWebhookHandlers_UpstreamFailure(t *testing.T) {
	handlers, mocks := newWebhookHandlersFixture(defaultWebhookConfig())

	mocks.ExpectConnection(helpers.TestIdentity())
	mocks.ExpectSubscriptionsError(helpers.TestListID, errors.New("sharepoint returned 503"))

	req := newRouteRequest(http.MethodGet, "/api/lists/"+helpers.TestListID+"/webhooks", nil, map[string]string{
		"listID": helpers.TestListID,
	})
	w := httptest.NewRecorder()

	handlers.List(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var got errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "upstream_request_failed", got.Error)
	mocks.AssertAllExpectations(t)
}
