package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"

	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/spclient"
	"spwebhooks/test/mocks"
)

// Well-formed GUIDs for tests that go through parameter validation.
const (
	TestListID         = "7a9b1c2d-3e4f-4a5b-8c6d-9e0f1a2b3c4d"
	TestSubscriptionID = "f1e2d3c4-b5a6-4978-8a9b-0c1d2e3f4a5b"
)

// MockClients holds the SharePoint-facing mocks for easy injection
type MockClients struct {
	SharePoint  *mocks.MockSharePointClient
	Connections *mocks.MockConnectionProvider
	Credential  *mocks.MockTokenCredential
}

// NewMockClients creates a new set of client mocks
func NewMockClients() *MockClients {
	return &MockClients{
		SharePoint:  &mocks.MockSharePointClient{},
		Connections: &mocks.MockConnectionProvider{},
		Credential:  &mocks.MockTokenCredential{},
	}
}

// ExpectConnection wires the provider to hand out a connection bound to the
// mock SharePoint client for the given identity.
func (m *MockClients) ExpectConnection(identity sharepoint.SiteIdentity) *spclient.Connection {
	conn := &spclient.Connection{
		Identity: identity,
		SiteURL:  identity.URL("sharepoint.com"),
		SP:       m.SharePoint,
	}
	m.Connections.On("Get", identity).Return(conn, nil)
	return conn
}

// ExpectConnectionError sets up a failing connection resolution
func (m *MockClients) ExpectConnectionError(identity sharepoint.SiteIdentity, err error) {
	m.Connections.On("Get", identity).Return(nil, err)
}

// ExpectSubscriptions sets up expectations for a successful subscription listing
func (m *MockClients) ExpectSubscriptions(listID string, subs []*sharepoint.Subscription) {
	m.SharePoint.On("GetSubscriptions", mock.Anything, listID).Return(subs, nil)
}

// ExpectSubscriptionsError sets up expectations for a failing subscription listing
func (m *MockClients) ExpectSubscriptionsError(listID string, err error) {
	m.SharePoint.On("GetSubscriptions", mock.Anything, listID).Return(nil, err)
}

// ExpectSubscriptionCreated sets up expectations for a successful registration
func (m *MockClients) ExpectSubscriptionCreated(listID string, created *sharepoint.Subscription) {
	m.SharePoint.On("CreateSubscription", mock.Anything, listID, mock.Anything).Return(created, nil)
}

// ExpectExpirationUpdated sets up expectations for a successful expiration update
func (m *MockClients) ExpectExpirationUpdated(listID, subscriptionID string) {
	m.SharePoint.On("UpdateSubscriptionExpiration", mock.Anything, listID, subscriptionID, mock.Anything).Return(nil)
}

// ExpectSubscriptionDeleted sets up expectations for a successful deletion
func (m *MockClients) ExpectSubscriptionDeleted(listID, subscriptionID string) {
	m.SharePoint.On("DeleteSubscription", mock.Anything, listID, subscriptionID).Return(nil)
}

// ExpectWeb sets up expectations for a successful web metadata retrieval
func (m *MockClients) ExpectWeb(web *sharepoint.Web) {
	m.SharePoint.On("GetSiteWeb", mock.Anything).Return(web, nil)
}

// ExpectChanges sets up expectations for a successful change query
func (m *MockClients) ExpectChanges(listID string, fetchLimit int, changes []*sharepoint.ListChange) {
	m.SharePoint.On("GetListChanges", mock.Anything, listID, fetchLimit).Return(changes, nil)
}

// AssertAllExpectations verifies all mock expectations were met
func (m *MockClients) AssertAllExpectations(t mock.TestingT) {
	m.SharePoint.AssertExpectations(t)
	m.Connections.AssertExpectations(t)
	m.Credential.AssertExpectations(t)
}

// TestData provides simple builders for test data
type TestData struct{}

// NewTestData creates a test data builder
func NewTestData() *TestData {
	return &TestData{}
}

// SimpleSubscription creates a basic subscription for testing
func (td *TestData) SimpleSubscription(id, notificationURL string, daysOut int) *sharepoint.Subscription {
	return &sharepoint.Subscription{
		ID:                 id,
		Resource:           TestListID,
		NotificationURL:    notificationURL,
		ClientState:        "state-" + id,
		ExpirationDateTime: time.Now().AddDate(0, 0, daysOut),
	}
}

// SimpleWeb creates basic web metadata for testing
func (td *TestData) SimpleWeb(title string) *sharepoint.Web {
	return &sharepoint.Web{
		ID:       "web-" + title,
		Title:    title,
		URL:      "https://contoso.sharepoint.com/sites/" + title,
		Template: "STS#3",
	}
}

// SimpleChange creates a basic list change for testing
func (td *TestData) SimpleChange(itemID int, changeType int) *sharepoint.ListChange {
	return &sharepoint.ListChange{
		Token:  fmt.Sprintf("1;3;%s;636000000000000000;%d", TestListID, itemID),
		Type:   sharepoint.ChangeTypeLabel(changeType),
		ItemID: itemID,
		ListID: TestListID,
		Time:   time.Now(),
	}
}

// TestIdentity returns a fixed site identity for tests
func TestIdentity() sharepoint.SiteIdentity {
	return sharepoint.SiteIdentity{
		TenantPrefix:     "contoso",
		SiteRelativePath: "/sites/Engineering",
	}
}

// Helper for common test context
func TestContext() context.Context {
	return context.Background()
}
