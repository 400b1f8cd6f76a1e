package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/spclient"
)

// MockSharePointClient implements spclient.SharePointClient for testing
type MockSharePointClient struct {
	mock.Mock
}

func (m *MockSharePointClient) GetSiteWeb(ctx context.Context) (*sharepoint.Web, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharepoint.Web), args.Error(1)
}

func (m *MockSharePointClient) GetSubscriptions(ctx context.Context, listID string) ([]*sharepoint.Subscription, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharepoint.Subscription), args.Error(1)
}

func (m *MockSharePointClient) CreateSubscription(ctx context.Context, listID string, sub *sharepoint.Subscription) (*sharepoint.Subscription, error) {
	args := m.Called(ctx, listID, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharepoint.Subscription), args.Error(1)
}

func (m *MockSharePointClient) UpdateSubscriptionExpiration(ctx context.Context, listID, subscriptionID string, expiration time.Time) error {
	args := m.Called(ctx, listID, subscriptionID, expiration)
	return args.Error(0)
}

func (m *MockSharePointClient) DeleteSubscription(ctx context.Context, listID, subscriptionID string) error {
	args := m.Called(ctx, listID, subscriptionID)
	return args.Error(0)
}

func (m *MockSharePointClient) GetListChanges(ctx context.Context, listID string, fetchLimit int) ([]*sharepoint.ListChange, error) {
	args := m.Called(ctx, listID, fetchLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharepoint.ListChange), args.Error(1)
}

// MockConnectionProvider implements application.ConnectionProvider for testing
type MockConnectionProvider struct {
	mock.Mock
}

func (m *MockConnectionProvider) Get(identity sharepoint.SiteIdentity) (*spclient.Connection, error) {
	args := m.Called(identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spclient.Connection), args.Error(1)
}
