package mocks

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/mock"
)

// MockTokenCredential implements azcore.TokenCredential for testing
type MockTokenCredential struct {
	mock.Mock
}

func (m *MockTokenCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	args := m.Called(ctx, options)
	return args.Get(0).(azcore.AccessToken), args.Error(1)
}
