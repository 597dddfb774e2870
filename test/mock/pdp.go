// test/mock/pdp.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/model"
)

// MockPolicyClient is a mock implementation of pdp.Client
type MockPolicyClient struct {
	mock.Mock
}

func (m *MockPolicyClient) CheckPermission(ctx context.Context, input model.AuthorizationInput) (model.Decision, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(model.Decision), args.Error(1)
}

func (m *MockPolicyClient) UpdatePolicy(ctx context.Context, policyID, module string) error {
	args := m.Called(ctx, policyID, module)
	return args.Error(0)
}

func (m *MockPolicyClient) GetPolicy(ctx context.Context, policyID string) (string, error) {
	args := m.Called(ctx, policyID)
	return args.String(0), args.Error(1)
}

func (m *MockPolicyClient) DeletePolicy(ctx context.Context, policyID string) error {
	args := m.Called(ctx, policyID)
	return args.Error(0)
}

func (m *MockPolicyClient) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
