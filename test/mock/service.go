// test/mock/service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/model"
)

// MockAuthService is a testify mock for service.IAuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) *model.TokenValidationResult {
	args := m.Called(ctx, token)
	return args.Get(0).(*model.TokenValidationResult)
}

func (m *MockAuthService) ValidateTokenEnriched(ctx context.Context, token string) *model.EnrichedTokenValidationResult {
	args := m.Called(ctx, token)
	return args.Get(0).(*model.EnrichedTokenValidationResult)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	args := m.Called(ctx, username, password)
	var resp *model.AuthResponse
	if x := args.Get(0); x != nil {
		resp = x.(*model.AuthResponse)
	}
	return resp, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	args := m.Called(ctx, refreshToken)
	var resp *model.AuthResponse
	if x := args.Get(0); x != nil {
		resp = x.(*model.AuthResponse)
	}
	return resp, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) GetUserInfo(ctx context.Context, userID string) (*model.Identity, error) {
	args := m.Called(ctx, userID)
	var identity *model.Identity
	if x := args.Get(0); x != nil {
		identity = x.(*model.Identity)
	}
	return identity, args.Error(1)
}

func (m *MockAuthService) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var roles []string
	if x := args.Get(0); x != nil {
		roles = x.([]string)
	}
	return roles, args.Error(1)
}

func (m *MockAuthService) InvalidateUserCache(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockAuthorizationService is a testify mock for
// service.IAuthorizationService.
type MockAuthorizationService struct {
	mock.Mock
}

func (m *MockAuthorizationService) CheckAccess(ctx context.Context, input model.AuthorizationInput) model.Decision {
	args := m.Called(ctx, input)
	return args.Get(0).(model.Decision)
}

func (m *MockAuthorizationService) CheckAccessWithToken(ctx context.Context, token string, input model.AuthorizationInput) model.Decision {
	args := m.Called(ctx, token, input)
	return args.Get(0).(model.Decision)
}

func (m *MockAuthorizationService) CheckAccessWithUserID(ctx context.Context, userID string, input model.AuthorizationInput) model.Decision {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(model.Decision)
}

func (m *MockAuthorizationService) UpdatePolicy(ctx context.Context, policyID, content string) error {
	args := m.Called(ctx, policyID, content)
	return args.Error(0)
}

func (m *MockAuthorizationService) GetPolicy(ctx context.Context, policyID string) (string, error) {
	args := m.Called(ctx, policyID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthorizationService) DeletePolicy(ctx context.Context, policyID string) error {
	args := m.Called(ctx, policyID)
	return args.Error(0)
}

func (m *MockAuthorizationService) PolicyEngineHealthy(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockAuthorizationService) History(ctx context.Context, userID, resourceID string, limit, offset int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, userID, resourceID, limit, offset)
	var events []model.AuthEvent
	if x := args.Get(0); x != nil {
		events = x.([]model.AuthEvent)
	}
	return events, args.Error(1)
}
