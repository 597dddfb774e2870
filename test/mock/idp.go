// test/mock/idp.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/model"
)

// MockIdentityProvider is a mock implementation of idp.Client
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) ValidateToken(ctx context.Context, token string) (*model.Identity, error) {
	args := m.Called(ctx, token)
	if identity := args.Get(0); identity != nil {
		return identity.(*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GetUserInfo(ctx context.Context, userID string) (*model.Identity, error) {
	args := m.Called(ctx, userID)
	if identity := args.Get(0); identity != nil {
		return identity.(*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GetRoles(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if roles := args.Get(0); roles != nil {
		return roles.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) AdminToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	args := m.Called(ctx, username, password)
	if resp := args.Get(0); resp != nil {
		return resp.(*model.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	args := m.Called(ctx, refreshToken)
	if resp := args.Get(0); resp != nil {
		return resp.(*model.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, user model.UserRecord) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) UpdateUser(ctx context.Context, userID string, user model.UserRecord) error {
	args := m.Called(ctx, userID, user)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityProvider) EnableUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityProvider) DisableUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityProvider) AssignRoles(ctx context.Context, userID string, roles []string) error {
	args := m.Called(ctx, userID, roles)
	return args.Error(0)
}

func (m *MockIdentityProvider) RemoveRoles(ctx context.Context, userID string, roles []string) error {
	args := m.Called(ctx, userID, roles)
	return args.Error(0)
}

func (m *MockIdentityProvider) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

func (m *MockIdentityProvider) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

func (m *MockIdentityProvider) GetUserGroups(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if groups := args.Get(0); groups != nil {
		return groups.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GetUserSessions(ctx context.Context, userID string) ([]model.SessionInfo, error) {
	args := m.Called(ctx, userID)
	if sessions := args.Get(0); sessions != nil {
		return sessions.([]model.SessionInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) LogoutAllSessions(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityProvider) SearchUsers(ctx context.Context, query string, limit int) ([]model.UserRecord, error) {
	args := m.Called(ctx, query, limit)
	if users := args.Get(0); users != nil {
		return users.([]model.UserRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GetUserByUsername(ctx context.Context, username string) (*model.UserRecord, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*model.UserRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*model.UserRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
