// test/mock/dao.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/model"
)

// MockUserDAO is a mock implementation of dao.UserDAO
type MockUserDAO struct {
	mock.Mock
}

func (m *MockUserDAO) GetUserByID(ctx context.Context, userID string) (*model.Identity, error) {
	args := m.Called(ctx, userID)
	if identity := args.Get(0); identity != nil {
		return identity.(*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDAO) UpsertUser(ctx context.Context, identity *model.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockUserDAO) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserDAO) SearchUsers(ctx context.Context, query string, limit int) ([]*model.Identity, error) {
	args := m.Called(ctx, query, limit)
	if users := args.Get(0); users != nil {
		return users.([]*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}
