// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/model"
)

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, event model.AuthEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepository) Recent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditRepository) ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, eventType, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditRepository) ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditRepository) ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, resourceID, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditRepository) Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditRepository) DailyStats(ctx context.Context, date string) (map[string]int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, event model.AuthEvent) {
	m.Called(ctx, event)
}

func (m *MockAuditService) Recent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditService) ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, eventType, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditService) ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditService) ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, resourceID, limit)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditService) Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuditService) DailyStats(ctx context.Context, date string) (map[string]int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockAuditService) SearchArchive(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error) {
	args := m.Called(ctx, from, to, userID, resourceID)
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}
