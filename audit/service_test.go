// audit/service_test.go
package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/test/mock"
	"github.com/smplabs/warden/util"
)

type recordingArchiver struct {
	mu     sync.Mutex
	events []model.AuthEvent
}

func (a *recordingArchiver) IndexEvent(ctx context.Context, event model.AuthEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingArchiver) SearchEvents(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.AuthEvent(nil), a.events...), nil
}

func (a *recordingArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

func TestRecord_StampsIDAndTimestamp(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	service := audit.NewService(repo, nil, nil)

	var recorded model.AuthEvent
	repo.On("Record", tmock.Anything, tmock.MatchedBy(func(e model.AuthEvent) bool {
		recorded = e
		return true
	})).Return(nil)

	service.Record(context.Background(), model.AuthEvent{Type: model.EventLogin, UserID: "u1", Success: true})

	repo.AssertExpectations(t)
	assert.NotEmpty(t, recorded.ID)
	assert.NotEmpty(t, recorded.Timestamp)
	assert.Equal(t, model.EventLogin, recorded.Type)
}

func TestRecord_SwallowsRepositoryError(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	repo.On("Record", tmock.Anything, tmock.Anything).Return(errors.New("redis down"))

	service := audit.NewService(repo, nil, nil)

	assert.NotPanics(t, func() {
		service.Record(context.Background(), model.AuthEvent{Type: model.EventError})
	})
}

func TestRecord_PublishesToArchiver(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	repo.On("Record", tmock.Anything, tmock.Anything).Return(nil)

	archiver := &recordingArchiver{}
	bus := util.NewEventBus()
	service := audit.NewService(repo, archiver, bus)

	service.Record(context.Background(), model.AuthEvent{Type: model.EventAuthorization, UserID: "u1"})

	require.Eventually(t, func() bool {
		return archiver.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRecord_FailedRecordIsNotArchived(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	repo.On("Record", tmock.Anything, tmock.Anything).Return(errors.New("redis down"))

	archiver := &recordingArchiver{}
	bus := util.NewEventBus()
	service := audit.NewService(repo, archiver, bus)

	service.Record(context.Background(), model.AuthEvent{Type: model.EventLogin})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, archiver.count())
}

func TestSearchArchive_DisabledReturnsEmpty(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	service := audit.NewService(repo, nil, nil)

	events, err := service.SearchArchive(context.Background(), time.Now().Add(-time.Hour), time.Now(), "", "")

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQueries_Delegate(t *testing.T) {
	repo := new(mock.MockAuditRepository)
	expected := []model.AuthEvent{{
		ID:         "e1",
		Type:       model.EventAuthorization,
		UserID:     "u1",
		ResourceID: "doc1",
		Action:     "read",
		Allow:      false,
		Reason:     "clearance too low",
	}}
	repo.On("ByUser", tmock.Anything, "u1", 50).Return(expected, nil)
	repo.On("ByResource", tmock.Anything, "doc1", 10).Return(expected, nil)
	repo.On("Timeline", tmock.Anything, 20, 40).Return(expected, nil)
	repo.On("DailyStats", tmock.Anything, "2026-08-30").Return(map[string]int64{"login": 3}, nil)

	service := audit.NewService(repo, nil, nil)
	ctx := context.Background()

	events, err := service.ByUser(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, expected, events)

	events, err = service.ByResource(ctx, "doc1", 10)
	require.NoError(t, err)
	assert.Equal(t, expected, events)

	events, err = service.Timeline(ctx, 20, 40)
	require.NoError(t, err)
	assert.Equal(t, expected, events)

	stats, err := service.DailyStats(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"login": 3}, stats)

	repo.AssertExpectations(t)
}
