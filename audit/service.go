// audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/util"
)

// Service is the write and query surface of the decision/event journal.
// Recording is best-effort: a journal that cannot be written must not
// fail the authentication or authorization it describes, so Record
// swallows persistence errors after logging them.
type Service interface {
	Record(ctx context.Context, event model.AuthEvent)

	Recent(ctx context.Context, limit int) ([]model.AuthEvent, error)
	ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error)
	ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error)
	ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error)
	Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error)
	DailyStats(ctx context.Context, date string) (map[string]int64, error)
	SearchArchive(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error)
}

type service struct {
	repo     Repository
	archiver Archiver
	bus      *util.EventBus
}

// NewService wires the journal. archiver may be nil when archiving is
// disabled; bus may be nil in tests.
func NewService(repo Repository, archiver Archiver, bus *util.EventBus) Service {
	s := &service{repo: repo, archiver: archiver, bus: bus}

	if archiver != nil && bus != nil {
		bus.Subscribe(util.TopicEventRecorded, func(ctx context.Context, e util.Event) error {
			event, ok := e.Payload.(model.AuthEvent)
			if !ok {
				return nil
			}
			return archiver.IndexEvent(ctx, event)
		})
	}
	return s
}

// Record stamps id and timestamp if missing, persists the event and
// announces it on the bus.
func (s *service) Record(ctx context.Context, event model.AuthEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.repo.Record(ctx, event); err != nil {
		logger.Warn("Failed to record auth event",
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}

	if s.bus != nil {
		s.bus.Publish(ctx, util.TopicEventRecorded, event)
	}
}

func (s *service) Recent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *service) ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error) {
	return s.repo.ByType(ctx, eventType, limit)
}

func (s *service) ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	return s.repo.ByUser(ctx, userID, limit)
}

func (s *service) ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error) {
	return s.repo.ByResource(ctx, resourceID, limit)
}

func (s *service) Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error) {
	return s.repo.Timeline(ctx, limit, offset)
}

func (s *service) DailyStats(ctx context.Context, date string) (map[string]int64, error) {
	return s.repo.DailyStats(ctx, date)
}

// SearchArchive queries long-term storage. Returns empty results when
// archiving is disabled.
func (s *service) SearchArchive(ctx context.Context, from, to time.Time, userID, resourceID string) ([]model.AuthEvent, error) {
	if s.archiver == nil {
		return []model.AuthEvent{}, nil
	}
	return s.archiver.SearchEvents(ctx, from, to, userID, resourceID)
}
