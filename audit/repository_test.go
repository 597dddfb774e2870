// audit/repository_test.go
package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smplabs/warden/model"
)

func newTestRepository(t *testing.T) (*RedisRepository, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRepository(client), client
}

func journalEvent(i int, userID, resourceID string) model.AuthEvent {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return model.AuthEvent{
		ID:         fmt.Sprintf("evt-%05d", i),
		Type:       model.EventAuthorization,
		UserID:     userID,
		ResourceID: resourceID,
		Action:     "read",
		Allow:      true,
		Timestamp:  base.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
	}
}

func TestRecord_UserIndexCappedOldestEvictedFirst(t *testing.T) {
	repo, client := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, repo.Record(ctx, journalEvent(i, "user-1", "")))
	}

	length, err := client.LLen(ctx, userKey("user-1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(userCap), length)

	events, err := repo.ByUser(ctx, "user-1", 200)
	require.NoError(t, err)
	require.Len(t, events, userCap)
	assert.Equal(t, "evt-00149", events[0].ID)
	assert.Equal(t, "evt-00050", events[len(events)-1].ID)

	for _, e := range events {
		assert.GreaterOrEqual(t, e.ID, "evt-00050")
	}
}

func TestRecord_WritesEntryAndAllIndices(t *testing.T) {
	repo, client := newTestRepository(t)
	ctx := context.Background()

	event := journalEvent(0, "user-1", "doc1")
	require.NoError(t, repo.Record(ctx, event))

	ttl, err := client.TTL(ctx, entryKey(event.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	recent, err := client.LRange(ctx, recentKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, recent)

	byType, err := client.LRange(ctx, typeKey(model.EventAuthorization), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, byType)

	isMember, err := client.SIsMember(ctx, resourceKey("doc1"), event.ID).Result()
	require.NoError(t, err)
	assert.True(t, isMember)

	_, err = client.ZScore(ctx, timelineKey, event.ID).Result()
	require.NoError(t, err)

	date := time.Now().UTC().Format("2006-01-02")
	statsTTLLeft, err := client.TTL(ctx, statsKey(date, model.EventAuthorization)).Result()
	require.NoError(t, err)
	assert.Greater(t, statsTTLLeft, time.Duration(0))

	stats, err := repo.DailyStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[model.EventAuthorization])
}

func TestRecord_TimelineCappedOldestEvictedFirst(t *testing.T) {
	repo, client := newTestRepository(t)
	ctx := context.Background()

	extra := 25
	for i := 0; i < timelineCap+extra; i++ {
		require.NoError(t, repo.Record(ctx, journalEvent(i, "", "")))
	}

	count, err := client.ZCard(ctx, timelineKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(timelineCap), count)

	for i := 0; i < extra; i++ {
		_, err := client.ZScore(ctx, timelineKey, fmt.Sprintf("evt-%05d", i)).Result()
		assert.ErrorIs(t, err, redis.Nil)
	}

	events, err := repo.Timeline(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, fmt.Sprintf("evt-%05d", timelineCap+extra-1), events[0].ID)
}

func TestByResource_DropsExpiredEntriesFromSet(t *testing.T) {
	repo, client := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, journalEvent(0, "user-1", "doc1")))
	require.NoError(t, repo.Record(ctx, journalEvent(1, "user-1", "doc1")))

	// Expired bodies leave dangling ids behind in the resource set.
	require.NoError(t, client.Del(ctx, entryKey("evt-00000")).Err())

	events, err := repo.ByResource(ctx, "doc1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-00001", events[0].ID)

	isMember, err := client.SIsMember(ctx, resourceKey("doc1"), "evt-00000").Result()
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestEventFieldCodec(t *testing.T) {
	event := model.AuthEvent{
		ID:           "e1",
		Type:         model.EventAuthorization,
		UserID:       "u1",
		Username:     "jdune",
		ResourceID:   "doc1",
		ResourceType: "document",
		Action:       "read",
		Allow:        true,
		Success:      true,
		Reason:       "role permits read",
		Context:      map[string]any{"ip": "10.0.0.1"},
		DurationMs:   12,
		Timestamp:    "2026-08-30T10:00:00Z",
	}

	fields, err := eventToFields(event)
	require.NoError(t, err)

	stringFields := make(map[string]string, len(fields))
	for k, v := range fields {
		stringFields[k] = v.(string)
	}
	decoded := eventFromFields(stringFields)

	assert.Equal(t, event, decoded)
}

func TestEventFieldCodec_OmitsEmptyFields(t *testing.T) {
	fields, err := eventToFields(model.AuthEvent{ID: "e2", Type: model.EventLogin, Timestamp: "2026-08-30T10:00:00Z"})
	require.NoError(t, err)

	assert.NotContains(t, fields, "userId")
	assert.NotContains(t, fields, "resourceId")
	assert.NotContains(t, fields, "context")
	assert.Equal(t, "false", fields["allow"])
}

func TestSortNewestFirst(t *testing.T) {
	events := []model.AuthEvent{
		{ID: "a", Timestamp: "2026-08-30T09:00:00Z"},
		{ID: "b", Timestamp: "2026-08-30T11:00:00Z"},
		{ID: "c", Timestamp: "2026-08-30T10:00:00Z"},
	}

	sortNewestFirst(events)

	assert.Equal(t, "b", events[0].ID)
	assert.Equal(t, "c", events[1].ID)
	assert.Equal(t, "a", events[2].ID)
}
