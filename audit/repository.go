// audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/model"
)

// Repository persists the capped, indexed decision/event journal.
// Entries live in hashes with a retention TTL; the per-user, per-type
// and recent indices are capped lists, per-resource membership is a
// set, and chronological paging runs off a sorted set.
type Repository interface {
	Record(ctx context.Context, event model.AuthEvent) error
	Recent(ctx context.Context, limit int) ([]model.AuthEvent, error)
	ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error)
	ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error)
	ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error)
	Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error)
	DailyStats(ctx context.Context, date string) (map[string]int64, error)
}

type RedisRepository struct {
	client *redis.Client
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// disabledRepository stands in when the journal backend is unreachable.
// Writes are dropped, queries report the backend as unavailable.
type disabledRepository struct{}

var _ Repository = disabledRepository{}

func NewDisabledRepository() Repository { return disabledRepository{} }

func (disabledRepository) Record(context.Context, model.AuthEvent) error { return nil }

func (disabledRepository) Recent(context.Context, int) ([]model.AuthEvent, error) {
	return nil, errors.ErrCacheUnavailable
}

func (disabledRepository) ByType(context.Context, string, int) ([]model.AuthEvent, error) {
	return nil, errors.ErrCacheUnavailable
}

func (disabledRepository) ByUser(context.Context, string, int) ([]model.AuthEvent, error) {
	return nil, errors.ErrCacheUnavailable
}

func (disabledRepository) ByResource(context.Context, string, int) ([]model.AuthEvent, error) {
	return nil, errors.ErrCacheUnavailable
}

func (disabledRepository) Timeline(context.Context, int, int) ([]model.AuthEvent, error) {
	return nil, errors.ErrCacheUnavailable
}

func (disabledRepository) DailyStats(context.Context, string) (map[string]int64, error) {
	return nil, errors.ErrCacheUnavailable
}

const (
	recentKey   = "auth:events:recent"
	timelineKey = "auth:events:timeline"
)

func entryKey(id string) string { return "auth:events:" + id }

func typeKey(eventType string) string { return "auth:events:by_type:" + eventType }

func userKey(userID string) string { return "auth:events:by_user:" + userID }

func resourceKey(resourceID string) string {
	return "auth:events:resource:" + resourceID + ":decisions"
}

func statsKey(date, eventType string) string {
	return "auth:stats:daily:" + date + ":" + eventType
}

// Record writes the entry hash and all applicable indices in one
// pipeline. Each index is trimmed to its cap; the oldest ids fall off
// first.
func (r *RedisRepository) Record(ctx context.Context, event model.AuthEvent) error {
	fields, err := eventToFields(event)
	if err != nil {
		return err
	}

	score := float64(time.Now().Unix())
	if ts, err := time.Parse(time.RFC3339, event.Timestamp); err == nil {
		score = float64(ts.Unix())
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, entryKey(event.ID), fields)
	pipe.Expire(ctx, entryKey(event.ID), entryTTL)

	pipe.LPush(ctx, recentKey, event.ID)
	pipe.LTrim(ctx, recentKey, 0, recentCap-1)

	pipe.LPush(ctx, typeKey(event.Type), event.ID)
	pipe.LTrim(ctx, typeKey(event.Type), 0, typeCap-1)

	if event.UserID != "" {
		pipe.LPush(ctx, userKey(event.UserID), event.ID)
		pipe.LTrim(ctx, userKey(event.UserID), 0, userCap-1)
	}
	if event.ResourceID != "" {
		pipe.SAdd(ctx, resourceKey(event.ResourceID), event.ID)
		pipe.Expire(ctx, resourceKey(event.ResourceID), entryTTL)
	}

	pipe.ZAdd(ctx, timelineKey, redis.Z{Score: score, Member: event.ID})
	pipe.ZRemRangeByRank(ctx, timelineKey, 0, -(timelineCap + 1))

	date := time.Now().UTC().Format("2006-01-02")
	pipe.Incr(ctx, statsKey(date, event.Type))
	pipe.Expire(ctx, statsKey(date, event.Type), statsTTL)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) Recent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	return r.fromList(ctx, recentKey, limit)
}

func (r *RedisRepository) ByType(ctx context.Context, eventType string, limit int) ([]model.AuthEvent, error) {
	return r.fromList(ctx, typeKey(eventType), limit)
}

func (r *RedisRepository) ByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	return r.fromList(ctx, userKey(userID), limit)
}

// ByResource dereferences the resource's decision set, newest first.
// Ids whose entries already expired are dropped from the set as they
// are encountered.
func (r *RedisRepository) ByResource(ctx context.Context, resourceID string, limit int) ([]model.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := r.client.SMembers(ctx, resourceKey(resourceID)).Result()
	if err != nil {
		return nil, err
	}

	events, missing, err := r.dereference(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		r.client.SRem(ctx, resourceKey(resourceID), missing...)
	}

	sortNewestFirst(events)
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Timeline pages the journal chronologically, newest first.
func (r *RedisRepository) Timeline(ctx context.Context, limit, offset int) ([]model.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ids, err := r.client.ZRevRange(ctx, timelineKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	events, _, err := r.dereference(ctx, ids)
	return events, err
}

func (r *RedisRepository) fromList(ctx context.Context, indexKey string, limit int) ([]model.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := r.client.LRange(ctx, indexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	events, _, err := r.dereference(ctx, ids)
	return events, err
}

// dereference resolves entry bodies for a set of ids, preserving id
// order and reporting ids whose entries expired.
func (r *RedisRepository) dereference(ctx context.Context, ids []string) ([]model.AuthEvent, []interface{}, error) {
	if len(ids) == 0 {
		return []model.AuthEvent{}, nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, entryKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, err
	}

	events := make([]model.AuthEvent, 0, len(ids))
	var missing []interface{}
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			missing = append(missing, ids[i])
			continue
		}
		events = append(events, eventFromFields(fields))
	}
	return events, missing, nil
}

// DailyStats returns per-type event counts for a UTC day (YYYY-MM-DD).
// An empty date means today; an absent day yields an empty map.
func (r *RedisRepository) DailyStats(ctx context.Context, date string) (map[string]int64, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	prefix := "auth:stats:daily:" + date + ":"

	keys, err := r.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return stats, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			continue
		}
		count, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			continue
		}
		stats[strings.TrimPrefix(keys[i], prefix)] = count
	}
	return stats, nil
}

func eventToFields(event model.AuthEvent) (map[string]interface{}, error) {
	fields := map[string]interface{}{
		"id":        event.ID,
		"type":      event.Type,
		"allow":     strconv.FormatBool(event.Allow),
		"success":   strconv.FormatBool(event.Success),
		"timestamp": event.Timestamp,
	}
	if event.UserID != "" {
		fields["userId"] = event.UserID
	}
	if event.Username != "" {
		fields["username"] = event.Username
	}
	if event.ResourceID != "" {
		fields["resourceId"] = event.ResourceID
	}
	if event.ResourceType != "" {
		fields["resourceType"] = event.ResourceType
	}
	if event.Action != "" {
		fields["action"] = event.Action
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}
	if event.DurationMs > 0 {
		fields["durationMs"] = strconv.FormatInt(event.DurationMs, 10)
	}
	if len(event.Context) > 0 {
		data, err := json.Marshal(event.Context)
		if err != nil {
			return nil, err
		}
		fields["context"] = string(data)
	}
	return fields, nil
}

func eventFromFields(fields map[string]string) model.AuthEvent {
	event := model.AuthEvent{
		ID:           fields["id"],
		Type:         fields["type"],
		UserID:       fields["userId"],
		Username:     fields["username"],
		ResourceID:   fields["resourceId"],
		ResourceType: fields["resourceType"],
		Action:       fields["action"],
		Reason:       fields["reason"],
		Error:        fields["error"],
		Timestamp:    fields["timestamp"],
	}
	event.Allow, _ = strconv.ParseBool(fields["allow"])
	event.Success, _ = strconv.ParseBool(fields["success"])
	if v := fields["durationMs"]; v != "" {
		event.DurationMs, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := fields["context"]; v != "" {
		var contextMap map[string]any
		if err := json.Unmarshal([]byte(v), &contextMap); err == nil {
			event.Context = contextMap
		}
	}
	return event
}

func sortNewestFirst(events []model.AuthEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}
