// service/auth_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/cache"
	"github.com/smplabs/warden/dao"
	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/idp"
	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/util"
)

// IAuthService defines the token-side operations of the gateway.
type IAuthService interface {
	// ValidateToken never returns an error: provider rejections and
	// provider outages both resolve to an invalid result. The transport
	// layer answers 200 with valid:false, it does not surface 5xx for a
	// bad token.
	ValidateToken(ctx context.Context, token string) *model.TokenValidationResult
	ValidateTokenEnriched(ctx context.Context, token string) *model.EnrichedTokenValidationResult

	Login(ctx context.Context, username, password string) (*model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error)
	Logout(ctx context.Context, token string) error

	GetUserInfo(ctx context.Context, userID string) (*model.Identity, error)
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	InvalidateUserCache(ctx context.Context, userID string) error
}

// AuthService orchestrates token validation and user lookups:
// cache-first, provider on miss, write-back on success.
type AuthService struct {
	provider idp.ExtendedClient
	cache    cache.Service
	userDAO  dao.UserDAO
	auditSvc audit.Service
	eventBus *util.EventBus
}

var _ IAuthService = &AuthService{}

// NewAuthService creates the token-side orchestrator. userDAO may be nil
// when no relational store is configured; lookups then go straight to
// the provider.
func NewAuthService(provider idp.ExtendedClient, cacheSvc cache.Service, userDAO dao.UserDAO, auditSvc audit.Service, eventBus *util.EventBus) *AuthService {
	return &AuthService{
		provider: provider,
		cache:    cacheSvc,
		userDAO:  userDAO,
		auditSvc: auditSvc,
		eventBus: eventBus,
	}
}

func (s *AuthService) ValidateToken(ctx context.Context, token string) *model.TokenValidationResult {
	start := time.Now()
	key := cache.TokenKey(token)

	if cached, ok := getCached[model.TokenValidationResult](ctx, s.cache, key); ok {
		return cached
	}

	identity, err := s.provider.ValidateToken(ctx, token)
	if err != nil {
		s.recordValidation(ctx, nil, err, start)
		return &model.TokenValidationResult{Valid: false}
	}

	result := &model.TokenValidationResult{
		Valid:      true,
		UserID:     identity.Sub,
		Email:      identity.Email,
		GivenName:  identity.GivenName,
		FamilyName: identity.FamilyName,
		Roles:      identity.Roles,
	}
	setCached(ctx, s.cache, key, result, cache.TokenTTL())
	s.recordValidation(ctx, identity, nil, start)
	return result
}

func (s *AuthService) ValidateTokenEnriched(ctx context.Context, token string) *model.EnrichedTokenValidationResult {
	start := time.Now()
	key := cache.EnrichedTokenKey(token)

	if cached, ok := getCached[model.EnrichedTokenValidationResult](ctx, s.cache, key); ok {
		return cached
	}

	identity, err := s.provider.ValidateToken(ctx, token)
	if err != nil {
		s.recordValidation(ctx, nil, err, start)
		return &model.EnrichedTokenValidationResult{}
	}

	result := &model.EnrichedTokenValidationResult{
		TokenValidationResult: model.TokenValidationResult{
			Valid:      true,
			UserID:     identity.Sub,
			Email:      identity.Email,
			GivenName:  identity.GivenName,
			FamilyName: identity.FamilyName,
			Roles:      identity.Roles,
		},
		Identity: identity,
	}
	setCached(ctx, s.cache, key, result, cache.TokenTTL())
	s.recordValidation(ctx, identity, nil, start)
	return result
}

func (s *AuthService) recordValidation(ctx context.Context, identity *model.Identity, err error, start time.Time) {
	event := model.AuthEvent{
		Type:       model.EventTokenValidation,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if identity != nil {
		event.UserID = identity.Sub
		event.Username = identity.PreferredUsername
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.auditSvc.Record(ctx, event)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	resp, err := s.provider.Login(ctx, username, password)

	event := model.AuthEvent{
		Type:     model.EventLogin,
		Username: username,
		Success:  err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.auditSvc.Record(ctx, event)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	resp, err := s.provider.RefreshToken(ctx, refreshToken)

	event := model.AuthEvent{
		Type:    model.EventTokenRefresh,
		Success: err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.auditSvc.Record(ctx, event)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes the token at the provider and drops its cached
// validation entries. The decision entries keyed by user id stay until
// an explicit invalidation or TTL.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.provider.Logout(ctx, token)

	if delErr := s.cache.Delete(ctx, cache.TokenKey(token), cache.EnrichedTokenKey(token)); delErr != nil {
		logger.Warn("Failed to drop token cache entries on logout", zap.Error(delErr))
	}

	event := model.AuthEvent{
		Type:    model.EventLogout,
		Success: err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.auditSvc.Record(ctx, event)
	return err
}

// GetUserInfo resolves a user profile: cache, then the local store,
// then the provider. Provider results are mirrored to the store and the
// cache on the way out.
func (s *AuthService) GetUserInfo(ctx context.Context, userID string) (*model.Identity, error) {
	key := cache.UserInfoKey(userID)
	if cached, ok := getCached[model.Identity](ctx, s.cache, key); ok {
		return cached, nil
	}

	if s.userDAO != nil {
		identity, err := s.userDAO.GetUserByID(ctx, userID)
		if err == nil {
			setCached(ctx, s.cache, key, identity, cache.UserTTL())
			return identity, nil
		}
		if !errors.Is(err, wderrors.ErrUserNotFound) {
			logger.Warn("User store lookup failed, falling back to provider",
				zap.String("userId", userID), zap.Error(err))
		}
	}

	identity, err := s.provider.GetUserInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.syncUser(ctx, identity)
	setCached(ctx, s.cache, key, identity, cache.UserTTL())
	return identity, nil
}

// syncUser mirrors a provider identity into the local store,
// best-effort.
func (s *AuthService) syncUser(ctx context.Context, identity *model.Identity) {
	if s.userDAO == nil {
		return
	}
	if err := s.userDAO.UpsertUser(ctx, identity); err != nil {
		logger.Warn("Failed to mirror user to store",
			zap.String("userId", identity.Sub), zap.Error(err))
		return
	}
	s.auditSvc.Record(ctx, model.AuthEvent{
		Type:    model.EventUserSync,
		UserID:  identity.Sub,
		Success: true,
	})
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, util.TopicUserSynced, *identity)
	}
}

func (s *AuthService) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	key := cache.UserRolesKey(userID)
	if cached, ok := getCached[[]string](ctx, s.cache, key); ok {
		return *cached, nil
	}

	roles, err := s.provider.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	setCached(ctx, s.cache, key, &roles, cache.RolesTTL())
	return roles, nil
}

// InvalidateUserCache deletes every cache entry addressable by the user
// id: profile, roles and decision entries. Token-keyed entries are not
// reachable from a user id and expire via TTL only.
func (s *AuthService) InvalidateUserCache(ctx context.Context, userID string) error {
	var keys []string
	for _, pattern := range cache.UserPatterns(userID) {
		matched, err := s.cache.Keys(ctx, pattern)
		if err != nil {
			return err
		}
		keys = append(keys, matched...)
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		return err
	}

	s.auditSvc.Record(ctx, model.AuthEvent{
		Type:    model.EventCacheInvalidate,
		UserID:  userID,
		Success: true,
		Context: map[string]any{"entries": len(keys)},
	})
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, util.TopicCacheInvalidated, userID)
	}
	return nil
}

// getCached loads and decodes a cached value. A miss, a disabled cache
// and a decode failure all read as "not cached".
func getCached[T any](ctx context.Context, c cache.Service, key string) (*T, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.Get(ctx, key)
	if err != nil {
		logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logger.Warn("Dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &value, true
}

// setCached stores a value best-effort; cache write failures never fail
// the operation that produced the value.
func setCached[T any](ctx context.Context, c cache.Service, key string, value *T, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.Set(ctx, key, string(data), ttl); err != nil {
		logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
