// service/authorization_service.go
package service

import (
	"context"
	"time"

	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/cache"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/pdp"
	"github.com/smplabs/warden/util"
)

// IAuthorizationService defines the decision-side operations. Check
// methods always return a usable decision: any infrastructure failure
// resolves to a deny whose reason carries the diagnostic.
type IAuthorizationService interface {
	CheckAccess(ctx context.Context, input model.AuthorizationInput) model.Decision
	CheckAccessWithToken(ctx context.Context, token string, input model.AuthorizationInput) model.Decision
	CheckAccessWithUserID(ctx context.Context, userID string, input model.AuthorizationInput) model.Decision

	UpdatePolicy(ctx context.Context, policyID, content string) error
	GetPolicy(ctx context.Context, policyID string) (string, error)
	DeletePolicy(ctx context.Context, policyID string) error
	PolicyEngineHealthy(ctx context.Context) bool

	History(ctx context.Context, userID, resourceID string, limit, offset int) ([]model.AuthEvent, error)
}

// AuthorizationService drives the decision flow: resolve identity,
// enrich the input, consult the decision cache, fall through to the
// policy engine, write back and journal.
type AuthorizationService struct {
	policy     pdp.Client
	cache      cache.Service
	auditSvc   audit.Service
	authSvc    IAuthService
	validation *util.ValidationUtil
}

var _ IAuthorizationService = &AuthorizationService{}

func NewAuthorizationService(policy pdp.Client, cacheSvc cache.Service, auditSvc audit.Service, authSvc IAuthService, validation *util.ValidationUtil) *AuthorizationService {
	return &AuthorizationService{
		policy:     policy,
		cache:      cacheSvc,
		auditSvc:   auditSvc,
		authSvc:    authSvc,
		validation: validation,
	}
}

// CheckAccess evaluates an explicit (user, resource, action) input.
// Repeated calls with unchanged upstream state return the same decision.
func (s *AuthorizationService) CheckAccess(ctx context.Context, input model.AuthorizationInput) model.Decision {
	if err := s.validation.ValidateAuthorizationInput(input); err != nil {
		return model.Decision{Allow: false, Reason: err.Error()}
	}
	if input.User.ID == "" {
		return model.Decision{Allow: false, Reason: "user id cannot be empty"}
	}

	start := time.Now()
	key := cache.DecisionKey(input.User.ID, input.Resource.ID, input.Resource.Type, input.Action)

	if cached, ok := getCached[model.Decision](ctx, s.cache, key); ok {
		return *cached
	}

	decision, err := s.policy.CheckPermission(ctx, input)
	if err == nil {
		// Engine failures are not cached: the deny they produce reflects
		// infrastructure state, not policy.
		setCached(ctx, s.cache, key, &decision, cache.DecisionTTL())
	}

	event := model.AuthEvent{
		Type:         model.EventAuthorization,
		UserID:       input.User.ID,
		ResourceID:   input.Resource.ID,
		ResourceType: input.Resource.Type,
		Action:       input.Action,
		Allow:        decision.Allow,
		Success:      err == nil,
		Reason:       decision.Reason,
		Context:      input.Context,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.auditSvc.Record(ctx, event)

	return decision
}

// CheckAccessWithToken resolves the caller's identity from a bearer
// token (cache-first) and evaluates the enriched input. The input is
// never mutated; enrichment builds a copy, and caller-supplied user
// attributes win on conflict.
func (s *AuthorizationService) CheckAccessWithToken(ctx context.Context, token string, input model.AuthorizationInput) model.Decision {
	result := s.authSvc.ValidateTokenEnriched(ctx, token)
	if !result.Valid || result.Identity == nil {
		decision := model.Decision{Allow: false, Reason: "invalid token"}
		s.auditSvc.Record(ctx, model.AuthEvent{
			Type:         model.EventAuthorization,
			ResourceID:   input.Resource.ID,
			ResourceType: input.Resource.Type,
			Action:       input.Action,
			Allow:        false,
			Success:      true,
			Reason:       decision.Reason,
		})
		return decision
	}

	return s.CheckAccess(ctx, input.Enrich(result.Identity))
}

// CheckAccessWithUserID resolves the identity by id and evaluates the
// enriched input.
func (s *AuthorizationService) CheckAccessWithUserID(ctx context.Context, userID string, input model.AuthorizationInput) model.Decision {
	identity, err := s.authSvc.GetUserInfo(ctx, userID)
	if err != nil {
		return model.Decision{Allow: false, Reason: "failed to resolve user: " + err.Error()}
	}

	enriched := input.Enrich(identity)
	if enriched.User.ID == "" {
		enriched.User.ID = userID
	}
	return s.CheckAccess(ctx, enriched)
}

func (s *AuthorizationService) UpdatePolicy(ctx context.Context, policyID, content string) error {
	if err := s.validation.ValidatePolicyUpload(policyID, content); err != nil {
		return err
	}
	return s.policy.UpdatePolicy(ctx, policyID, content)
}

func (s *AuthorizationService) GetPolicy(ctx context.Context, policyID string) (string, error) {
	return s.policy.GetPolicy(ctx, policyID)
}

func (s *AuthorizationService) DeletePolicy(ctx context.Context, policyID string) error {
	return s.policy.DeletePolicy(ctx, policyID)
}

func (s *AuthorizationService) PolicyEngineHealthy(ctx context.Context) bool {
	return s.policy.HealthCheck(ctx)
}

// History pages past decisions: by user when userID is set, else by
// resource, else chronologically across all decisions.
func (s *AuthorizationService) History(ctx context.Context, userID, resourceID string, limit, offset int) ([]model.AuthEvent, error) {
	switch {
	case userID != "":
		return s.auditSvc.ByUser(ctx, userID, limit)
	case resourceID != "":
		return s.auditSvc.ByResource(ctx, resourceID, limit)
	default:
		return s.auditSvc.Timeline(ctx, limit, offset)
	}
}
