// service/authorization_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/test/mock"
	"github.com/smplabs/warden/util"
)

type authzFixture struct {
	svc      *service.AuthorizationService
	policy   *mock.MockPolicyClient
	cacheSvc *mock.MemoryCache
	auditSvc *mock.MockAuditService
	provider *mock.MockIdentityProvider
}

func newAuthzFixture() *authzFixture {
	provider := new(mock.MockIdentityProvider)
	policy := new(mock.MockPolicyClient)
	cacheSvc := mock.NewMemoryCache()
	auditSvc := new(mock.MockAuditService)
	auditSvc.On("Record", tmock.Anything, tmock.Anything).Maybe()

	authSvc := service.NewAuthService(provider, cacheSvc, nil, auditSvc, nil)
	svc := service.NewAuthorizationService(policy, cacheSvc, auditSvc, authSvc, util.NewValidationUtil())

	return &authzFixture{svc: svc, policy: policy, cacheSvc: cacheSvc, auditSvc: auditSvc, provider: provider}
}

func docInput(userID string) model.AuthorizationInput {
	return model.AuthorizationInput{
		User:     model.SubjectInput{ID: userID, Roles: []string{"USER"}},
		Resource: model.ResourceInput{ID: "doc1", Type: "document"},
		Action:   "read",
	}
}

func TestCheckAccess_Idempotent(t *testing.T) {
	f := newAuthzFixture()
	f.policy.On("CheckPermission", tmock.Anything, tmock.Anything).
		Return(model.Decision{Allow: true, Reason: "role permits read"}, nil).Once()

	ctx := context.Background()
	first := f.svc.CheckAccess(ctx, docInput("u1"))
	second := f.svc.CheckAccess(ctx, docInput("u1"))

	assert.True(t, first.Allow)
	assert.Equal(t, first, second)
	f.policy.AssertNumberOfCalls(t, "CheckPermission", 1)
}

func TestCheckAccess_DenyIsLogged(t *testing.T) {
	provider := new(mock.MockIdentityProvider)
	policy := new(mock.MockPolicyClient)
	auditSvc := new(mock.MockAuditService)
	authSvc := service.NewAuthService(provider, mock.NewMemoryCache(), nil, auditSvc, nil)
	svc := service.NewAuthorizationService(policy, mock.NewMemoryCache(), auditSvc, authSvc, util.NewValidationUtil())

	policy.On("CheckPermission", tmock.Anything, tmock.Anything).
		Return(model.Decision{Allow: false, Reason: "clearance too low"}, nil)
	auditSvc.On("Record", tmock.Anything, tmock.MatchedBy(func(e model.AuthEvent) bool {
		return e.Type == model.EventAuthorization && !e.Allow && e.ResourceID == "doc1"
	})).Once()

	decision := svc.CheckAccess(context.Background(), docInput("u1"))

	assert.False(t, decision.Allow)
	auditSvc.AssertExpectations(t)
}

func TestCheckAccess_EngineErrorDeniesWithoutCaching(t *testing.T) {
	f := newAuthzFixture()
	f.policy.On("CheckPermission", tmock.Anything, tmock.Anything).
		Return(model.Decision{Allow: false, Reason: "policy engine unavailable"}, wderrors.ErrPolicyEngine)

	ctx := context.Background()
	decision := f.svc.CheckAccess(ctx, docInput("u1"))

	assert.False(t, decision.Allow)
	assert.Equal(t, "policy engine unavailable", decision.Reason)

	// the infrastructure deny was not cached, so a second call retries
	f.svc.CheckAccess(ctx, docInput("u1"))
	f.policy.AssertNumberOfCalls(t, "CheckPermission", 2)
}

func TestCheckAccess_InvalidInputDenies(t *testing.T) {
	f := newAuthzFixture()

	decision := f.svc.CheckAccess(context.Background(), model.AuthorizationInput{
		User:   model.SubjectInput{ID: "u1"},
		Action: "read",
	})

	assert.False(t, decision.Allow)
	assert.Contains(t, decision.Reason, "resource id")
	f.policy.AssertNotCalled(t, "CheckPermission", tmock.Anything, tmock.Anything)
}

func TestCheckAccessWithToken_EnrichesIdentity(t *testing.T) {
	f := newAuthzFixture()
	f.provider.On("ValidateToken", tmock.Anything, "abc").Return(testIdentity(), nil).Once()

	var seen model.AuthorizationInput
	f.policy.On("CheckPermission", tmock.Anything, tmock.MatchedBy(func(in model.AuthorizationInput) bool {
		seen = in
		return true
	})).Return(model.Decision{Allow: true}, nil).Once()

	input := model.AuthorizationInput{
		Resource: model.ResourceInput{ID: "doc1", Type: "document"},
		Action:   "read",
		User:     model.SubjectInput{Attributes: map[string]any{"clearanceLevel": 5}},
	}
	decision := f.svc.CheckAccessWithToken(context.Background(), "abc", input)

	require.True(t, decision.Allow)
	assert.Equal(t, "user-1", seen.User.ID)
	assert.Equal(t, []string{"USER"}, seen.User.Roles)
	// caller-supplied attributes win over identity attributes
	assert.Equal(t, 5, seen.User.Attributes["clearanceLevel"])
	assert.Equal(t, "Research", seen.User.Attributes["department"])
	// the original input was not mutated
	assert.Empty(t, input.User.ID)
}

func TestCheckAccessWithToken_InvalidTokenDenies(t *testing.T) {
	f := newAuthzFixture()
	f.provider.On("ValidateToken", tmock.Anything, "bad").Return(nil, &wderrors.ValidationError{Upstream: "invalid_token"})

	decision := f.svc.CheckAccessWithToken(context.Background(), "bad", docInput(""))

	assert.False(t, decision.Allow)
	assert.Equal(t, "invalid token", decision.Reason)
	f.policy.AssertNotCalled(t, "CheckPermission", tmock.Anything, tmock.Anything)
}

func TestCheckAccessWithUserID_ResolvesIdentity(t *testing.T) {
	f := newAuthzFixture()
	f.provider.On("GetUserInfo", tmock.Anything, "user-1").Return(testIdentity(), nil).Once()
	f.policy.On("CheckPermission", tmock.Anything, tmock.MatchedBy(func(in model.AuthorizationInput) bool {
		return in.User.ID == "user-1" && len(in.User.Roles) == 1
	})).Return(model.Decision{Allow: true}, nil).Once()

	decision := f.svc.CheckAccessWithUserID(context.Background(), "user-1", model.AuthorizationInput{
		Resource: model.ResourceInput{ID: "doc1", Type: "document"},
		Action:   "read",
	})

	assert.True(t, decision.Allow)
	f.policy.AssertExpectations(t)
}

func TestCheckAccessWithUserID_UnknownUserDenies(t *testing.T) {
	f := newAuthzFixture()
	f.provider.On("GetUserInfo", tmock.Anything, "ghost").Return(nil, wderrors.ErrUserNotFound)

	decision := f.svc.CheckAccessWithUserID(context.Background(), "ghost", docInput(""))

	assert.False(t, decision.Allow)
	assert.Contains(t, decision.Reason, "failed to resolve user")
}

func TestInvalidateUserCache_ForcesFreshPolicyCall(t *testing.T) {
	provider := new(mock.MockIdentityProvider)
	policy := new(mock.MockPolicyClient)
	cacheSvc := mock.NewMemoryCache()
	auditSvc := new(mock.MockAuditService)
	auditSvc.On("Record", tmock.Anything, tmock.Anything).Maybe()

	authSvc := service.NewAuthService(provider, cacheSvc, nil, auditSvc, nil)
	svc := service.NewAuthorizationService(policy, cacheSvc, auditSvc, authSvc, util.NewValidationUtil())

	policy.On("CheckPermission", tmock.Anything, tmock.Anything).
		Return(model.Decision{Allow: true}, nil)

	ctx := context.Background()
	svc.CheckAccess(ctx, docInput("u1"))
	svc.CheckAccess(ctx, docInput("u1"))
	policy.AssertNumberOfCalls(t, "CheckPermission", 1)

	require.NoError(t, authSvc.InvalidateUserCache(ctx, "u1"))

	svc.CheckAccess(ctx, docInput("u1"))
	policy.AssertNumberOfCalls(t, "CheckPermission", 2)
}

func TestHistory_SelectsIndex(t *testing.T) {
	f := newAuthzFixture()
	events := []model.AuthEvent{{ID: "e1"}}
	f.auditSvc.On("ByUser", tmock.Anything, "u1", 10).Return(events, nil)
	f.auditSvc.On("ByResource", tmock.Anything, "doc1", 10).Return(events, nil)
	f.auditSvc.On("Timeline", tmock.Anything, 10, 20).Return(events, nil)

	ctx := context.Background()

	got, err := f.svc.History(ctx, "u1", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, events, got)

	got, err = f.svc.History(ctx, "", "doc1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, events, got)

	got, err = f.svc.History(ctx, "", "", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestUpdatePolicy_ValidatesInput(t *testing.T) {
	f := newAuthzFixture()

	err := f.svc.UpdatePolicy(context.Background(), "", "package authz")
	assert.Error(t, err)
	f.policy.AssertNotCalled(t, "UpdatePolicy", tmock.Anything, tmock.Anything, tmock.Anything)

	f.policy.On("UpdatePolicy", tmock.Anything, "authz", "package authz").Return(nil)
	assert.NoError(t, f.svc.UpdatePolicy(context.Background(), "authz", "package authz"))
}
