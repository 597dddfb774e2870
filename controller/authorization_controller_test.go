// controller/authorization_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smplabs/warden/controller"
	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/test/mock"
)

func setupAuthzRouter(svc *mock.MockAuthorizationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/")
	controller.NewAuthorizationController(svc).RegisterRoutes(api)
	return r
}

func TestAuthorizationController(t *testing.T) {
	checkBody := `{"user":{"id":"user-1","roles":["USER"]},"resource":{"id":"doc1","type":"document"},"action":"read"}`

	t.Run("Check_Allow", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("CheckAccess", tmock.Anything, tmock.MatchedBy(func(in model.AuthorizationInput) bool {
			return in.User.ID == "user-1" && in.Resource.ID == "doc1" && in.Action == "read"
		})).Return(model.Decision{Allow: true})

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check", strings.NewReader(checkBody))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var decision model.Decision
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		assert.True(t, decision.Allow)
	})

	t.Run("Check_DenyIsStillOK", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("CheckAccess", tmock.Anything, tmock.Anything).
			Return(model.Decision{Allow: false, Reason: "insufficient clearance"})

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check", strings.NewReader(checkBody))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var decision model.Decision
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		assert.False(t, decision.Allow)
		assert.Equal(t, "insufficient clearance", decision.Reason)
	})

	t.Run("Check_MalformedBody", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		router := setupAuthzRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check", strings.NewReader(`{"user":`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CheckAccess")
	})

	t.Run("CheckWithToken_Success", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("CheckAccessWithToken", tmock.Anything, "tok-123", tmock.Anything).
			Return(model.Decision{Allow: true})

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check-token", strings.NewReader(checkBody))
		req.Header.Set("Authorization", "Bearer tok-123")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("CheckWithToken_MissingToken", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		router := setupAuthzRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check-token", strings.NewReader(checkBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CheckAccessWithToken")
	})

	t.Run("CheckWithUserID", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("CheckAccessWithUserID", tmock.Anything, "user-7", tmock.Anything).
			Return(model.Decision{Allow: false, Reason: "user not found"})

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/authz/check-user/user-7", strings.NewReader(checkBody))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("History_DefaultPaging", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("History", tmock.Anything, "user-1", "", 50, 0).
			Return([]model.AuthEvent{{ID: "e1"}, {ID: "e2"}}, nil)

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/authz/history?userId=user-1", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Events []model.AuthEvent `json:"events"`
			Count  int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("History_BackendDown", func(t *testing.T) {
		svc := new(mock.MockAuthorizationService)
		svc.On("History", tmock.Anything, "", "", 50, 0).
			Return(nil, wderrors.ErrCacheUnavailable)

		router := setupAuthzRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/authz/history", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
