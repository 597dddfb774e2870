// middleware/token_auth_test.go
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/smplabs/warden/middleware"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/test/mock"
	"github.com/smplabs/warden/util"
)

func setupProtectedRouter(authSvc *mock.MockAuthService) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seenUserID string
	r.Use(middleware.TokenAuth(authSvc))
	r.GET("/protected", func(c *gin.Context) {
		seenUserID = util.UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r, &seenUserID
}

func TestTokenAuth_MissingToken(t *testing.T) {
	authSvc := new(mock.MockAuthService)
	router, _ := setupProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	authSvc.AssertNotCalled(t, "ValidateToken")
}

func TestTokenAuth_InvalidToken(t *testing.T) {
	authSvc := new(mock.MockAuthService)
	authSvc.On("ValidateToken", tmock.Anything, "bad-token").
		Return(&model.TokenValidationResult{Valid: false})
	router, _ := setupProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuth_ValidTokenSetsUserID(t *testing.T) {
	authSvc := new(mock.MockAuthService)
	authSvc.On("ValidateToken", tmock.Anything, "good-token").
		Return(&model.TokenValidationResult{Valid: true, UserID: "user-1"})
	router, seenUserID := setupProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", *seenUserID)
}
