// controller/auth_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuthController) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", ac.Login)
		auth.POST("/refresh", ac.Refresh)
		auth.POST("/logout", ac.Logout)
		auth.POST("/validate", ac.ValidateToken)
		auth.GET("/users/:id", ac.GetUserInfo)
		auth.GET("/users/:id/roles", ac.GetUserRoles)
		auth.DELETE("/users/:id/cache", ac.InvalidateUserCache)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login endpoint
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login request", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Username and password are required", wderrors.ErrInvalidInput)
		return
	}

	resp, err := ac.authService.Login(c, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrInvalidToken):
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials", err)
		case errors.Is(err, wderrors.ErrProviderUnavailable):
			util.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Login failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh endpoint
func (ac *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Refresh token is required", wderrors.ErrInvalidInput)
		return
	}

	resp, err := ac.authService.Refresh(c, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrInvalidToken):
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid refresh token", err)
		case errors.Is(err, wderrors.ErrProviderUnavailable):
			util.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Token refresh failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout endpoint
func (ac *AuthController) Logout(c *gin.Context) {
	token := util.BearerToken(c)
	if token == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Bearer token is required", wderrors.ErrInvalidInput)
		return
	}

	if err := ac.authService.Logout(c, token); err != nil {
		util.RespondWithError(c, http.StatusBadGateway, "Logout failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// ValidateToken endpoint. Always answers 200: an invalid token is a
// result, not a transport error.
func (ac *AuthController) ValidateToken(c *gin.Context) {
	token := util.BearerToken(c)
	if token == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Bearer token is required", wderrors.ErrInvalidInput)
		return
	}

	if c.Query("enriched") == "true" {
		c.JSON(http.StatusOK, ac.authService.ValidateTokenEnriched(c, token))
		return
	}
	c.JSON(http.StatusOK, ac.authService.ValidateToken(c, token))
}

// GetUserInfo endpoint
func (ac *AuthController) GetUserInfo(c *gin.Context) {
	userID := c.Param("id")

	identity, err := ac.authService.GetUserInfo(c, userID)
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrUserNotFound):
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		case errors.Is(err, wderrors.ErrProviderUnavailable):
			util.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch user", err)
		}
		return
	}

	c.JSON(http.StatusOK, identity)
}

// GetUserRoles endpoint
func (ac *AuthController) GetUserRoles(c *gin.Context) {
	userID := c.Param("id")

	roles, err := ac.authService.GetUserRoles(c, userID)
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrUserNotFound):
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		default:
			util.RespondWithError(c, http.StatusBadGateway, "Failed to fetch roles", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "roles": roles})
}

// InvalidateUserCache endpoint
func (ac *AuthController) InvalidateUserCache(c *gin.Context) {
	userID := c.Param("id")

	if err := ac.authService.InvalidateUserCache(c, userID); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Cache invalidation failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated", "userId": userID})
}
