// controller/user_controller.go
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/idp"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/util"
)

// UserController exposes the provider's administrative user API.
type UserController struct {
	provider   idp.ExtendedClient
	validation *util.ValidationUtil
}

func NewUserController(provider idp.ExtendedClient, validation *util.ValidationUtil) *UserController {
	return &UserController{
		provider:   provider,
		validation: validation,
	}
}

// RegisterRoutes registers the API routes
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", uc.CreateUser)
		users.PUT("/:id", uc.UpdateUser)
		users.DELETE("/:id", uc.DeleteUser)
		users.POST("/:id/enable", uc.EnableUser)
		users.POST("/:id/disable", uc.DisableUser)
		users.GET("/:id/sessions", uc.GetUserSessions)
		users.DELETE("/:id/sessions", uc.LogoutAllSessions)
		users.GET("", uc.SearchUsers)
	}
}

// CreateUser endpoint
func (uc *UserController) CreateUser(c *gin.Context) {
	var user model.UserRecord
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	if err := uc.validation.ValidateUserRecord(user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), wderrors.ErrInvalidUserData)
		return
	}

	id, err := uc.provider.CreateUser(c, user)
	if err != nil {
		uc.respondProviderError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateUser endpoint
func (uc *UserController) UpdateUser(c *gin.Context) {
	var user model.UserRecord
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}

	if err := uc.provider.UpdateUser(c, c.Param("id"), user); err != nil {
		uc.respondProviderError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeleteUser endpoint
func (uc *UserController) DeleteUser(c *gin.Context) {
	if err := uc.provider.DeleteUser(c, c.Param("id")); err != nil {
		uc.respondProviderError(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// EnableUser endpoint
func (uc *UserController) EnableUser(c *gin.Context) {
	if err := uc.provider.EnableUser(c, c.Param("id")); err != nil {
		uc.respondProviderError(c, err, "Failed to enable user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "enabled"})
}

// DisableUser endpoint
func (uc *UserController) DisableUser(c *gin.Context) {
	if err := uc.provider.DisableUser(c, c.Param("id")); err != nil {
		uc.respondProviderError(c, err, "Failed to disable user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disabled"})
}

// GetUserSessions endpoint
func (uc *UserController) GetUserSessions(c *gin.Context) {
	sessions, err := uc.provider.GetUserSessions(c, c.Param("id"))
	if err != nil {
		uc.respondProviderError(c, err, "Failed to fetch sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// LogoutAllSessions endpoint
func (uc *UserController) LogoutAllSessions(c *gin.Context) {
	if err := uc.provider.LogoutAllSessions(c, c.Param("id")); err != nil {
		uc.respondProviderError(c, err, "Failed to terminate sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sessions terminated"})
}

// SearchUsers endpoint
func (uc *UserController) SearchUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if username := c.Query("username"); username != "" {
		user, err := uc.provider.GetUserByUsername(c, username)
		if err != nil {
			uc.respondProviderError(c, err, "User lookup failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": []model.UserRecord{*user}, "count": 1})
		return
	}
	if email := c.Query("email"); email != "" {
		user, err := uc.provider.GetUserByEmail(c, email)
		if err != nil {
			uc.respondProviderError(c, err, "User lookup failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": []model.UserRecord{*user}, "count": 1})
		return
	}

	users, err := uc.provider.SearchUsers(c, c.Query("q"), limit)
	if err != nil {
		uc.respondProviderError(c, err, "User search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (uc *UserController) respondProviderError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, wderrors.ErrUserNotFound):
		util.RespondWithError(c, http.StatusNotFound, "User not found", err)
	case errors.Is(err, wderrors.ErrNotImplemented):
		util.RespondWithError(c, http.StatusNotImplemented, "Operation not implemented", err)
	case errors.Is(err, wderrors.ErrProviderUnavailable):
		util.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}
