// controller/authorization_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

type AuthorizationController struct {
	authzService service.IAuthorizationService
}

func NewAuthorizationController(authzService service.IAuthorizationService) *AuthorizationController {
	return &AuthorizationController{
		authzService: authzService,
	}
}

// RegisterRoutes registers the API routes
func (azc *AuthorizationController) RegisterRoutes(r *gin.RouterGroup) {
	authz := r.Group("/authz")
	{
		authz.POST("/check", azc.Check)
		authz.POST("/check-token", azc.CheckWithToken)
		authz.POST("/check-user/:id", azc.CheckWithUserID)
		authz.GET("/history", azc.History)
	}
}

// Check evaluates an explicit (user, resource, action) input. The
// response is always a decision; infrastructure trouble reads as deny.
func (azc *AuthorizationController) Check(c *gin.Context) {
	var input model.AuthorizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid authorization input", err)
		return
	}

	c.JSON(http.StatusOK, azc.authzService.CheckAccess(c, input))
}

// CheckWithToken resolves the subject from the bearer token.
func (azc *AuthorizationController) CheckWithToken(c *gin.Context) {
	token := util.BearerToken(c)
	if token == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Bearer token is required", wderrors.ErrInvalidInput)
		return
	}

	var input model.AuthorizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid authorization input", err)
		return
	}

	c.JSON(http.StatusOK, azc.authzService.CheckAccessWithToken(c, token, input))
}

// CheckWithUserID resolves the subject by user id.
func (azc *AuthorizationController) CheckWithUserID(c *gin.Context) {
	var input model.AuthorizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid authorization input", err)
		return
	}

	c.JSON(http.StatusOK, azc.authzService.CheckAccessWithUserID(c, c.Param("id"), input))
}

// History pages past decisions by user, resource or time.
func (azc *AuthorizationController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := azc.authzService.History(c, c.Query("userId"), c.Query("resourceId"), limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch decision history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
