// controller/policy_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

type PolicyController struct {
	authzService service.IAuthorizationService
}

func NewPolicyController(authzService service.IAuthorizationService) *PolicyController {
	return &PolicyController{
		authzService: authzService,
	}
}

// RegisterRoutes registers the API routes
func (pc *PolicyController) RegisterRoutes(r *gin.RouterGroup) {
	policies := r.Group("/policies")
	{
		policies.PUT("/:id", pc.UpdatePolicy)
		policies.GET("/:id", pc.GetPolicy)
		policies.DELETE("/:id", pc.DeletePolicy)
	}
	r.GET("/policy-engine/health", pc.EngineHealth)
}

type policyUpload struct {
	Content string `json:"content"`
}

// UpdatePolicy endpoint
func (pc *PolicyController) UpdatePolicy(c *gin.Context) {
	var upload policyUpload
	if err := c.ShouldBindJSON(&upload); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy payload", err)
		return
	}

	err := pc.authzService.UpdatePolicy(c, c.Param("id"), upload.Content)
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrInvalidPolicyData):
			util.RespondWithError(c, http.StatusBadRequest, "Policy rejected by engine", err)
		case errors.Is(err, wderrors.ErrPolicyEngine):
			util.RespondWithError(c, http.StatusBadGateway, "Policy engine unavailable", err)
		default:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid policy upload", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated", "policyId": c.Param("id")})
}

// GetPolicy endpoint
func (pc *PolicyController) GetPolicy(c *gin.Context) {
	content, err := pc.authzService.GetPolicy(c, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrPolicyNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Policy not found", err)
		case errors.Is(err, wderrors.ErrPolicyEngine):
			util.RespondWithError(c, http.StatusBadGateway, "Policy engine unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch policy", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"policyId": c.Param("id"), "content": content})
}

// DeletePolicy endpoint
func (pc *PolicyController) DeletePolicy(c *gin.Context) {
	err := pc.authzService.DeletePolicy(c, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, wderrors.ErrPolicyNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Policy not found", err)
		case errors.Is(err, wderrors.ErrPolicyEngine):
			util.RespondWithError(c, http.StatusBadGateway, "Policy engine unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete policy", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "policyId": c.Param("id")})
}

// EngineHealth endpoint
func (pc *PolicyController) EngineHealth(c *gin.Context) {
	if !pc.authzService.PolicyEngineHealthy(c) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
