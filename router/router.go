// router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smplabs/warden/controller"
	"github.com/smplabs/warden/middleware"
	"github.com/smplabs/warden/service"
)

func SetupRouter(
	controllers *controller.Controllers,
	services *service.Services,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	controllers.Auth.RegisterRoutes(api)
	controllers.Authz.RegisterRoutes(api)

	// Administrative surfaces require a valid bearer token.
	admin := router.Group("/api/v1")
	admin.Use(middleware.TokenAuth(services.Auth))

	controllers.Event.RegisterRoutes(admin)
	controllers.Policy.RegisterRoutes(admin)
	controllers.User.RegisterRoutes(admin)

	return router
}
