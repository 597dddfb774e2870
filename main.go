package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/cache"
	"github.com/smplabs/warden/config"
	"github.com/smplabs/warden/controller"
	"github.com/smplabs/warden/dao"
	"github.com/smplabs/warden/db"
	"github.com/smplabs/warden/idp"
	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
	"github.com/smplabs/warden/pdp"
	"github.com/smplabs/warden/router"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Redis backs the cache and the event journal. Validation still works
	// without it, so a failed connection degrades to uncached operation.
	cacheSvc := cache.Service(cache.Disabled())
	auditRepo := audit.NewDisabledRepository()
	if err := db.InitRedis(); err != nil {
		logger.Warn("Redis unavailable, running without cache and event journal", zap.Error(err))
	} else {
		defer db.CloseRedis()
		cacheSvc = cache.NewRedisCache(db.RedisClient)
		auditRepo = audit.NewRedisRepository(db.RedisClient)
	}

	// The Postgres mirror is optional as well; without it every user lookup
	// goes straight to the identity provider.
	var userDAO dao.UserDAO
	if err := db.InitPostgres(); err != nil {
		logger.Warn("Postgres unavailable, user profiles served from identity provider only", zap.Error(err))
	} else {
		defer db.ClosePostgres()
		pgDAO := dao.NewPostgresUserDAO(db.Postgres)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgDAO.EnsureSchema(ctx); err != nil {
			logger.Warn("Failed to prepare user profile schema", zap.Error(err))
		} else {
			userDAO = pgDAO
		}
		cancel()
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	var archiver audit.Archiver
	if config.GetBool("audit.archiveEnabled") {
		esArchiver, err := audit.NewElasticsearchArchiver(config.GetString("elasticsearch.url"))
		if err != nil {
			logger.Warn("Elasticsearch unavailable, event archiving disabled", zap.Error(err))
		} else {
			archiver = esArchiver
		}
	}
	auditService := audit.NewService(auditRepo, archiver, eventBus)

	// Initialize the identity provider and the policy engine clients
	provider := idp.NewKeycloakClient(idp.ConfigFromViper(), model.DefaultAttributeConfig())
	policyClient := pdp.NewOPAClient(pdp.ConfigFromViper())

	// Initialize services and controllers
	validationUtil := util.NewValidationUtil()
	services := service.InitializeServices(
		provider,
		policyClient,
		cacheSvc,
		userDAO,
		auditService,
		validationUtil,
		eventBus,
	)
	controllers := controller.InitializeControllers(services, auditService, provider, validationUtil)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(
		controllers,
		services,
		config.GetInt("server.rateLimitRequests"),
		config.GetDuration("server.rateLimitWindow"),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
