package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Feel-The-AGI/workstream-server/internal/config"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/handlers"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware. The webhook and
// auth endpoints stay outside the authenticated group; the webhook proves
// itself by signature instead.
func Setup(
	facade handlers.MarketplaceFacade,
	verifier handlers.SignatureVerifier,
	health handlers.HealthChecker,
	limiter *redis.Client,
	cfg *config.Config,
	logger *slog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.RateLimit(limiter, cfg.RateLimitPerMinute, logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	programHandler := handlers.NewProgramHandler(facade)
	applicationHandler := handlers.NewApplicationHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade, verifier, logger)
	healthHandler := handlers.NewHealthHandler(health)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/payments/webhook", webhookHandler.Handle)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	authed.POST("/programs", programHandler.Create)
	authed.GET("/programs", programHandler.List)
	authed.GET("/programs/:id", programHandler.Get)
	authed.POST("/programs/:id/publish", programHandler.Publish)
	authed.POST("/programs/:id/close", programHandler.Close)
	authed.GET("/programs/:id/applications", programHandler.Applications)

	authed.POST("/applications", applicationHandler.Create)
	authed.GET("/applications", applicationHandler.List)
	authed.GET("/applications/:id", applicationHandler.Get)
	authed.PATCH("/applications/:id", applicationHandler.UpdateDraft)
	authed.POST("/applications/:id/submit", applicationHandler.Submit)
	authed.POST("/applications/:id/advance", applicationHandler.Advance)
	authed.POST("/applications/:id/cancel", applicationHandler.Cancel)

	authed.POST("/payments/initialize", paymentHandler.Initialize)
	authed.GET("/payments", paymentHandler.List)
	authed.GET("/payments/:reference/verify", paymentHandler.Verify)

	return engine
}
