package api

import (
	"github.com/Conceptual-Machines/gyanguru-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/gyanguru-api/internal/api/middleware"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/metrics"
	"github.com/Conceptual-Machines/gyanguru-api/internal/services"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP surface is built on
type Dependencies struct {
	Config   *config.Config
	Sessions *session.Manager
	Learning handlers.LearningGenerator
	Options  services.LearningOptions
	Metrics  *metrics.Recorder
	Version  string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg, deps.Version)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Options)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	authHandler := handlers.NewAuthHandler(cfg, deps.Sessions)

	// Auth routes (public)
	auth := router.Group("/api/auth")
	auth.Use(apimiddleware.OptionalAuth(cfg))
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected API routes v1 (require a logged-in user)
	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.Auth(cfg), apimiddleware.RequireUser(deps.Sessions))
	{
		v1.POST("/auth/logout", authHandler.Logout)
		v1.GET("/me", authHandler.Me)

		generationHandler := handlers.NewGenerationHandler(deps.Learning)
		v1.POST("/generations/text", generationHandler.Text)
		v1.POST("/generations/code", generationHandler.Code)
		v1.POST("/generations/audio", generationHandler.Audio)
		v1.POST("/generations/visual", generationHandler.Visual)

		historyHandler := handlers.NewHistoryHandler()
		v1.GET("/history", historyHandler.List)
		v1.DELETE("/history/:id", historyHandler.Delete)

		toolsHandler := handlers.NewToolsHandler(cfg.CodeLanguage, cfg.AudioSampleRate, cfg.AudioChannels)
		v1.POST("/code/extract", toolsHandler.Extract)
		v1.POST("/audio/transcode", toolsHandler.Transcode)
	}

	return router
}
