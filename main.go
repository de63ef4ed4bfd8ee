package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/llm"
	"github.com/Conceptual-Machines/gyanguru-api/internal/metrics"
	"github.com/Conceptual-Machines/gyanguru-api/internal/observability"
	"github.com/Conceptual-Machines/gyanguru-api/internal/prompt"
	"github.com/Conceptual-Machines/gyanguru-api/internal/services"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/Conceptual-Machines/gyanguru-api/internal/storage"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout = 2 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	if cfg.IsJWTMode() && cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required when AUTH_MODE=jwt")
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "gyanguru-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	langfuse := observability.InitializeLangfuse(ctx, cfg)

	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	recorder := metrics.NewRecorder(cloudwatch, metrics.NewSentryMetrics(cfg.SentryDSN != ""))

	// Initialize storage
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to open storage:", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}()
	log.Printf("💾 Storage driver: %s", cfg.StorageDriver)

	prompts, err := prompt.NewPromptBuilder(cfg.CodeLanguage, cfg.DiagramCount)
	if err != nil {
		log.Fatal("Failed to load prompt templates:", err)
	}

	options := services.OptionsFromConfig(cfg)
	learning := services.NewLearningService(
		llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey),
		prompts,
		options,
		recorder,
		langfuse,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:   cfg,
		Sessions: session.NewManager(store, cfg.SessionCacheSize),
		Learning: learning,
		Options:  options,
		Metrics:  recorder,
		Version:  GetVersion(),
	})

	log.Printf("🚀 Starting server on port %s (auth: %s)", cfg.Port, cfg.AuthMode)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
