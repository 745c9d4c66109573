package main

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/api"
	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/Conceptual-Machines/image-studio/internal/config"
	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
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

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger.Setup(cfg.LogLevel, cfg.Environment)

	// A broken catalog would make every parameter panel and default wrong
	if err := catalog.Validate(); err != nil {
		logger.Error("Invalid model catalog", err, nil)
		log.Fatal("Invalid model catalog:", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "image-studio@" + releaseVersion,
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
			logger.Warn("Failed to initialize Sentry", logger.Fields{"error": err.Error()})
		} else {
			logger.Info("Sentry initialized", logger.Fields{
				"environment": cfg.Environment,
				"release":     releaseVersion,
			})
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		logger.Warn("Sentry not configured (SENTRY_DSN not set)", nil)
	}

	if cfg.KieAIAPIKey == "" {
		logger.Warn("KIE_AI_API_KEY not set; generation requests will fail", nil)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := metrics.NewCollector(context.Background(), cfg.Environment)

	// Initialize router
	router := api.SetupRouter(cfg, collector, GetVersion())

	logger.Info("Starting server", logger.Fields{"addr": cfg.Addr(), "version": GetVersion()})
	if err := router.Run(cfg.Addr()); err != nil {
		sentry.CaptureException(err)
		logger.Error("Failed to start server", err, nil)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"set-cookie":    true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
