package api

import (
	"github.com/Conceptual-Machines/image-studio/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/image-studio/internal/api/middleware"
	"github.com/Conceptual-Machines/image-studio/internal/config"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
	"github.com/Conceptual-Machines/image-studio/internal/relay"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(cfg *config.Config, collector *metrics.Collector, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking, structured logging and request metrics
	router.Use(apimiddleware.RequestTracking(collector))

	// CORS middleware
	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigin))

	upstream := relay.NewClient(cfg.KieAIBaseURL, cfg.KieAIAPIKey)
	sessions := studio.NewSessions(cfg.SessionTTL)

	// Health check
	router.GET("/health", handlers.HealthCheck(upstream.HasAPIKey()))

	// Metrics endpoints
	metricsHandler := handlers.NewMetricsHandler(version, sessions)
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(collector.Prometheus.Registry(), promhttp.HandlerOpts{})))

	// Model catalog
	router.GET("/api/models", handlers.ListModels)
	router.GET("/api/models/:id", handlers.GetModel)

	// Stateless relay to the image provider
	generationHandler := handlers.NewGenerationHandler(upstream, collector)
	router.POST("/api/generate", generationHandler.Generate)

	// Studio session routes
	cookies := apimiddleware.NewCookieStore(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	studioGroup := router.Group("/api/studio")
	studioGroup.Use(apimiddleware.StudioSession(cookies, sessions))
	{
		studioHandler := handlers.NewStudioHandler(upstream, collector)
		studioGroup.GET("", studioHandler.GetState)
		studioGroup.PUT("/model", studioHandler.SelectModel)
		studioGroup.PUT("/parameters/:key", studioHandler.SetParameter)
		studioGroup.PUT("/prompt", studioHandler.SetPrompt)
		studioGroup.POST("/generate", studioHandler.Generate)
		studioGroup.DELETE("/history", studioHandler.ClearHistory)
		studioGroup.GET("/history/:id", studioHandler.GetHistoryEntry)
	}

	return router
}
