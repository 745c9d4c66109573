package middleware

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	httpStatusBadRequest          = http.StatusBadRequest
	httpStatusInternalServerError = http.StatusInternalServerError
	sentryFlushTimeout            = 2 * time.Second
	requestIDHeader               = "X-Request-ID"
)

// RequestTracking adds a request ID, logs completion and records request metrics
func RequestTracking(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		defer func() {
			statusCode := c.Writer.Status()

			// A panic is still unwinding; RecoverWithSentry answers it with a 500
			panicked := recover()
			if panicked != nil {
				statusCode = httpStatusInternalServerError
			}

			trackRequest(c, collector, requestID, statusCode, time.Since(start))

			if panicked != nil {
				panic(panicked)
			}
		}()

		c.Next()
	}
}

func trackRequest(c *gin.Context, collector *metrics.Collector, requestID string, statusCode int, duration time.Duration) {
	// Route template keeps metric label cardinality bounded
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}

	fields := logger.Fields{
		"request_id":  requestID,
		"duration_ms": duration.Milliseconds(),
		"status_code": statusCode,
		"method":      c.Request.Method,
		"path":        c.Request.URL.Path,
		"client_ip":   c.ClientIP(),
	}

	if statusCode >= httpStatusInternalServerError {
		logger.Error("Request failed with server error", nil, fields)
	} else if statusCode >= httpStatusBadRequest {
		logger.Warn("Request failed with client error", fields)
	} else {
		logger.Info("Request completed", fields)
	}

	if collector != nil {
		collector.RecordAPIRequest(c.Request.Context(), c.Request.Method, endpoint, statusCode, duration)
	}
}

// SentryMiddleware returns the Sentry middleware with custom configuration
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         sentryFlushTimeout,
	})
}

// RecoverWithSentry recovers from panics, reports them to Sentry and answers 500
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if hub := sentrygin.GetHubFromContext(c); hub != nil {
					hub.WithScope(func(scope *sentry.Scope) {
						scope.SetRequest(c.Request)
						scope.SetContext("request", map[string]interface{}{
							"request_id": c.GetString("request_id"),
							"method":     c.Request.Method,
							"path":       c.Request.URL.Path,
							"client_ip":  c.ClientIP(),
						})
						hub.RecoverWithContext(c.Request.Context(), err)
					})
				}

				logger.Error("Panic recovered", nil, logger.Fields{
					"request_id": c.GetString("request_id"),
					"panic":      err,
					"path":       c.Request.URL.Path,
				})

				c.AbortWithStatusJSON(httpStatusInternalServerError, gin.H{
					"error": "Internal Server Error",
				})
			}
		}()
		c.Next()
	}
}
