package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
	"github.com/Conceptual-Machines/image-studio/internal/relay"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/gin-gonic/gin"
)

const (
	errMsgInternal      = "Internal Server Error"
	errMsgMissingAPIKey = "API Key not found"
	unknownModelLabel   = "unknown"
)

// GenerationHandler serves the relay endpoint. It keeps no state between requests.
type GenerationHandler struct {
	upstream *relay.Client
	metrics  *metrics.Collector
}

func NewGenerationHandler(upstream *relay.Client, collector *metrics.Collector) *GenerationHandler {
	return &GenerationHandler{
		upstream: upstream,
		metrics:  collector,
	}
}

// GenerateRequest is the relay request body
type GenerateRequest struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt"`
	Parameters map[string]any `json:"parameters"`
}

// Generate forwards one request to the upstream provider and answers {url} or {error}
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Generate API Error", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errMsgInternal})
		return
	}

	startTime := time.Now()
	url, err := h.upstream.Generate(c.Request.Context(), studio.Request{
		Model:      req.Model,
		Prompt:     req.Prompt,
		Parameters: req.Parameters,
	})

	status, body := h.respond(c, req.Model, url, err)
	duration := time.Since(startTime)

	if !errors.Is(err, relay.ErrMissingAPIKey) {
		fields := logger.WithContext(c)
		logger.LogGeneration(c.Request.Context(), req.Model, duration, status, fields)
		if h.metrics != nil {
			h.metrics.RecordGeneration(c.Request.Context(), modelLabel(req.Model), status, duration)
		}
	}

	c.JSON(status, body)
}

// modelLabel bounds metric cardinality: ids outside the catalog share one label
func modelLabel(id string) string {
	if model, ok := catalog.Find(id); ok {
		return model.ID
	}
	return unknownModelLabel
}

// respond maps a relay outcome to the HTTP status and body returned to the caller
func (h *GenerationHandler) respond(c *gin.Context, model, url string, err error) (int, gin.H) {
	if err == nil {
		return http.StatusOK, gin.H{"url": url}
	}

	if errors.Is(err, relay.ErrMissingAPIKey) {
		logger.Error("Generate API Error: provider credential not configured", err, logger.WithContext(c))
		return http.StatusInternalServerError, gin.H{"error": errMsgMissingAPIKey}
	}

	var upstreamErr *relay.UpstreamError
	if errors.As(err, &upstreamErr) {
		fields := logger.WithContext(c)
		fields["model"] = model
		fields["upstream_status"] = upstreamErr.StatusCode
		logger.Warn("Upstream rejected generation", fields)
		return upstreamErr.StatusCode, gin.H{"error": upstreamErr.Message}
	}

	fields := logger.WithContext(c)
	fields["model"] = model
	logger.Error("Generate API Error", err, fields)
	return http.StatusInternalServerError, gin.H{"error": errMsgInternal}
}
