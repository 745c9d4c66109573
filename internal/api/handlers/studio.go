package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/api/middleware"
	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
	"github.com/Conceptual-Machines/image-studio/internal/models"
	"github.com/Conceptual-Machines/image-studio/internal/relay"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/gin-gonic/gin"
)

// StudioHandler exposes the session's generation store over JSON.
// Every route expects middleware.StudioSession to have run.
type StudioHandler struct {
	generator studio.Generator
	metrics   *metrics.Collector
}

func NewStudioHandler(generator studio.Generator, collector *metrics.Collector) *StudioHandler {
	return &StudioHandler{
		generator: generator,
		metrics:   collector,
	}
}

type selectModelRequest struct {
	ID string `json:"id"`
}

type setParameterRequest struct {
	Value any `json:"value"`
}

type setPromptRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is returned by a successful studio generation
type GenerateResponse struct {
	State studio.State        `json:"state"`
	Entry models.HistoryEntry `json:"entry"`
}

func (h *StudioHandler) store(c *gin.Context) (*studio.Store, bool) {
	store, ok := middleware.StudioStore(c)
	if !ok {
		logger.Error("Studio store missing from context", nil, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errMsgInternal})
		return nil, false
	}
	return store, true
}

// GetState returns the current state snapshot
func (h *StudioHandler) GetState(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

// SelectModel switches model and resets the config to its defaults.
// Unknown or empty ids select the first catalog model.
func (h *StudioHandler) SelectModel(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req selectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	store.SelectModel(req.ID)
	c.JSON(http.StatusOK, store.Snapshot())
}

// SetParameter writes one config value. Values are stored as sent.
func (h *StudioHandler) SetParameter(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req setParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	store.SetParameter(c.Param("key"), req.Value)
	c.JSON(http.StatusOK, store.Snapshot())
}

// SetPrompt replaces the prompt verbatim
func (h *StudioHandler) SetPrompt(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var req setPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	store.SetPrompt(req.Prompt)
	c.JSON(http.StatusOK, store.Snapshot())
}

// Generate runs one generation for the session and records it in history
func (h *StudioHandler) Generate(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	model := store.Snapshot().Model.ID
	startTime := time.Now()
	entry, err := store.Generate(c.Request.Context(), h.generator)
	duration := time.Since(startTime)

	status, body := studioErrorResponse(c, err)
	if err == nil {
		status = http.StatusOK
		body = GenerateResponse{State: store.Snapshot(), Entry: entry}
	}

	if !errors.Is(err, studio.ErrEmptyPrompt) && !errors.Is(err, studio.ErrGenerationInFlight) {
		logger.LogGeneration(c.Request.Context(), model, duration, status, logger.WithContext(c))
		if h.metrics != nil {
			h.metrics.RecordGeneration(c.Request.Context(), model, status, duration)
		}
	}

	c.JSON(status, body)
}

// studioErrorResponse maps a Store.Generate error to the response the relay
// endpoint would have produced for the same failure
func studioErrorResponse(c *gin.Context, err error) (int, any) {
	if err == nil {
		return 0, nil
	}

	var upstreamErr *relay.UpstreamError
	var relayErr *studio.RelayError

	switch {
	case errors.Is(err, studio.ErrEmptyPrompt):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, studio.ErrGenerationInFlight):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, relay.ErrMissingAPIKey):
		logger.Error("Studio generation failed: provider credential not configured", err, logger.WithContext(c))
		return http.StatusInternalServerError, gin.H{"error": errMsgMissingAPIKey}
	case errors.As(err, &upstreamErr):
		logger.Warn("Upstream rejected studio generation", logger.WithContext(c))
		return upstreamErr.StatusCode, gin.H{"error": upstreamErr.Message}
	case errors.As(err, &relayErr):
		logger.Warn("Relay rejected studio generation", logger.WithContext(c))
		status := relayErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return status, gin.H{"error": relayErr.Message}
	default:
		logger.Error("Studio generation failed", err, logger.WithContext(c))
		return http.StatusInternalServerError, gin.H{"error": errMsgInternal}
	}
}

// ClearHistory empties the session history
func (h *StudioHandler) ClearHistory(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	store.ClearHistory()
	c.JSON(http.StatusOK, store.Snapshot())
}

// GetHistoryEntry returns one history entry by id
func (h *StudioHandler) GetHistoryEntry(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	entry, found := store.HistoryEntry(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "history entry not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
