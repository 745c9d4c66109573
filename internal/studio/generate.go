package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/image-studio/internal/models"
)

var (
	// ErrEmptyPrompt is returned when Generate is called with a blank prompt
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrGenerationInFlight is returned when Generate is called while another generation runs
	ErrGenerationInFlight = errors.New("generation already in progress")
)

// Request is what a generation call sends to the relay
type Request struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt"`
	Parameters map[string]any `json:"parameters"`
}

// Generator turns a request into an image URL
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f(ctx, req)
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Generate runs one generation with the current model, prompt and config.
// The in-flight flag is cleared on every exit path. On success the result is set
// and a history entry recorded; on failure the result stays empty and the error
// is returned for the caller to surface.
func (s *Store) Generate(ctx context.Context, gen Generator) (entry models.HistoryEntry, err error) {
	req, modelName, err := s.begin()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	defer s.EndGeneration()

	url, err := gen.Generate(ctx, req)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("generate with %s: %w", req.Model, err)
	}

	s.SetResult(url)
	return s.RecordHistory(url, req.Prompt, modelName), nil
}

// begin checks the preconditions and flips the in-flight flag in one critical section,
// so two concurrent Generate calls cannot both start.
func (s *Store) begin() (Request, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.prompt) == "" {
		return Request{}, "", ErrEmptyPrompt
	}
	if s.generating {
		return Request{}, "", ErrGenerationInFlight
	}

	params := make(map[string]any, len(s.config))
	for k, v := range s.config {
		params[k] = v
	}

	s.result = nil
	s.generating = true

	return Request{
		Model:      s.model.ID,
		Prompt:     s.prompt,
		Parameters: params,
	}, s.model.Name, nil
}
