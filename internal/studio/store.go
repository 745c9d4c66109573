// Package studio holds the per-session generation state and drives the generation flow.
package studio

import (
	"sync"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/Conceptual-Machines/image-studio/internal/models"
	"github.com/google/uuid"
)

// MaxHistory is the number of history entries kept, most recent first
const MaxHistory = 20

// State is a point-in-time copy of a Store, safe to read and serialize
type State struct {
	Model        models.ModelDefinition `json:"selected_model"`
	Config       map[string]any         `json:"config"`
	Prompt       string                 `json:"prompt"`
	IsGenerating bool                   `json:"is_generating"`
	ResultURL    *string                `json:"generated_image_url"`
	History      []models.HistoryEntry  `json:"history"`
}

// Store owns one session's generation state.
// Every mutation goes through a method; the zero value is not usable, call NewStore.
type Store struct {
	mu sync.Mutex

	model      models.ModelDefinition
	config     map[string]any
	prompt     string
	generating bool
	result     *string
	history    []models.HistoryEntry

	now   func() time.Time
	newID func() string
}

// NewStore returns a store with the first catalog model selected and its defaults loaded
func NewStore() *Store {
	model := catalog.Default()
	return &Store{
		model:  model,
		config: model.Defaults(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SelectModel switches the selected model and resets the config to its defaults.
// Unknown ids resolve to the first catalog model.
func (s *Store) SelectModel(id string) models.ModelDefinition {
	model := catalog.Lookup(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.config = model.Defaults()
	return model
}

// SetParameter stores value under key as given. No type or range check is done here:
// validation belongs to the caller or the upstream provider.
func (s *Store) SetParameter(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
}

// SetPrompt replaces the prompt verbatim
func (s *Store) SetPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = text
}

// BeginGeneration marks a generation in flight and drops the previous result.
// A second call while one is in flight is not rejected.
func (s *Store) BeginGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = nil
	s.generating = true
}

// EndGeneration clears the in-flight flag
func (s *Store) EndGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
}

// SetResult replaces the current result URL
func (s *Store) SetResult(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &url
}

// ClearResult removes the current result
func (s *Store) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = nil
}

// RecordHistory prepends a new entry and drops anything past MaxHistory
func (s *Store) RecordHistory(url, prompt, modelName string) models.HistoryEntry {
	entry := models.HistoryEntry{
		ID:        s.newID(),
		URL:       url,
		Prompt:    prompt,
		Model:     modelName,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keep := len(s.history)
	if keep > MaxHistory-1 {
		keep = MaxHistory - 1
	}
	history := make([]models.HistoryEntry, 0, keep+1)
	history = append(history, entry)
	history = append(history, s.history[:keep]...)
	s.history = history
	return entry
}

// ClearHistory removes every history entry
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// HistoryEntry looks up a past generation by id
func (s *Store) HistoryEntry(id string) (models.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.history {
		if e.ID == id {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// IsGenerating reports whether a generation is in flight
func (s *Store) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	config := make(map[string]any, len(s.config))
	for k, v := range s.config {
		config[k] = v
	}

	var result *string
	if s.result != nil {
		url := *s.result
		result = &url
	}

	return State{
		Model:        s.model,
		Config:       config,
		Prompt:       s.prompt,
		IsGenerating: s.generating,
		ResultURL:    result,
		History:      append([]models.HistoryEntry{}, s.history...),
	}
}
