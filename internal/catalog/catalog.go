// Package catalog holds the fixed list of image generation models the studio offers.
package catalog

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/image-studio/internal/models"
)

// Model IDs
const (
	ModelFlux1Dev      = "flux-1-dev"
	ModelFlux1Schnell  = "flux-1-schnell"
	ModelSD35Large     = "stable-diffusion-3.5-large"
	paramAspectRatio   = "aspect_ratio"
	defaultAspectRatio = "1:1"
)

func ptr(v float64) *float64 { return &v }

func aspectRatio() models.ParameterSpec {
	return models.ParameterSpec{
		ID:      paramAspectRatio,
		Label:   "Aspect Ratio",
		Kind:    models.KindChoice,
		Default: defaultAspectRatio,
		Options: []models.Option{
			{Label: "Square (1:1)", Value: "1:1"},
			{Label: "Portrait (2:3)", Value: "2:3"},
			{Label: "Landscape (3:2)", Value: "3:2"},
		},
	}
}

// entries is built once; accessors hand out copies so callers cannot mutate it
var entries = []models.ModelDefinition{
	{
		ID:          ModelFlux1Dev,
		Name:        "Flux.1 Dev",
		Description: "High-quality base model for precise generation",
		Parameters: []models.ParameterSpec{
			aspectRatio(),
			{ID: "num_outputs", Label: "Number of Images", Kind: models.KindNumber, Default: 1.0, Min: ptr(1), Max: ptr(4)},
			{ID: "guidance_scale", Label: "Guidance Scale", Kind: models.KindRange, Default: 3.5, Min: ptr(1), Max: ptr(10), Step: ptr(0.1)},
			{ID: "num_inference_steps", Label: "Steps", Kind: models.KindRange, Default: 28.0, Min: ptr(1), Max: ptr(50)},
		},
	},
	{
		ID:          ModelFlux1Schnell,
		Name:        "Flux.1 Schnell",
		Description: "Ultra-fast generation model",
		Parameters: []models.ParameterSpec{
			aspectRatio(),
			{ID: "num_inference_steps", Label: "Steps (Speed)", Kind: models.KindRange, Default: 4.0, Min: ptr(1), Max: ptr(12)},
		},
	},
	{
		ID:          ModelSD35Large,
		Name:        "SD 3.5 Large",
		Description: "Latest Stable Diffusion model",
		Parameters: []models.ParameterSpec{
			aspectRatio(),
			{ID: "cfg_scale", Label: "CFG Scale", Kind: models.KindRange, Default: 7.5, Min: ptr(1), Max: ptr(20)},
			{ID: "steps", Label: "Steps", Kind: models.KindRange, Default: 30.0, Min: ptr(1), Max: ptr(100)},
		},
	},
}

// Models returns every catalog entry in display order
func Models() []models.ModelDefinition {
	out := make([]models.ModelDefinition, len(entries))
	for i, m := range entries {
		out[i] = clone(m)
	}
	return out
}

// Default returns the first catalog entry
func Default() models.ModelDefinition {
	return clone(entries[0])
}

// Lookup returns the model with the given id.
// Unknown ids resolve to the first entry; lookup never fails.
func Lookup(id string) models.ModelDefinition {
	m, _ := Find(id)
	return m
}

// Find is Lookup that also reports whether the id was known
func Find(id string) (models.ModelDefinition, bool) {
	for _, m := range entries {
		if m.ID == id {
			return clone(m), true
		}
	}
	return Default(), false
}

// Validate checks id uniqueness and that every default satisfies its parameter constraints
func Validate() error {
	return validate(entries)
}

func validate(defs []models.ModelDefinition) error {
	if len(defs) == 0 {
		return errors.New("catalog is empty")
	}

	var errs []error
	seenModels := make(map[string]bool, len(defs))
	for _, m := range defs {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("model %q: empty id", m.Name))
		}
		if seenModels[m.ID] {
			errs = append(errs, fmt.Errorf("model %q: duplicate id", m.ID))
		}
		seenModels[m.ID] = true

		seenParams := make(map[string]bool, len(m.Parameters))
		for _, p := range m.Parameters {
			if seenParams[p.ID] {
				errs = append(errs, fmt.Errorf("model %q: duplicate parameter %q", m.ID, p.ID))
			}
			seenParams[p.ID] = true

			if err := p.Check(); err != nil {
				errs = append(errs, fmt.Errorf("model %q: %w", m.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func clone(m models.ModelDefinition) models.ModelDefinition {
	params := make([]models.ParameterSpec, len(m.Parameters))
	for i, p := range m.Parameters {
		if p.Options != nil {
			p.Options = append([]models.Option(nil), p.Options...)
		}
		params[i] = p
	}
	m.Parameters = params
	return m
}
