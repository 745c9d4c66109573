package models

import (
	"fmt"
	"math"
	"reflect"
)

// ParameterKind identifies how a parameter is edited and constrained
type ParameterKind string

const (
	KindRange  ParameterKind = "range"  // Continuous slider with min/max/step
	KindChoice ParameterKind = "choice" // Select from a fixed option list
	KindNumber ParameterKind = "number" // Free numeric input, optional bounds
	KindText   ParameterKind = "text"   // Free text input
)

// stepTolerance absorbs float error when checking step alignment (e.g. 3.5 with step 0.1)
const stepTolerance = 1e-9

// Option is one entry of a choice parameter
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// ParameterSpec describes one tunable parameter of a model
type ParameterSpec struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Kind    ParameterKind `json:"type"`
	Default any           `json:"default"`

	// Range / number bounds. Nil means unbounded.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// Choice options, in display order
	Options []Option `json:"options,omitempty"`
}

// ModelDefinition is an immutable catalog entry
type ModelDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters"`
}

// Defaults returns a fresh config holding every parameter's default value
func (m ModelDefinition) Defaults() map[string]any {
	config := make(map[string]any, len(m.Parameters))
	for _, p := range m.Parameters {
		config[p.ID] = p.Default
	}
	return config
}

// Parameter returns the parameter with the given id
func (m ModelDefinition) Parameter(id string) (ParameterSpec, bool) {
	for _, p := range m.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Admits reports whether value satisfies the parameter's constraints.
// The generation store never calls this; it exists for catalog validation
// and for callers that want to check input before storing it.
func (p ParameterSpec) Admits(value any) bool {
	switch p.Kind {
	case KindChoice:
		for _, opt := range p.Options {
			if sameValue(opt.Value, value) {
				return true
			}
		}
		return false

	case KindRange, KindNumber:
		f, ok := ToFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		if p.Min != nil && f < *p.Min {
			return false
		}
		if p.Max != nil && f > *p.Max {
			return false
		}
		if p.Kind == KindRange && p.Step != nil && *p.Step > 0 {
			base := 0.0
			if p.Min != nil {
				base = *p.Min
			}
			steps := (f - base) / *p.Step
			if math.Abs(steps-math.Round(steps)) > stepTolerance*math.Max(1, math.Abs(steps)) {
				return false
			}
		}
		return true

	case KindText:
		_, ok := value.(string)
		return ok

	default:
		return false
	}
}

// Check returns a descriptive error when the default violates the parameter's own constraints
func (p ParameterSpec) Check() error {
	switch p.Kind {
	case KindRange:
		if p.Min == nil || p.Max == nil {
			return fmt.Errorf("parameter %q: range requires min and max", p.ID)
		}
		if *p.Min > *p.Max {
			return fmt.Errorf("parameter %q: min %v greater than max %v", p.ID, *p.Min, *p.Max)
		}
	case KindChoice:
		if len(p.Options) == 0 {
			return fmt.Errorf("parameter %q: choice has no options", p.ID)
		}
	case KindNumber, KindText:
	default:
		return fmt.Errorf("parameter %q: unknown kind %q", p.ID, p.Kind)
	}

	if !p.Admits(p.Default) {
		return fmt.Errorf("parameter %q: default %v violates its constraints", p.ID, p.Default)
	}
	return nil
}

// ToFloat converts the numeric types that reach a config map (JSON decoding yields float64)
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func sameValue(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}
