package impact

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidParams is wrapped by every ValidationError.
var ErrInvalidParams = errors.New("invalid impact parameters")

// Medium is the surface the body strikes.
type Medium string

const (
	Land  Medium = "LAND"
	Ocean Medium = "OCEAN"
)

// ParseMedium accepts "land" or "ocean" in any case.
func ParseMedium(s string) (Medium, error) {
	switch Medium(strings.ToUpper(strings.TrimSpace(s))) {
	case Land:
		return Land, nil
	case Ocean:
		return Ocean, nil
	}
	return "", &ValidationError{Field: "target", Value: s, Reason: "must be LAND or OCEAN"}
}

// Params are the physical inputs for one impact scenario.
type Params struct {
	DiameterM      float64 `json:"diameter_m"`
	DensityKgM3    float64 `json:"density_kg_m3"`
	VelocityKmS    float64 `json:"velocity_km_s"`
	ImpactAngleDeg float64 `json:"impact_angle_deg"`
	Target         Medium  `json:"target"`
}

// ValidationError reports the first offending field of a Params value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers test with errors.Is(err, ErrInvalidParams).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidParams
}

// Validate rejects parameters the engine must never see. Non-positive sizes
// and speeds are caller bugs and are not clamped.
func (p Params) Validate() error {
	checks := []struct {
		field string
		v     float64
	}{
		{"diameter_m", p.DiameterM},
		{"density_kg_m3", p.DensityKgM3},
		{"velocity_km_s", p.VelocityKmS},
	}
	for _, c := range checks {
		if !(c.v > 0) || math.IsInf(c.v, 0) {
			return &ValidationError{Field: c.field, Value: c.v, Reason: "must be positive and finite"}
		}
	}
	if math.IsNaN(p.ImpactAngleDeg) || math.IsInf(p.ImpactAngleDeg, 0) {
		return &ValidationError{Field: "impact_angle_deg", Value: p.ImpactAngleDeg, Reason: "must be finite"}
	}
	if p.Target != Land && p.Target != Ocean {
		return &ValidationError{Field: "target", Value: p.Target, Reason: "must be LAND or OCEAN"}
	}
	return nil
}

// Material is a bulk composition class with a representative density.
type Material string

const (
	Iron   Material = "IRON"
	Stone  Material = "STONE"
	Carbon Material = "CARBON"
)

var materialDensity = map[Material]float64{
	Iron:   8000,
	Stone:  3500,
	Carbon: 2200,
}

// Density returns the material's density in kg/m³, or 0 if unknown.
func (m Material) Density() float64 {
	return materialDensity[m]
}

// ParseMaterial accepts a material name in any case.
func ParseMaterial(s string) (Material, error) {
	m := Material(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := materialDensity[m]; !ok {
		return "", &ValidationError{Field: "material", Value: s, Reason: "must be IRON, STONE or CARBON"}
	}
	return m, nil
}

// Preset is a named, ready-to-launch scenario.
type Preset struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
}

var presets = map[string]Params{
	"apophis":     {DiameterM: 370, DensityKgM3: 3000, VelocityKmS: 7.4, ImpactAngleDeg: 45, Target: Land},
	"bennu":       {DiameterM: 490, DensityKgM3: 1190, VelocityKmS: 12.8, ImpactAngleDeg: 45, Target: Land},
	"chelyabinsk": {DiameterM: 17, DensityKgM3: 3300, VelocityKmS: 19.0, ImpactAngleDeg: 20, Target: Land},
}

// Presets returns the built-in scenarios sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for name, p := range presets {
		out = append(out, Preset{Name: name, Params: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Params, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}
