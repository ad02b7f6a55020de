package impact

import "strings"

// DefaultAngleDeg is the impact angle used when neither a preset nor the
// caller supplies one.
const DefaultAngleDeg = 45.0

// Scenario is a partially specified impact: an optional preset or material
// plus explicit overrides. Nil fields fall back to the preset, then to the
// material density and DefaultAngleDeg.
type Scenario struct {
	Preset         string   `json:"preset,omitempty"`
	Material       string   `json:"material,omitempty"`
	DiameterM      *float64 `json:"diameter_m,omitempty"`
	DensityKgM3    *float64 `json:"density_kg_m3,omitempty"`
	VelocityKmS    *float64 `json:"velocity_km_s,omitempty"`
	ImpactAngleDeg *float64 `json:"impact_angle_deg,omitempty"`
	Target         string   `json:"target,omitempty"`
}

// Resolve merges the scenario into concrete parameters and validates them.
func (s Scenario) Resolve() (Params, error) {
	p := Params{ImpactAngleDeg: DefaultAngleDeg, Target: Land}
	if name := strings.TrimSpace(s.Preset); name != "" {
		preset, ok := LookupPreset(name)
		if !ok {
			return Params{}, &ValidationError{Field: "preset", Value: s.Preset, Reason: "unknown preset"}
		}
		p = preset
	}
	if s.Material != "" {
		m, err := ParseMaterial(s.Material)
		if err != nil {
			return Params{}, err
		}
		p.DensityKgM3 = m.Density()
	}
	if s.DiameterM != nil {
		p.DiameterM = *s.DiameterM
	}
	if s.DensityKgM3 != nil {
		p.DensityKgM3 = *s.DensityKgM3
	}
	if s.VelocityKmS != nil {
		p.VelocityKmS = *s.VelocityKmS
	}
	if s.ImpactAngleDeg != nil {
		p.ImpactAngleDeg = *s.ImpactAngleDeg
	}
	if s.Target != "" {
		t, err := ParseMedium(s.Target)
		if err != nil {
			return Params{}, err
		}
		p.Target = t
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
