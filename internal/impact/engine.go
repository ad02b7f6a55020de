package impact

import (
	"math"

	"github.com/litescript/ls-impact/internal/astro"
)

// BlastRadii are overpressure ring radii in km.
type BlastRadii struct {
	Severe20Psi  float64 `json:"severe_20psi_km"`
	Moderate5Psi float64 `json:"moderate_5psi_km"`
	Light1Psi    float64 `json:"light_1psi_km"`
}

// TsunamiSeverity buckets a wave height for display.
type TsunamiSeverity string

const (
	TsunamiNone     TsunamiSeverity = "none"
	TsunamiLow      TsunamiSeverity = "low"
	TsunamiModerate TsunamiSeverity = "moderate"
	TsunamiHigh     TsunamiSeverity = "high"
	TsunamiExtreme  TsunamiSeverity = "extreme"
)

// Tsunami describes the ocean response. WaveHeightM is 0 unless IsTsunami.
type Tsunami struct {
	IsTsunami   bool            `json:"is_tsunami"`
	WaveHeightM float64         `json:"wave_height_m"`
	Severity    TsunamiSeverity `json:"severity"`
}

// Result is the full set of derived quantities for one scenario.
type Result struct {
	Params         Params  `json:"params"` // angle after clamping
	MassKg         float64 `json:"mass_kg"`
	EnergyJ        float64 `json:"energy_j"`
	EnergyMegatons float64 `json:"energy_megatons"`

	CraterDiameterKm float64 `json:"crater_diameter_km"`
	CraterDepthKm    float64 `json:"crater_depth_km"`
	EjectaRimM       float64 `json:"ejecta_rim_m"`

	FireballRadiusKm float64    `json:"fireball_radius_km"`
	Blast            BlastRadii `json:"blast_radii"`
	ThermalRadiusKm  float64    `json:"thermal_radius_km"`
	SeismicMagnitude float64    `json:"seismic_magnitude"`
	Tsunami          Tsunami    `json:"tsunami"`
}

// Engine evaluates scenarios against a fixed Constants table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	c Constants
}

// NewEngine validates c and returns an engine bound to it.
func NewEngine(c Constants) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Engine{c: c}, nil
}

// Default returns an engine using DefaultConstants.
func Default() *Engine {
	return &Engine{c: DefaultConstants()}
}

// Constants returns a copy of the engine's table.
func (e *Engine) Constants() Constants {
	return e.c
}

// Evaluate validates p and computes every output. A validation failure is
// returned before any physics runs.
func (e *Engine) Evaluate(p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	c := e.c

	p.ImpactAngleDeg = clamp(p.ImpactAngleDeg, c.MinAngleDeg, c.MaxAngleDeg)
	sinAngle := math.Sin(p.ImpactAngleDeg * math.Pi / 180)

	r := Result{Params: p}
	r.MassKg = SphereMass(p.DiameterM, p.DensityKgM3)

	vMS := p.VelocityKmS * 1000
	r.EnergyJ = 0.5 * r.MassKg * vMS * vMS
	if c.Coupling == CouplingSine {
		r.EnergyJ *= sinAngle
	}
	r.EnergyMegatons = r.EnergyJ / c.JoulesPerMegaton
	y := r.EnergyMegatons

	if p.Target == Land {
		k := c.CraterCoefficient *
			math.Pow(p.DensityKgM3/c.TargetDensityKgM3, c.CraterDensityExp) *
			math.Pow(c.SurfaceGravityMS2, c.CraterGravityExp)
		craterM := k *
			math.Pow(p.DiameterM, c.CraterDiameterExp) *
			math.Pow(vMS, c.CraterVelocityExp) *
			math.Pow(sinAngle, c.CraterAngleExp)
		r.CraterDiameterKm = craterM / 1000
		r.CraterDepthKm = r.CraterDiameterKm * c.CraterDepthRatio
		r.EjectaRimM = math.Max(c.EjectaMinM, c.EjectaRimMPerKm*r.CraterDiameterKm)
	}

	r.FireballRadiusKm = c.FireballCoeffKm * math.Pow(y, c.FireballExp)
	cube := math.Pow(y, c.BlastExp)
	r.Blast = BlastRadii{
		Severe20Psi:  c.Blast20PsiKm * cube,
		Moderate5Psi: c.Blast5PsiKm * cube,
		Light1Psi:    c.Blast1PsiKm * cube,
	}
	r.ThermalRadiusKm = c.ThermalCoeffKm * math.Pow(y, c.ThermalExp)
	r.SeismicMagnitude = c.SeismicSlope*math.Log10(r.EnergyJ) + c.SeismicIntercept

	r.Tsunami = Tsunami{Severity: TsunamiNone}
	if p.Target == Ocean && y > c.TsunamiThresholdMt {
		h := c.TsunamiCoeffM * math.Pow(y, c.TsunamiExp)
		r.Tsunami = Tsunami{IsTsunami: true, WaveHeightM: h, Severity: ClassifyWave(h)}
	}
	return r, nil
}

// Evaluate runs p through the default engine.
func Evaluate(p Params) (Result, error) {
	return Default().Evaluate(p)
}

// SphereMass returns the mass in kg of a sphere of the given diameter and density.
func SphereMass(diameterM, densityKgM3 float64) float64 {
	rad := diameterM / 2
	return densityKgM3 * 4.0 / 3.0 * math.Pi * rad * rad * rad
}

// ClassifyWave buckets a wave height in meters.
func ClassifyWave(heightM float64) TsunamiSeverity {
	switch {
	case heightM <= 0:
		return TsunamiNone
	case heightM < 3:
		return TsunamiLow
	case heightM < 10:
		return TsunamiModerate
	case heightM < 30:
		return TsunamiHigh
	default:
		return TsunamiExtreme
	}
}

// Footprint is one damage ring drawn around the impact site.
type Footprint struct {
	Kind     string       `json:"kind"`
	RadiusKm float64      `json:"radius_km"`
	Ring     []astro.Site `json:"ring"`
}

// Footprints returns great-circle rings for every non-zero radius in r,
// innermost first. n is the number of vertices per ring.
func (r Result) Footprints(site astro.Site, n int) []Footprint {
	radii := []struct {
		kind string
		km   float64
	}{
		{"crater", r.CraterDiameterKm / 2},
		{"fireball", r.FireballRadiusKm},
		{"blast_20psi", r.Blast.Severe20Psi},
		{"blast_5psi", r.Blast.Moderate5Psi},
		{"blast_1psi", r.Blast.Light1Psi},
		{"thermal", r.ThermalRadiusKm},
	}
	var out []Footprint
	for _, rr := range radii {
		if rr.km <= 0 {
			continue
		}
		out = append(out, Footprint{Kind: rr.kind, RadiusKm: rr.km, Ring: astro.Circle(site, rr.km, n)})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
