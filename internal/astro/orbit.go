package astro

import (
	"errors"
	"fmt"
	"math"
)

// MaxEccentricity is the upper clamp applied before solving Kepler's equation.
const MaxEccentricity = 0.95

// DefaultTrailStepDays is the spacing between trail samples.
const DefaultTrailStepDays = 1.0

// maxTrailDays caps how far back a trail reaches.
const maxTrailDays = 90.0

// ErrInvalidElements is wrapped by every OrbitalElements validation failure.
var ErrInvalidElements = errors.New("invalid orbital elements")

// OrbitalElements describes a heliocentric elliptical orbit.
//
// Mean anomaly is not stored: every body has M = 0 at the J2000 reference
// epoch, so the whole population is phase-locked there.
type OrbitalElements struct {
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	SemiMajorAU     float64 `json:"a"`
	Eccentricity    float64 `json:"e"`
	PeriodDays      float64 `json:"period_days"`
	InclinationDeg  float64 `json:"inclination_deg"`
	ArgPeriapsisDeg float64 `json:"arg_periapsis_deg"`
	LongAscNodeDeg  float64 `json:"long_asc_node_deg"`

	// Optional physical data, used for display sizing only.
	MassKg      float64 `json:"mass_kg,omitempty"`
	DensityKgM3 float64 `json:"density_kg_m3,omitempty"`
}

// Validate rejects elements the propagator cannot use. Eccentricity outside
// [0, 1) is an error; values in [0.95, 1) are accepted and clamped later.
func (el OrbitalElements) Validate() error {
	if el.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidElements)
	}
	if !(el.SemiMajorAU > 0) || math.IsInf(el.SemiMajorAU, 0) {
		return fmt.Errorf("%w: %s: semi-major axis must be > 0, got %v", ErrInvalidElements, el.Name, el.SemiMajorAU)
	}
	if !(el.Eccentricity >= 0 && el.Eccentricity < 1) {
		return fmt.Errorf("%w: %s: eccentricity must be in [0, 1), got %v", ErrInvalidElements, el.Name, el.Eccentricity)
	}
	if !(el.PeriodDays > 0) || math.IsInf(el.PeriodDays, 0) {
		return fmt.Errorf("%w: %s: period must be > 0, got %v", ErrInvalidElements, el.Name, el.PeriodDays)
	}
	for _, a := range []float64{el.InclinationDeg, el.ArgPeriapsisDeg, el.LongAscNodeDeg} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("%w: %s: orientation angles must be finite", ErrInvalidElements, el.Name)
		}
	}
	if el.MassKg < 0 || el.DensityKgM3 < 0 {
		return fmt.Errorf("%w: %s: mass and density must not be negative", ErrInvalidElements, el.Name)
	}
	return nil
}

// ClampEccentricity limits e to [0, MaxEccentricity].
func ClampEccentricity(e float64) float64 {
	if e < 0 {
		return 0
	}
	if e > MaxEccentricity {
		return MaxEccentricity
	}
	return e
}

// MeanMotion returns the mean motion in radians per day.
func MeanMotion(periodDays float64) float64 {
	return 2 * math.Pi / periodDays
}

// MeanAnomaly returns M = n·t reduced modulo 2π, t in days since J2000.
func MeanAnomaly(el OrbitalElements, tDays float64) float64 {
	return math.Mod(MeanMotion(el.PeriodDays)*tDays, 2*math.Pi)
}

// PerifocalPosition returns the position in the orbital plane, periapsis on +X.
func PerifocalPosition(a, e, M float64) Vec3 {
	E := SolveKepler(M, e)
	sinE, cosE := math.Sincos(E)
	r := a * (1 - e*cosE)
	nu := math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	sinNu, cosNu := math.Sincos(nu)
	return Vec3{X: r * cosNu, Y: r * sinNu, Z: 0}
}

// Position returns the heliocentric ecliptic position in AU at tDays since J2000.
func Position(el OrbitalElements, tDays float64) Vec3 {
	e := ClampEccentricity(el.Eccentricity)
	p := PerifocalPosition(el.SemiMajorAU, e, MeanAnomaly(el, tDays))
	return orient(p, el)
}

// orient applies ω about Z, then i about X, then Ω about Z. The order matters.
func orient(p Vec3, el OrbitalElements) Vec3 {
	p = RotateZ(p, degToRad(el.ArgPeriapsisDeg))
	p = RotateX(p, degToRad(el.InclinationDeg))
	p = RotateZ(p, degToRad(el.LongAscNodeDeg))
	return p
}

// DefaultTrailSpan returns how many days of history a body's trail covers.
func DefaultTrailSpan(el OrbitalElements) float64 {
	return math.Min(0.8*el.PeriodDays, maxTrailDays)
}

// Trail returns positions from tDays-spanDays up to tDays inclusive, oldest
// first. Each point is a fresh evaluation of Position.
func Trail(el OrbitalElements, tDays, spanDays, stepDays float64) []Vec3 {
	if stepDays <= 0 || spanDays < 0 {
		return nil
	}
	n := int(math.Floor(spanDays / stepDays))
	pts := make([]Vec3, 0, n+1)
	for j := n; j >= 0; j-- {
		pts = append(pts, Position(el, tDays-float64(j)*stepDays))
	}
	return pts
}

// OrbitPath samples one full revolution at evenly spaced mean anomalies.
// The returned slice has samples+1 points; the last closes the loop.
func OrbitPath(el OrbitalElements, samples int) []Vec3 {
	if samples <= 0 {
		return nil
	}
	e := ClampEccentricity(el.Eccentricity)
	rot := Orientation(el)
	pts := make([]Vec3, 0, samples+1)
	for j := 0; j <= samples; j++ {
		M := float64(j) / float64(samples) * 2 * math.Pi
		pts = append(pts, MulVec(rot, PerifocalPosition(el.SemiMajorAU, e, M)))
	}
	return pts
}
