// Package impact estimates the effects of an asteroid striking the Earth using
// published empirical scaling laws. Results are order-of-magnitude figures.
package impact

import (
	"fmt"
	"math"
)

// Coupling selects how the impact angle attenuates the kinetic energy.
type Coupling string

const (
	CouplingNone Coupling = "none" // full kinetic energy regardless of angle
	CouplingSine Coupling = "sine" // E·sin(angle)
)

// mileKm converts the nuclear-effects blast tables, given in miles, to km.
const mileKm = 1.60934

// Constants holds every coefficient and exponent the engine uses. The
// literature disagrees on exact values, so the whole table is injectable and
// each field can be overridden from config under the impact.* keys.
type Constants struct {
	JoulesPerMegaton float64  `mapstructure:"joules_per_megaton" json:"joules_per_megaton"`
	Coupling         Coupling `mapstructure:"coupling" json:"coupling"`
	MinAngleDeg      float64  `mapstructure:"min_angle_deg" json:"min_angle_deg"`
	MaxAngleDeg      float64  `mapstructure:"max_angle_deg" json:"max_angle_deg"`

	// Crater: C·d^p·v^q·(sin θ)^s with
	// C = CraterCoefficient·(ρi/ρt)^CraterDensityExp·g^CraterGravityExp.
	// d in meters, v in m/s, result in meters.
	CraterCoefficient  float64 `mapstructure:"crater_coefficient" json:"crater_coefficient"`
	CraterDiameterExp  float64 `mapstructure:"crater_diameter_exp" json:"crater_diameter_exp"`
	CraterVelocityExp  float64 `mapstructure:"crater_velocity_exp" json:"crater_velocity_exp"`
	CraterAngleExp     float64 `mapstructure:"crater_angle_exp" json:"crater_angle_exp"`
	CraterDensityExp   float64 `mapstructure:"crater_density_exp" json:"crater_density_exp"`
	CraterGravityExp   float64 `mapstructure:"crater_gravity_exp" json:"crater_gravity_exp"`
	TargetDensityKgM3  float64 `mapstructure:"target_density_kg_m3" json:"target_density_kg_m3"`
	SurfaceGravityMS2  float64 `mapstructure:"surface_gravity_ms2" json:"surface_gravity_ms2"`
	CraterDepthRatio   float64 `mapstructure:"crater_depth_ratio" json:"crater_depth_ratio"`
	EjectaRimMPerKm    float64 `mapstructure:"ejecta_rim_m_per_km" json:"ejecta_rim_m_per_km"`
	EjectaMinM         float64 `mapstructure:"ejecta_min_m" json:"ejecta_min_m"`

	FireballCoeffKm float64 `mapstructure:"fireball_coeff_km" json:"fireball_coeff_km"`
	FireballExp     float64 `mapstructure:"fireball_exp" json:"fireball_exp"`

	Blast20PsiKm float64 `mapstructure:"blast_20psi_km" json:"blast_20psi_km"`
	Blast5PsiKm  float64 `mapstructure:"blast_5psi_km" json:"blast_5psi_km"`
	Blast1PsiKm  float64 `mapstructure:"blast_1psi_km" json:"blast_1psi_km"`
	BlastExp     float64 `mapstructure:"blast_exp" json:"blast_exp"`

	ThermalCoeffKm float64 `mapstructure:"thermal_coeff_km" json:"thermal_coeff_km"`
	ThermalExp     float64 `mapstructure:"thermal_exp" json:"thermal_exp"`

	TsunamiThresholdMt float64 `mapstructure:"tsunami_threshold_mt" json:"tsunami_threshold_mt"`
	TsunamiCoeffM      float64 `mapstructure:"tsunami_coeff_m" json:"tsunami_coeff_m"`
	TsunamiExp         float64 `mapstructure:"tsunami_exp" json:"tsunami_exp"`

	// Gutenberg-Richter style energy to magnitude: slope·log10(E_J) + intercept.
	SeismicSlope     float64 `mapstructure:"seismic_slope" json:"seismic_slope"`
	SeismicIntercept float64 `mapstructure:"seismic_intercept" json:"seismic_intercept"`
}

// DefaultConstants returns the table used when nothing is overridden.
func DefaultConstants() Constants {
	return Constants{
		JoulesPerMegaton: 4.184e15,
		Coupling:         CouplingNone,
		MinAngleDeg:      5,
		MaxAngleDeg:      90,

		CraterCoefficient: 1.161,
		CraterDiameterExp: 0.78,
		CraterVelocityExp: 0.44,
		CraterAngleExp:    1.0 / 3.0,
		CraterDensityExp:  1.0 / 3.0,
		CraterGravityExp:  -0.22,
		TargetDensityKgM3: 2700,
		SurfaceGravityMS2: 9.81,
		CraterDepthRatio:  1.0 / 3.0,
		EjectaRimMPerKm:   10,
		EjectaMinM:        1,

		FireballCoeffKm: 0.3,
		FireballExp:     0.33,

		Blast20PsiKm: 0.18 * mileKm,
		Blast5PsiKm:  0.45 * mileKm,
		Blast1PsiKm:  1.5 * mileKm,
		BlastExp:     1.0 / 3.0,

		ThermalCoeffKm: 13,
		ThermalExp:     0.41,

		TsunamiThresholdMt: 1,
		TsunamiCoeffM:      10,
		TsunamiExp:         0.25,

		SeismicSlope:     0.67,
		SeismicIntercept: -5.87,
	}
}

// Validate checks that the table keeps the laws well defined and the blast
// radii strictly ordered.
func (c Constants) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"joules_per_megaton", c.JoulesPerMegaton},
		{"crater_coefficient", c.CraterCoefficient},
		{"target_density_kg_m3", c.TargetDensityKgM3},
		{"surface_gravity_ms2", c.SurfaceGravityMS2},
		{"fireball_coeff_km", c.FireballCoeffKm},
		{"fireball_exp", c.FireballExp},
		{"blast_20psi_km", c.Blast20PsiKm},
		{"blast_exp", c.BlastExp},
		{"thermal_coeff_km", c.ThermalCoeffKm},
		{"tsunami_coeff_m", c.TsunamiCoeffM},
		{"tsunami_exp", c.TsunamiExp},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("impact constants: %s must be positive and finite, got %v", p.name, p.v)
		}
	}
	if !(c.Blast1PsiKm > c.Blast5PsiKm && c.Blast5PsiKm > c.Blast20PsiKm) {
		return fmt.Errorf("impact constants: blast coefficients must satisfy 1psi > 5psi > 20psi, got %v, %v, %v",
			c.Blast1PsiKm, c.Blast5PsiKm, c.Blast20PsiKm)
	}
	if c.MinAngleDeg <= 0 || c.MaxAngleDeg > 90 || c.MinAngleDeg > c.MaxAngleDeg {
		return fmt.Errorf("impact constants: angle bounds [%v, %v] must lie within (0, 90]", c.MinAngleDeg, c.MaxAngleDeg)
	}
	if c.TsunamiThresholdMt < 0 || c.CraterDepthRatio < 0 || c.EjectaMinM < 0 || c.EjectaRimMPerKm < 0 {
		return fmt.Errorf("impact constants: thresholds and ratios must not be negative")
	}
	switch c.Coupling {
	case CouplingNone, CouplingSine:
	default:
		return fmt.Errorf("impact constants: unknown coupling %q (want %q or %q)", c.Coupling, CouplingNone, CouplingSine)
	}
	return nil
}
