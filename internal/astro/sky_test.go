package astro

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestEclipticToEquatorial(t *testing.T) {
	// The vernal equinox direction is shared by both frames.
	x := EclipticToEquatorial(Vec3{X: 1})
	if !scalar.EqualWithinAbs(x.X, 1, 1e-12) || !scalar.EqualWithinAbs(x.Y, 0, 1e-12) || !scalar.EqualWithinAbs(x.Z, 0, 1e-12) {
		t.Errorf("X axis moved: %+v", x)
	}

	// The ecliptic pole sits at Dec 90-ε, RA 270.
	pole := RADec(EclipticToEquatorial(Vec3{Z: 1}))
	if !scalar.EqualWithinAbs(pole.DecDeg, 90-ObliquityJ2000Deg, 1e-9) {
		t.Errorf("pole Dec = %v", pole.DecDeg)
	}
	if !scalar.EqualWithinAbs(pole.RADeg, 270, 1e-9) {
		t.Errorf("pole RA = %v", pole.RADeg)
	}

	// Ecliptic longitude 90° reaches the maximum declination +ε.
	solstice := RADec(EclipticToEquatorial(Vec3{Y: 1}))
	if !scalar.EqualWithinAbs(solstice.DecDeg, ObliquityJ2000Deg, 1e-9) || !scalar.EqualWithinAbs(solstice.RADeg, 90, 1e-9) {
		t.Errorf("solstice point = %+v", solstice)
	}
}

func TestRADecZero(t *testing.T) {
	if got := RADec(Vec3{}); got != (Equatorial{}) {
		t.Errorf("RADec(0) = %+v", got)
	}
}

func TestGeocentricAndElongation(t *testing.T) {
	earth := Vec3{X: 1}

	// The Sun seen from Earth at +X lies toward -X: RA 180.
	sun := Geocentric(Vec3{}, earth)
	if !scalar.EqualWithinAbs(sun.RADeg, 180, 1e-9) || !scalar.EqualWithinAbs(sun.DecDeg, 0, 1e-9) {
		t.Errorf("Sun = %+v", sun)
	}

	tests := []struct {
		name string
		body Vec3
		want float64
	}{
		{"opposition", Vec3{X: 2}, 180},
		{"conjunction", Vec3{X: 0.5}, 0},
		{"quadrature", Vec3{X: 1, Y: 1}, 90},
		{"above ecliptic", Vec3{X: 1, Z: 1}, 90},
		{"same place", earth, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Elongation(tt.body, earth)
			if !scalar.EqualWithinAbs(got, tt.want, 1e-6) {
				t.Errorf("Elongation = %.4f°, want %.4f°", got, tt.want)
			}
		})
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name string
		a, b Equatorial
		want float64
		tol  float64
	}{
		{"same point", Equatorial{100, 30}, Equatorial{100, 30}, 0, 0.001},
		{"90 degrees on equator", Equatorial{0, 0}, Equatorial{90, 0}, 90, 0.001},
		{"180 degrees on equator", Equatorial{0, 0}, Equatorial{180, 0}, 180, 0.001},
		{"pole to equator", Equatorial{0, 90}, Equatorial{0, 0}, 90, 0.001},
		{"pole to pole", Equatorial{0, 90}, Equatorial{0, -90}, 180, 0.001},
		{"across RA wrap", Equatorial{359, 0}, Equatorial{1, 0}, 2, 0.001},
		{"small separation", Equatorial{100, 30}, Equatorial{101, 30}, 0.866, 0.01}, // cos(30°)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("AngularSeparation() = %.4f°, want %.4f° (±%.4f)", got, tt.want, tt.tol)
			}
		})
	}
}

func TestGetGlareTier(t *testing.T) {
	tests := []struct {
		elong float64
		want  GlareTier
		label string
	}{
		{5, GlareLost, "glare"},
		{9.9, GlareLost, "glare"},
		{10, GlareCaution, "low"},
		{19.9, GlareCaution, "low"},
		{20, GlareClear, "clear"},
		{180, GlareClear, "clear"},
	}

	for _, tt := range tests {
		got := GetGlareTier(tt.elong)
		if got != tt.want {
			t.Errorf("GetGlareTier(%.1f) = %v, want %v", tt.elong, got, tt.want)
		}
		if got.String() != tt.label {
			t.Errorf("GetGlareTier(%.1f).String() = %q, want %q", tt.elong, got.String(), tt.label)
		}
	}
}
