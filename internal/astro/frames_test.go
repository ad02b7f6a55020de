package astro

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func vecClose(a, b Vec3, tol float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) &&
		scalar.EqualWithinAbs(a.Y, b.Y, tol) &&
		scalar.EqualWithinAbs(a.Z, b.Z, tol)
}

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{1, 0, 0}, 1},
		{"3-4-5", Vec3{3, 4, 0}, 5},
		{"negative", Vec3{-3, -4, 0}, 5},
		{"3D", Vec3{1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Norm()
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 6, 3}
	if d := Distance(a, b); math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if d := Distance(b, a); math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance is not symmetric: %v", d)
	}
}

func TestRotateZ(t *testing.T) {
	got := RotateZ(Vec3{1, 0, 0.5}, math.Pi/2)
	want := Vec3{0, 1, 0.5}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("RotateZ(+X, 90°) = %v, want %v", got, want)
	}
}

func TestRotateX(t *testing.T) {
	got := RotateX(Vec3{0.5, 1, 0}, math.Pi/2)
	want := Vec3{0.5, 0, 1}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("RotateX(+Y, 90°) = %v, want %v", got, want)
	}
}

func TestEclipticOf(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Ecliptic
	}{
		{"zero", Vec3{}, Ecliptic{}},
		{"+X", Vec3{2, 0, 0}, Ecliptic{0, 0}},
		{"-Y raised", Vec3{0, -1, 1}, Ecliptic{270, 45}},
		{"north pole", Vec3{0, 0, 3}, Ecliptic{0, 90}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EclipticOf(tt.v)
			if !scalar.EqualWithinAbs(got.LonDeg, tt.want.LonDeg, 1e-9) ||
				!scalar.EqualWithinAbs(got.LatDeg, tt.want.LatDeg, 1e-9) {
				t.Errorf("EclipticOf(%v) = %+v, want %+v", tt.v, got, tt.want)
			}
		})
	}
}

func TestLightTime(t *testing.T) {
	if got := LightTime(1); (got - 499005*time.Millisecond).Abs() > time.Microsecond {
		t.Errorf("LightTime(1 AU) = %v", got)
	}
	if got := AUToKm(LightTime(2).Seconds() / LightSecondsPerAU); math.Abs(got-2*AU) > 1 {
		t.Errorf("round trip = %v km, want %v", got, 2*AU)
	}

	tests := []struct {
		d    time.Duration
		want string
	}{
		{12340 * time.Millisecond, "12.3s"},
		{LightTime(1), "8m19s"},
		{4*time.Hour + 2*time.Minute, "4h2m"},
	}
	for _, tt := range tests {
		if got := FormatLightTime(tt.d); got != tt.want {
			t.Errorf("FormatLightTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
