package astro

import (
	"errors"
	"math"
	"testing"
)

var testEarth = OrbitalElements{
	Name: "Earth", SemiMajorAU: 1.0, Eccentricity: 0.0167, PeriodDays: 365.256,
	InclinationDeg: 0, ArgPeriapsisDeg: 114.2, LongAscNodeDeg: -11.3,
}

var testDidymos = OrbitalElements{
	Name: "Didymos", SemiMajorAU: 1.644, Eccentricity: 0.38, PeriodDays: 771.0,
	InclinationDeg: 3.4, ArgPeriapsisDeg: 140, LongAscNodeDeg: 73,
}

func TestPositionAtEpochIsPeriapsis(t *testing.T) {
	// M = 0 at J2000 for every body, so r = a(1 − e).
	for _, el := range []OrbitalElements{testEarth, testDidymos} {
		p := Position(el, 0)
		want := el.SemiMajorAU * (1 - el.Eccentricity)
		if math.Abs(p.Norm()-want) > 1e-12 {
			t.Errorf("%s: |r| at epoch = %v, want %v", el.Name, p.Norm(), want)
		}
	}
}

func TestPositionPeriodic(t *testing.T) {
	for _, el := range []OrbitalElements{testEarth, testDidymos} {
		for _, tDays := range []float64{0, 17.3, 400, -1234.5, 9125} {
			a := Position(el, tDays)
			b := Position(el, tDays+el.PeriodDays)
			if !vecClose(a, b, 1e-9) {
				t.Errorf("%s t=%v: %v vs %v after one period", el.Name, tDays, a, b)
			}
		}
	}
}

func TestPositionCircularEquatorial(t *testing.T) {
	el := OrbitalElements{Name: "ring", SemiMajorAU: 2, PeriodDays: 100}
	p := Position(el, 25) // quarter turn
	want := Vec3{0, 2, 0}
	if !vecClose(p, want, 1e-12) {
		t.Errorf("Position = %v, want %v", p, want)
	}
}

func TestPositionRotationOrder(t *testing.T) {
	// At periapsis (t = 0) the perifocal vector is (q, 0, 0). With ω = 90°,
	// i = 90°, Ω = 0 the composition ω → i → Ω sends it to +Z. Applying the
	// rotations in reverse order would leave it on +Y.
	el := OrbitalElements{
		Name: "polar", SemiMajorAU: 1, PeriodDays: 365,
		InclinationDeg: 90, ArgPeriapsisDeg: 90, LongAscNodeDeg: 0,
	}
	p := Position(el, 0)
	if !vecClose(p, Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("Position = %v, want +Z", p)
	}
}

func TestPositionRadiusBounds(t *testing.T) {
	el := testDidymos
	q := el.SemiMajorAU * (1 - el.Eccentricity)
	Q := el.SemiMajorAU * (1 + el.Eccentricity)
	for d := 0.0; d < el.PeriodDays; d += 7 {
		r := Position(el, d).Norm()
		if r < q-1e-9 || r > Q+1e-9 {
			t.Fatalf("t=%v: r=%v outside [%v, %v]", d, r, q, Q)
		}
	}
}

func TestPositionClampsEccentricity(t *testing.T) {
	hi := OrbitalElements{Name: "hi", SemiMajorAU: 1, Eccentricity: 0.99, PeriodDays: 365}
	clamped := hi
	clamped.Eccentricity = MaxEccentricity
	for _, d := range []float64{0, 30, 180} {
		if a, b := Position(hi, d), Position(clamped, d); a != b {
			t.Errorf("t=%v: e=0.99 gave %v, e=0.95 gave %v", d, a, b)
		}
	}
}

func TestClampEccentricity(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.1, 0},
		{0, 0},
		{0.5, 0.5},
		{0.95, 0.95},
		{0.99, 0.95},
	}
	for _, tt := range tests {
		if got := ClampEccentricity(tt.in); got != tt.want {
			t.Errorf("ClampEccentricity(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OrbitalElements)
		wantErr bool
	}{
		{"valid", func(*OrbitalElements) {}, false},
		{"empty name", func(el *OrbitalElements) { el.Name = "" }, true},
		{"zero a", func(el *OrbitalElements) { el.SemiMajorAU = 0 }, true},
		{"NaN a", func(el *OrbitalElements) { el.SemiMajorAU = math.NaN() }, true},
		{"negative e", func(el *OrbitalElements) { el.Eccentricity = -0.01 }, true},
		{"parabolic", func(el *OrbitalElements) { el.Eccentricity = 1 }, true},
		{"e near one ok", func(el *OrbitalElements) { el.Eccentricity = 0.97 }, false},
		{"zero period", func(el *OrbitalElements) { el.PeriodDays = 0 }, true},
		{"infinite angle", func(el *OrbitalElements) { el.InclinationDeg = math.Inf(1) }, true},
		{"angle beyond 360 ok", func(el *OrbitalElements) { el.LongAscNodeDeg = 725 }, false},
		{"negative mass", func(el *OrbitalElements) { el.MassKg = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := testDidymos
			tt.mutate(&el)
			err := el.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidElements) {
					t.Errorf("error %v does not wrap ErrInvalidElements", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTrail(t *testing.T) {
	el := testEarth
	pts := Trail(el, 100, 10, 1)
	if len(pts) != 11 {
		t.Fatalf("len(Trail) = %d, want 11", len(pts))
	}
	if pts[len(pts)-1] != Position(el, 100) {
		t.Errorf("last trail point %v != current position", pts[len(pts)-1])
	}
	if pts[0] != Position(el, 90) {
		t.Errorf("first trail point %v != position 10 days earlier", pts[0])
	}
	if Trail(el, 0, 10, 0) != nil {
		t.Error("expected nil trail for zero step")
	}
}

func TestDefaultTrailSpan(t *testing.T) {
	mercury := OrbitalElements{PeriodDays: 87.969}
	if got := DefaultTrailSpan(mercury); math.Abs(got-0.8*87.969) > 1e-12 {
		t.Errorf("DefaultTrailSpan(Mercury) = %v", got)
	}
	if got := DefaultTrailSpan(testEarth); got != 90 {
		t.Errorf("DefaultTrailSpan(Earth) = %v, want 90", got)
	}
}

func TestOrbitPathMatchesPosition(t *testing.T) {
	el := testDidymos
	const samples = 8
	path := OrbitPath(el, samples)
	if len(path) != samples+1 {
		t.Fatalf("len(OrbitPath) = %d, want %d", len(path), samples+1)
	}
	for j, p := range path {
		tDays := float64(j) / samples * el.PeriodDays
		if want := Position(el, tDays); !vecClose(p, want, 1e-9) {
			t.Errorf("sample %d = %v, want %v", j, p, want)
		}
	}
	if !vecClose(path[0], path[samples], 1e-9) {
		t.Errorf("path not closed: %v vs %v", path[0], path[samples])
	}
}

func TestOrientationMatchesSequentialRotations(t *testing.T) {
	el := OrbitalElements{InclinationDeg: 23, ArgPeriapsisDeg: -40, LongAscNodeDeg: 200}
	v := Vec3{0.3, -1.2, 0.7}
	got := MulVec(Orientation(el), v)
	want := orient(v, el)
	if !vecClose(got, want, 1e-12) {
		t.Errorf("Orientation·v = %v, sequential = %v", got, want)
	}
}
