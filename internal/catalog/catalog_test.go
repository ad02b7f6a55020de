package catalog

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/litescript/ls-impact/internal/astro"
)

func custom(name string) astro.OrbitalElements {
	return astro.OrbitalElements{Name: name, SemiMajorAU: 1.2, Eccentricity: 0.1, PeriodDays: 500}
}

func TestBuiltinsValid(t *testing.T) {
	c := New()
	bodies := c.Bodies()
	if len(bodies) != len(Planets)+len(Asteroids) {
		t.Fatalf("len(Bodies) = %d, want %d", len(bodies), len(Planets)+len(Asteroids))
	}
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			t.Errorf("%s: %v", b.Name, err)
		}
		if b.Color == "" {
			t.Errorf("%s has no color", b.Name)
		}
	}
	if bodies[0].Name != "Mercury" || bodies[0].Kind != KindPlanet {
		t.Errorf("first body = %s/%s, want Mercury/planet", bodies[0].Name, bodies[0].Kind)
	}
	if last := bodies[len(bodies)-1]; last.Name != "16 Psyche" || last.Kind != KindAsteroid {
		t.Errorf("last body = %s/%s, want 16 Psyche/asteroid", last.Name, last.Kind)
	}
}

func TestAddReplacesByName(t *testing.T) {
	c := New()
	if _, err := c.Add(custom("Rock")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Add(custom("Pebble")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	upd := custom("Rock")
	upd.SemiMajorAU = 2.0
	if _, err := c.Add(upd); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := c.Custom()
	if len(got) != 2 {
		t.Fatalf("len(Custom) = %d, want 2", len(got))
	}
	// Replacement moves the body to the end, as a fresh insert.
	if got[0].Name != "Pebble" || got[1].Name != "Rock" || got[1].SemiMajorAU != 2.0 {
		t.Errorf("Custom = %+v", got)
	}
}

func TestAddAppliesDefaults(t *testing.T) {
	c := New()
	el := custom(" Speck ")
	el.SemiMajorAU = 0.05
	el.PeriodDays = 2
	b, err := c.Add(el)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if b.Name != "Speck" {
		t.Errorf("Name = %q, want trimmed", b.Name)
	}
	if b.SemiMajorAU != MinCustomSemiMajorAU || b.PeriodDays != MinCustomPeriodDays {
		t.Errorf("floors not applied: a=%v P=%v", b.SemiMajorAU, b.PeriodDays)
	}
	if b.Color != ColorHash("Speck") {
		t.Errorf("Color = %q, want %q", b.Color, ColorHash("Speck"))
	}
	if b.Kind != KindCustom {
		t.Errorf("Kind = %v, want custom", b.Kind)
	}
}

func TestAddRejects(t *testing.T) {
	c := New()
	tests := []struct {
		name    string
		el      astro.OrbitalElements
		wantErr error
	}{
		{"builtin", custom("Earth"), ErrBuiltin},
		{"builtin any case", custom("bennu"), ErrBuiltin},
		{"hyperbolic", func() astro.OrbitalElements { e := custom("X"); e.Eccentricity = 1.2; return e }(), astro.ErrInvalidElements},
		{"empty name", custom("   "), astro.ErrInvalidElements},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Add(tt.el)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Add error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if n := len(c.Custom()); n != 0 {
		t.Errorf("rejected adds left %d custom bodies", n)
	}
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(custom("Rock"))

	if err := c.Remove("Mars"); !errors.Is(err, ErrBuiltin) {
		t.Errorf("Remove(Mars) = %v, want ErrBuiltin", err)
	}
	if err := c.Remove("Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(Nope) = %v, want ErrNotFound", err)
	}
	if err := c.Remove("Rock"); err != nil {
		t.Errorf("Remove(Rock) = %v", err)
	}
	if _, err := c.Get("Rock"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after remove = %v, want ErrNotFound", err)
	}
}

func TestGet(t *testing.T) {
	c := New()
	b, err := c.Get("didymos")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.Name != "Didymos" || b.SemiMajorAU != 1.644 {
		t.Errorf("Get(didymos) = %+v", b)
	}
}

func TestCatalogConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Add(custom("Shared"))
		}()
		go func() {
			defer wg.Done()
			_ = c.Bodies()
		}()
	}
	wg.Wait()
	if n := len(c.Custom()); n != 1 {
		t.Errorf("len(Custom) = %d, want 1", n)
	}
}

func TestDisplayRadius(t *testing.T) {
	tests := []struct {
		name string
		b    Body
		want float64
	}{
		{"earth", Body{OrbitalElements: astro.OrbitalElements{Name: "Earth"}, Kind: KindPlanet}, 3.8},
		{"planet", Body{OrbitalElements: astro.OrbitalElements{Name: "Mars"}, Kind: KindPlanet}, 3},
		{"preset asteroid", Body{Kind: KindAsteroid}, 2.4},
		{"tiny custom floors at 2", Body{OrbitalElements: astro.OrbitalElements{MassKg: 1e12, DensityKgM3: 2000}, Kind: KindCustom}, 2},
		{"huge custom caps at 8", Body{OrbitalElements: astro.OrbitalElements{MassKg: 1e20, DensityKgM3: 2000}, Kind: KindCustom}, 8},
		// 10 km radius sphere at 1000 kg/m³.
		{"mid custom", Body{OrbitalElements: astro.OrbitalElements{MassKg: 1000 * 4.0 / 3.0 * math.Pi * 1e12, DensityKgM3: 1000}, Kind: KindCustom}, math.Pow(10, 0.4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.DisplayRadius(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DisplayRadius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorHash(t *testing.T) {
	if got := ColorHash("Custom"); got != "#f5dbc3" {
		t.Errorf("ColorHash(Custom) = %q, want #f5dbc3", got)
	}
	if ColorHash("a") == ColorHash("b") {
		t.Error("distinct names hashed to the same color")
	}
}

func TestBelt(t *testing.T) {
	pts := Belt()
	if len(pts) != BeltPoints {
		t.Fatalf("len(Belt) = %d, want %d", len(pts), BeltPoints)
	}
	for i, p := range pts {
		r := math.Hypot(p.X, p.Y)
		if r < beltInnerAU-1e-9 || r > beltOuterAU+1e-9 {
			t.Fatalf("point %d at r=%v outside belt", i, r)
		}
		if r > kirkwoodLo && r < kirkwoodHi {
			t.Fatalf("point %d at r=%v inside Kirkwood gap", i, r)
		}
		if math.Abs(p.Z) > r*math.Sin(beltMaxInc)+1e-12 {
			t.Fatalf("point %d z=%v exceeds inclination bound", i, p.Z)
		}
	}
	again := GenerateBelt(BeltPoints, beltSeed)
	for i := range again {
		if again[i] != pts[i] {
			t.Fatalf("belt not deterministic at %d", i)
		}
	}
}

func TestOutline(t *testing.T) {
	b, _ := New().Get("Eros")
	pts := Outline(b)
	if len(pts) != OrbitSamples+1 {
		t.Errorf("len(Outline) = %d, want %d", len(pts), OrbitSamples+1)
	}
}
