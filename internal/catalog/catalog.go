// Package catalog holds the built-in and session-defined bodies the orrery tracks.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/litescript/ls-impact/internal/astro"
)

var (
	// ErrNotFound is returned when no body has the requested name.
	ErrNotFound = errors.New("body not found")
	// ErrBuiltin is returned when a custom body would shadow or remove a built-in.
	ErrBuiltin = errors.New("name is reserved by a built-in body")
)

// Kind categorizes bodies for rendering.
type Kind string

const (
	KindPlanet   Kind = "planet"
	KindAsteroid Kind = "asteroid"
	KindCustom   Kind = "custom"
)

// Floors applied to custom bodies so they stay drawable.
const (
	MinCustomSemiMajorAU = 0.2
	MinCustomPeriodDays  = 10.0
)

// Body is a tracked object: its orbit plus how it is drawn.
type Body struct {
	astro.OrbitalElements
	Kind Kind `json:"kind"`
}

// DisplayRadius returns the marker radius in pixels. Custom bodies with mass
// and density are sized from their equivalent sphere.
func (b Body) DisplayRadius() float64 {
	switch b.Kind {
	case KindPlanet:
		if b.Name == "Earth" {
			return 3.8
		}
		return 3
	}
	if b.MassKg > 0 && b.DensityKgM3 > 0 {
		vol := b.MassKg / b.DensityKgM3
		r := math.Cbrt(3 * vol / (4 * math.Pi))
		return math.Max(2, math.Min(8, math.Pow(r/1000, 0.4)))
	}
	return 2.4
}

// Planets are the inner planets, drawn in this order.
var Planets = []astro.OrbitalElements{
	{Name: "Mercury", Color: "#c084fc", SemiMajorAU: 0.3871, Eccentricity: 0.2056, PeriodDays: 87.969, InclinationDeg: 7.0, ArgPeriapsisDeg: 29.1, LongAscNodeDeg: 48.3},
	{Name: "Venus", Color: "#fbbf24", SemiMajorAU: 0.7233, Eccentricity: 0.0068, PeriodDays: 224.701, InclinationDeg: 3.4, ArgPeriapsisDeg: 54.9, LongAscNodeDeg: 76.7},
	{Name: "Earth", Color: "#22c55e", SemiMajorAU: 1.0, Eccentricity: 0.0167, PeriodDays: 365.256, InclinationDeg: 0.0, ArgPeriapsisDeg: 114.2, LongAscNodeDeg: -11.3},
	{Name: "Mars", Color: "#ef4444", SemiMajorAU: 1.5237, Eccentricity: 0.0934, PeriodDays: 686.98, InclinationDeg: 1.85, ArgPeriapsisDeg: 286.5, LongAscNodeDeg: 49.6},
}

// Asteroids are the preset near-Earth and main-belt objects.
var Asteroids = []astro.OrbitalElements{
	{Name: "Apophis", Color: "#f97316", SemiMajorAU: 0.922, Eccentricity: 0.191, PeriodDays: 323.6, InclinationDeg: 3.3, ArgPeriapsisDeg: 35, LongAscNodeDeg: 250},
	{Name: "Itokawa", Color: "#9ca3af", SemiMajorAU: 1.324, Eccentricity: 0.28, PeriodDays: 556.5, InclinationDeg: 1.6, ArgPeriapsisDeg: 120, LongAscNodeDeg: 69},
	{Name: "Bennu", Color: "#fde047", SemiMajorAU: 1.126, Eccentricity: 0.203, PeriodDays: 436.5, InclinationDeg: 6.0, ArgPeriapsisDeg: -20, LongAscNodeDeg: 2},
	{Name: "Ryugu", Color: "#60a5fa", SemiMajorAU: 1.189, Eccentricity: 0.19, PeriodDays: 473.9, InclinationDeg: 5.9, ArgPeriapsisDeg: 60, LongAscNodeDeg: 251},
	{Name: "Eros", Color: "#fb7185", SemiMajorAU: 1.458, Eccentricity: 0.223, PeriodDays: 643.2, InclinationDeg: 10.8, ArgPeriapsisDeg: 15, LongAscNodeDeg: 305},
	{Name: "Didymos", Color: "#34d399", SemiMajorAU: 1.644, Eccentricity: 0.38, PeriodDays: 771.0, InclinationDeg: 3.4, ArgPeriapsisDeg: 140, LongAscNodeDeg: 73},
	{Name: "16 Psyche", Color: "#22d3ee", SemiMajorAU: 2.92, Eccentricity: 0.14, PeriodDays: 1825, InclinationDeg: 3.1, ArgPeriapsisDeg: 75, LongAscNodeDeg: 150},
}

// Catalog is the session's body list. Built-ins are fixed; custom bodies are
// unique by name and kept in insertion order.
type Catalog struct {
	mu     sync.RWMutex
	custom []Body
}

// New returns a catalog containing only the built-ins.
func New() *Catalog {
	return &Catalog{}
}

// Bodies returns planets, preset asteroids, then custom bodies. The slice is a copy.
func (c *Catalog) Bodies() []Body {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Body, 0, len(Planets)+len(Asteroids)+len(c.custom))
	for _, el := range Planets {
		out = append(out, Body{OrbitalElements: el, Kind: KindPlanet})
	}
	for _, el := range Asteroids {
		out = append(out, Body{OrbitalElements: el, Kind: KindAsteroid})
	}
	return append(out, c.custom...)
}

// Custom returns a copy of the custom bodies.
func (c *Catalog) Custom() []Body {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Body, len(c.custom))
	copy(out, c.custom)
	return out
}

// Get looks up a body by case-insensitive name.
func (c *Catalog) Get(name string) (Body, error) {
	for _, b := range c.Bodies() {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return Body{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Add validates el and stores it as a custom body, replacing any existing
// custom body with the same name. A missing color is derived from the name.
func (c *Catalog) Add(el astro.OrbitalElements) (Body, error) {
	el.Name = strings.TrimSpace(el.Name)
	if err := el.Validate(); err != nil {
		return Body{}, err
	}
	if IsBuiltin(el.Name) {
		return Body{}, fmt.Errorf("%w: %q", ErrBuiltin, el.Name)
	}
	el.SemiMajorAU = math.Max(MinCustomSemiMajorAU, el.SemiMajorAU)
	el.PeriodDays = math.Max(MinCustomPeriodDays, el.PeriodDays)
	if el.Color == "" {
		el.Color = ColorHash(el.Name)
	}
	b := Body{OrbitalElements: el, Kind: KindCustom}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.custom {
		if c.custom[i].Name == el.Name {
			c.custom = append(c.custom[:i], c.custom[i+1:]...)
			break
		}
	}
	c.custom = append(c.custom, b)
	return b, nil
}

// Remove deletes the custom body with the given name.
func (c *Catalog) Remove(name string) error {
	if IsBuiltin(name) {
		return fmt.Errorf("%w: %q", ErrBuiltin, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.custom {
		if c.custom[i].Name == name {
			c.custom = append(c.custom[:i], c.custom[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// IsBuiltin reports whether name belongs to a planet or preset asteroid.
func IsBuiltin(name string) bool {
	for _, set := range [][]astro.OrbitalElements{Planets, Asteroids} {
		for _, el := range set {
			if strings.EqualFold(el.Name, strings.TrimSpace(name)) {
				return true
			}
		}
	}
	return false
}

// ColorHash derives a stable mid-brightness hex color from a name.
func ColorHash(name string) string {
	var h uint32
	for _, r := range name {
		h = h*31 + uint32(r)
	}
	r := 100 + (h&0xff)%156
	g := 100 + ((h>>8)&0xff)%156
	b := 100 + ((h>>16)&0xff)%156
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
