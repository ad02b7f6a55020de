package catalog

import (
	"math"
	"sync"

	"github.com/litescript/ls-impact/internal/astro"
)

// Main belt cloud parameters.
const (
	BeltPoints  = 4000
	beltSeed    = 9
	beltInnerAU = 2.2
	beltOuterAU = 3.3
	kirkwoodLo  = 2.48
	kirkwoodHi  = 2.54
	beltMaxInc  = 0.25 // radians
)

// OrbitSamples is the number of segments in a highlighted body's outline.
const OrbitSamples = 720

// lcg is a 32-bit linear congruential generator returning values in [0, 1).
type lcg uint32

func (s *lcg) next() float64 {
	*s = *s*1664525 + 1013904223
	return float64(*s) / (1 << 32)
}

var (
	beltOnce sync.Once
	beltPts  []astro.Vec3
)

// Belt returns the decorative main-belt point cloud. It is generated once from
// a fixed seed and is identical across runs. Callers must not modify it.
func Belt() []astro.Vec3 {
	beltOnce.Do(func() { beltPts = GenerateBelt(BeltPoints, beltSeed) })
	return beltPts
}

// GenerateBelt places n points with r² uniform between the belt edges,
// skipping the 2.48–2.54 AU Kirkwood gap, at small random inclinations.
func GenerateBelt(n int, seed uint32) []astro.Vec3 {
	rng := lcg(seed)
	pts := make([]astro.Vec3, 0, n)
	for i := 0; i < n; i++ {
		var r float64
		for {
			r = math.Sqrt(beltInnerAU*beltInnerAU + (beltOuterAU*beltOuterAU-beltInnerAU*beltInnerAU)*rng.next())
			if !(r > kirkwoodLo && r < kirkwoodHi) {
				break
			}
		}
		ang := rng.next() * 2 * math.Pi
		inc := (rng.next() - 0.5) * 2 * beltMaxInc
		sinA, cosA := math.Sincos(ang)
		pts = append(pts, astro.Vec3{
			X: r * cosA,
			Y: r * sinA,
			Z: r * cosA * math.Sin(inc),
		})
	}
	return pts
}

// Outline returns the full orbit of b for highlighting.
func Outline(b Body) []astro.Vec3 {
	return astro.OrbitPath(b.OrbitalElements, OrbitSamples)
}
