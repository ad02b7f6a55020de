// Package astro provides the orbital propagator, frame rotations and projections.
package astro

import (
	"fmt"
	"math"
	"time"
)

// AU is the Astronomical Unit in kilometers.
const AU = 149597870.7

// LightSecondsPerAU is the one-way light travel time across 1 AU.
const LightSecondsPerAU = 499.005

// Vec3 is a position in AU. Unless noted it is heliocentric, in the J2000
// ecliptic frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v − u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Distance returns |a − b| in the units of its arguments.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// RotateZ rotates v counter-clockwise about the Z axis by ang radians.
func RotateZ(v Vec3, ang float64) Vec3 {
	s, c := math.Sincos(ang)
	return Vec3{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}

// RotateX rotates v counter-clockwise about the X axis by ang radians.
func RotateX(v Vec3, ang float64) Vec3 {
	s, c := math.Sincos(ang)
	return Vec3{X: v.X, Y: c*v.Y - s*v.Z, Z: s*v.Y + c*v.Z}
}

// Ecliptic is a direction in ecliptic coordinates, in degrees.
type Ecliptic struct {
	LonDeg float64 `json:"lon_deg"` // 0-360
	LatDeg float64 `json:"lat_deg"` // -90 to +90
}

// EclipticOf returns the direction of v as seen from the origin. The zero
// vector maps to 0, 0.
func EclipticOf(v Vec3) Ecliptic {
	r := v.Norm()
	if r == 0 {
		return Ecliptic{}
	}
	return Ecliptic{
		LonDeg: normalizeAngle360(radToDeg(math.Atan2(v.Y, v.X))),
		LatDeg: radToDeg(math.Asin(v.Z / r)),
	}
}

// AUToKm converts Astronomical Units to kilometers.
func AUToKm(au float64) float64 {
	return au * AU
}

// LightTime returns the one-way light travel time over a distance in AU.
func LightTime(au float64) time.Duration {
	return time.Duration(au * LightSecondsPerAU * float64(time.Second))
}

// FormatLightTime renders a light time as "12.3s", "8m19s" or "4h2m".
func FormatLightTime(d time.Duration) string {
	secs := d.Seconds()
	switch {
	case secs < 60:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm%ds", int(secs/60), int(secs)%60)
	}
	return fmt.Sprintf("%dh%dm", int(secs/3600), (int(secs)%3600)/60)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
