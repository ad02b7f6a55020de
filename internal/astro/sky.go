package astro

import "math"

// ObliquityJ2000Deg is the mean obliquity of the ecliptic at J2000.
const ObliquityJ2000Deg = 23.4392911

// Equatorial holds right ascension and declination in degrees.
type Equatorial struct {
	RADeg  float64 `json:"ra_deg"`  // 0-360
	DecDeg float64 `json:"dec_deg"` // -90 to +90
}

// EclipticToEquatorial rotates an ecliptic J2000 vector into the equatorial frame.
func EclipticToEquatorial(v Vec3) Vec3 {
	return RotateX(v, degToRad(ObliquityJ2000Deg))
}

// RADec returns the direction of an equatorial vector. The zero vector maps
// to RA 0, Dec 0.
func RADec(v Vec3) Equatorial {
	r := v.Norm()
	if r == 0 {
		return Equatorial{}
	}
	return Equatorial{
		RADeg:  normalizeAngle360(radToDeg(math.Atan2(v.Y, v.X))),
		DecDeg: radToDeg(math.Asin(v.Z / r)),
	}
}

// Geocentric returns where a body appears in Earth's sky, given heliocentric
// ecliptic positions of the body and the Earth in AU.
func Geocentric(body, earth Vec3) Equatorial {
	return RADec(EclipticToEquatorial(body.Sub(earth)))
}

// Elongation is the Sun-Earth-body angle in degrees: how far from the Sun a
// body appears in the sky. Small values mean it is lost in solar glare.
func Elongation(body, earth Vec3) float64 {
	if Distance(body, earth) == 0 || earth.Norm() == 0 {
		return 0
	}
	sun := Geocentric(Vec3{}, earth)
	return AngularSeparation(sun, Geocentric(body, earth))
}

// AngularSeparation calculates the angular separation between two points on
// the celestial sphere, in degrees.
func AngularSeparation(a, b Equatorial) float64 {
	ra1, dec1 := degToRad(a.RADeg), degToRad(a.DecDeg)
	ra2, dec2 := degToRad(b.RADeg), degToRad(b.DecDeg)

	// Haversine formula for angular separation
	dRA := ra2 - ra1
	dDec := dec2 - dec1

	h := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1)*math.Cos(dec2)*math.Sin(dRA/2)*math.Sin(dRA/2)

	// Clamp to avoid numerical errors with asin
	if h > 1 {
		h = 1
	}
	return radToDeg(2 * math.Asin(math.Sqrt(h)))
}

// GlareTier categorizes solar elongation for display.
type GlareTier int

const (
	GlareClear   GlareTier = iota // >= 20 degrees
	GlareCaution                  // 10-20 degrees
	GlareLost                     // < 10 degrees
)

// GetGlareTier returns the tier for a given elongation.
func GetGlareTier(elongDeg float64) GlareTier {
	switch {
	case elongDeg < 10:
		return GlareLost
	case elongDeg < 20:
		return GlareCaution
	default:
		return GlareClear
	}
}

// String returns a short label for the tier.
func (g GlareTier) String() string {
	switch g {
	case GlareLost:
		return "glare"
	case GlareCaution:
		return "low"
	default:
		return "clear"
	}
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
