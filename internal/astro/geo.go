package astro

import "math"

// EarthRadiusKm is the mean Earth radius used for surface geometry.
const EarthRadiusKm = 6371.0

// Site is a point on the Earth's surface.
type Site struct {
	LatDeg float64 `json:"lat"`  // Latitude in degrees (north positive)
	LonDeg float64 `json:"lon"`  // Longitude in degrees (east positive)
	Name   string  `json:"name,omitempty"`
}

// Valid reports whether the coordinates are on the globe.
func (s Site) Valid() bool {
	return s.LatDeg >= -90 && s.LatDeg <= 90 && s.LonDeg >= -180 && s.LonDeg <= 180
}

// Destination returns the point reached by travelling distKm along a great
// circle from s with the given initial bearing (0 = north, 90 = east).
func Destination(s Site, bearingDeg, distKm float64) Site {
	lat1 := degToRad(s.LatDeg)
	lon1 := degToRad(s.LonDeg)
	brg := degToRad(bearingDeg)
	d := distKm / EarthRadiusKm

	sinLat1, cosLat1 := math.Sincos(lat1)
	sinD, cosD := math.Sincos(d)

	sinLat2 := sinLat1*cosD + cosLat1*sinD*math.Cos(brg)
	// Clamp for floating point error near the poles
	if sinLat2 > 1 {
		sinLat2 = 1
	} else if sinLat2 < -1 {
		sinLat2 = -1
	}
	lat2 := math.Asin(sinLat2)
	lon2 := lon1 + math.Atan2(math.Sin(brg)*sinD*cosLat1, cosD-sinLat1*sinLat2)

	return Site{
		LatDeg: radToDeg(lat2),
		LonDeg: normalizeLon(radToDeg(lon2)),
	}
}

// Circle returns n points of a great-circle ring of radius radiusKm around s.
func Circle(s Site, radiusKm float64, n int) []Site {
	if n <= 0 || radiusKm <= 0 {
		return nil
	}
	ring := make([]Site, n)
	for i := 0; i < n; i++ {
		ring[i] = Destination(s, 360*float64(i)/float64(n), radiusKm)
	}
	return ring
}

// DistanceKm returns the great-circle (haversine) distance between two sites.
func DistanceKm(a, b Site) float64 {
	lat1, lat2 := degToRad(a.LatDeg), degToRad(b.LatDeg)
	dLat := lat2 - lat1
	dLon := degToRad(b.LonDeg - a.LonDeg)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// normalizeLon maps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
