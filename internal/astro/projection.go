package astro

import "math"

// Point2 is a projected display position in AU.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project returns the orthographic view of v after tilting the viewing plane
// by tiltDeg about the horizontal (X) axis. The rotated depth is dropped:
// callers draw in catalog order, not depth order.
func Project(v Vec3, tiltDeg float64) Point2 {
	s, c := math.Sincos(degToRad(tiltDeg))
	return Point2{
		X: v.X,
		Y: c*v.Y - s*v.Z,
	}
}

// ProjectAll projects a slice of positions with the same tilt.
func ProjectAll(vs []Vec3, tiltDeg float64) []Point2 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]Point2, len(vs))
	for i, v := range vs {
		out[i] = Project(v, tiltDeg)
	}
	return out
}
