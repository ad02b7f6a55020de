package astro

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 returns the active rotation matrix about the X axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// R3 returns the active rotation matrix about the Z axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// Orientation returns R3(Ω)·R1(i)·R3(ω), the perifocal to ecliptic transform.
// Applying it is equivalent to orient but amortizes the trig over many points.
func Orientation(el OrbitalElements) *mat.Dense {
	var inner, out mat.Dense
	inner.Mul(R1(degToRad(el.InclinationDeg)), R3(degToRad(el.ArgPeriapsisDeg)))
	out.Mul(R3(degToRad(el.LongAscNodeDeg)), &inner)
	return &out
}

// MulVec multiplies a 3x3 matrix with v.
func MulVec(m mat.Matrix, v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
