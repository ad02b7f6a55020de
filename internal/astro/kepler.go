package astro

import "math"

const (
	// KeplerTolerance is the Newton step size at which the solver stops.
	KeplerTolerance = 1e-6

	// KeplerMaxIterations bounds the Newton-Raphson loop.
	KeplerMaxIterations = 30

	// highEccentricitySeed is the eccentricity at or above which E₀ = ±π.
	highEccentricitySeed = 0.8
)

// KeplerSolution is the full result of a Kepler solve.
type KeplerSolution struct {
	E          float64 // Eccentric anomaly in radians
	M          float64 // Mean anomaly after normalization into (−π, π]
	Iterations int     // Newton steps taken
	Residual   float64 // E − e·sin(E) − M
	Converged  bool    // Last step was below KeplerTolerance
}

// SolveKepler returns the eccentric anomaly E satisfying E − e·sin(E) = M (mod 2π).
// It never fails: after KeplerMaxIterations the current estimate is returned.
// Callers that need guaranteed precision should use SolveKeplerDetailed and
// inspect the residual.
func SolveKepler(M, e float64) float64 {
	return SolveKeplerDetailed(M, e).E
}

// SolveKeplerDetailed runs the same solve as SolveKepler and reports convergence.
//
// For e ≥ 0.8 the seed is π with the sign of the normalized M, not a fixed +π.
// Newton from +π overshoots far past −π for negative M near −π (e = 0.95,
// M = −3 lands near E = −60 on the second step), so the mirrored seed is used
// deliberately.
func SolveKeplerDetailed(M, e float64) KeplerSolution {
	m := normalizeAnomaly(M)

	// The equation is odd in (E, M), so negative anomalies start from −π.
	E := m
	if e >= highEccentricitySeed {
		E = math.Pi
		if m < 0 {
			E = -math.Pi
		}
	}

	sol := KeplerSolution{M: m}
	for i := 0; i < KeplerMaxIterations; i++ {
		f := E - e*math.Sin(E) - m
		fp := 1 - e*math.Cos(E)
		dE := -f / fp
		E += dE
		sol.Iterations = i + 1
		if math.Abs(dE) < KeplerTolerance {
			sol.Converged = true
			break
		}
	}

	sol.E = E
	sol.Residual = E - e*math.Sin(E) - m
	return sol
}

// normalizeAnomaly maps an angle into (−π, π]. Angles already in range are
// returned untouched so the e = 0 case stays an exact identity.
func normalizeAnomaly(M float64) float64 {
	if M > -math.Pi && M <= math.Pi {
		return M
	}
	m := math.Mod(M+math.Pi, 2*math.Pi)
	if m <= 0 {
		m += 2 * math.Pi
	}
	return m - math.Pi
}
