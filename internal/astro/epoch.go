package astro

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the shared reference epoch at which every mean anomaly is zero.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// j2000JD is the Julian Date of J2000.
const j2000JD = 2451545.0

// DaysSinceJ2000 returns the offset of t from the reference epoch in days.
func DaysSinceJ2000(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - j2000JD
}
