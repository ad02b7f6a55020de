// Package sim owns the simulation clock and view state and turns a snapshot of
// them into a renderable frame.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-impact/internal/astro"
)

// Rate bounds, in simulated seconds per wall second.
const (
	secondsPerYear = 31557600.0
	MinRate        = 3600.0
	MaxRate        = 8 * secondsPerYear
)

// PresetRates are the selectable clock speeds, slowest first.
var PresetRates = []float64{3600, 43200, 86400, 604800, 2592000, secondsPerYear}

// Clock is the virtual simulation time. The zero value is paused at the Unix
// epoch with rate 0; use NewClock. Clock is not safe for concurrent use; the
// Manager serializes access.
type Clock struct {
	now     time.Time
	rate    float64
	playing bool
}

// NewClock returns a playing clock at start with the given rate (clamped).
func NewClock(start time.Time, rate float64) Clock {
	return Clock{now: start.UTC(), rate: ClampRate(rate), playing: true}
}

// ClampRate bounds r to [MinRate, MaxRate]. NaN maps to MinRate.
func ClampRate(r float64) float64 {
	if math.IsNaN(r) || r < MinRate {
		return MinRate
	}
	if r > MaxRate {
		return MaxRate
	}
	return r
}

// Now returns the current simulated instant.
func (c Clock) Now() time.Time { return c.now }

// Rate returns simulated seconds per wall second.
func (c Clock) Rate() float64 { return c.rate }

// Playing reports whether Advance moves time forward.
func (c Clock) Playing() bool { return c.playing }

// Days returns the simulated time as days since J2000.
func (c Clock) Days() float64 { return astro.DaysSinceJ2000(c.now) }

// Advance moves the clock by wall·rate when playing.
func (c *Clock) Advance(wall time.Duration) {
	if !c.playing || wall <= 0 {
		return
	}
	c.now = addSeconds(c.now, wall.Seconds()*c.rate)
}

// Step jumps by a signed number of days regardless of play state.
func (c *Clock) Step(days float64) {
	c.now = addSeconds(c.now, days*86400)
}

// Reset moves the clock to now, keeping rate and play state.
func (c *Clock) Reset(now time.Time) {
	c.now = now.UTC()
}

// SetRate sets a clamped rate and returns the value applied.
func (c *Clock) SetRate(r float64) float64 {
	c.rate = ClampRate(r)
	return c.rate
}

// Faster selects the next preset above the current rate.
func (c *Clock) Faster() float64 {
	for _, r := range PresetRates {
		if r > c.rate {
			c.rate = r
			return r
		}
	}
	return c.rate
}

// Slower selects the next preset below the current rate.
func (c *Clock) Slower() float64 {
	for i := len(PresetRates) - 1; i >= 0; i-- {
		if PresetRates[i] < c.rate {
			c.rate = PresetRates[i]
			return c.rate
		}
	}
	return c.rate
}

// SetPlaying starts or stops the clock.
func (c *Clock) SetPlaying(on bool) { c.playing = on }

// MaxStepDays bounds a single clock move; larger offsets saturate.
const MaxStepDays = 1e6

// addSeconds adds a possibly huge float offset without overflowing Duration.
// Offsets beyond MaxStepDays saturate; NaN is ignored.
func addSeconds(t time.Time, secs float64) time.Time {
	if math.IsNaN(secs) {
		return t
	}
	const limit = MaxStepDays * 86400
	secs = math.Max(-limit, math.Min(limit, secs))

	whole, frac := math.Modf(secs)
	const chunk = 100 * 365 * 86400 // well inside Duration range
	n := int64(whole / chunk)
	step := time.Duration(chunk) * time.Second
	if n < 0 {
		step = -step
	}
	for i := int64(0); i < n || i < -n; i++ {
		t = t.Add(step)
	}
	whole -= float64(n) * chunk
	return t.Add(time.Duration(whole)*time.Second + time.Duration(frac*float64(time.Second)))
}

// FormatRate renders a rate as a short label such as "1 day/s".
func FormatRate(r float64) string {
	units := []struct {
		secs  float64
		label string
	}{
		{secondsPerYear, "yr"},
		{2592000, "mo"},
		{604800, "wk"},
		{86400, "day"},
		{3600, "hr"},
	}
	for _, u := range units {
		if r >= u.secs {
			return fmt.Sprintf("%g %s/s", math.Round(r/u.secs*10)/10, u.label)
		}
	}
	return fmt.Sprintf("%gs/s", r)
}
