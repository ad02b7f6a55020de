package sim

import (
	"time"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/catalog"
)

// BodyFrame is one body's state within a frame. Screen coordinates are in AU;
// the renderer applies zoom and pan.
type BodyFrame struct {
	Name       string         `json:"name"`
	Color      string         `json:"color"`
	Kind       catalog.Kind   `json:"kind"`
	RadiusPx   float64        `json:"radius_px"`
	Position   astro.Vec3     `json:"position_au"`
	Screen     astro.Point2   `json:"screen"`
	DistanceAU float64        `json:"distance_au"`
	Trail      []astro.Point2 `json:"trail,omitempty"`
	Orbit      []astro.Point2 `json:"orbit,omitempty"`
}

// Frame is everything a renderer needs for one redraw.
type Frame struct {
	SimTime time.Time      `json:"sim_time"`
	Days    float64        `json:"days_since_j2000"`
	TiltDeg float64        `json:"tilt_deg"`
	Bodies  []BodyFrame    `json:"bodies"`
	Belt    []astro.Point2 `json:"belt,omitempty"`
}

// FrameOptions selects the optional, heavier parts of a frame.
type FrameOptions struct {
	Trails bool
	Belt   bool // honoured only when the snapshot shows asteroids
}

// BuildFrame evaluates every body directly at the snapshot time. Bodies keep
// catalog order, which is also draw order. The result depends only on the
// snapshot and bodies, so pausing or rewinding reproduces frames exactly.
func BuildFrame(s Snapshot, bodies []catalog.Body, opts FrameOptions) Frame {
	f := Frame{
		SimTime: s.SimTime,
		Days:    s.Days,
		TiltDeg: s.TiltDeg,
		Bodies:  make([]BodyFrame, 0, len(bodies)),
	}
	for _, b := range bodies {
		pos := astro.Position(b.OrbitalElements, s.Days)
		bf := BodyFrame{
			Name:       b.Name,
			Color:      b.Color,
			Kind:       b.Kind,
			RadiusPx:   b.DisplayRadius(),
			Position:   pos,
			Screen:     astro.Project(pos, s.TiltDeg),
			DistanceAU: pos.Norm(),
		}
		if opts.Trails {
			trail := astro.Trail(b.OrbitalElements, s.Days, astro.DefaultTrailSpan(b.OrbitalElements), astro.DefaultTrailStepDays)
			bf.Trail = astro.ProjectAll(trail, s.TiltDeg)
		}
		if s.Highlighted(b.Name) {
			bf.Orbit = astro.ProjectAll(catalog.Outline(b), s.TiltDeg)
		}
		f.Bodies = append(f.Bodies, bf)
	}
	if opts.Belt && s.ShowAsteroids {
		f.Belt = astro.ProjectAll(catalog.Belt(), s.TiltDeg)
	}
	return f
}
