package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/metrics"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
)

const (
	maxBodyBytes      = 1 << 20
	defaultRingPoints = 64
	maxRingPoints     = 720
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleListBodies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bodies": s.deps.Catalog.Bodies()})
}

func (s *Server) handleAddBody(w http.ResponseWriter, r *http.Request) {
	var el astro.OrbitalElements
	if err := decodeJSON(w, r, &el); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := s.deps.Catalog.Add(el)
	switch {
	case errors.Is(err, astro.ErrInvalidElements):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrBuiltin):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("custom body %q added (a=%.3f AU, e=%.3f)", b.Name, b.SemiMajorAU, b.Eccentricity)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleRemoveBody(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.deps.Catalog.Remove(name)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, catalog.ErrBuiltin):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.deps.Manager.SetHighlight(name, false)
	w.WriteHeader(http.StatusNoContent)
}

// handlePositions renders one frame. Query parameters: at (RFC 3339,
// default the shared clock), tilt (degrees), trail and belt (booleans).
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap := s.deps.Manager.Snapshot()

	if v := q.Get("at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at parameter, must be RFC 3339")
			return
		}
		snap.SimTime = at.UTC()
		snap.Days = astro.DaysSinceJ2000(at)
	}
	if v := q.Get("tilt"); v != "" {
		tilt, err := strconv.ParseFloat(v, 64)
		if err != nil || tilt < -360 || tilt > 360 {
			writeError(w, http.StatusBadRequest, "invalid tilt parameter, must be -360 to 360")
			return
		}
		snap.TiltDeg = tilt
	}
	opts := sim.FrameOptions{}
	for name, dst := range map[string]*bool{"trail": &opts.Trails, "belt": &opts.Belt} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter, must be a boolean", name))
				return
			}
			*dst = b
		}
	}

	writeJSON(w, http.StatusOK, sim.BuildFrame(snap, s.deps.Catalog.Bodies(), opts))
}

type impactRequest struct {
	impact.Scenario
	Body       string      `json:"body,omitempty"`
	Site       *astro.Site `json:"site,omitempty"`
	RingPoints int         `json:"ring_points,omitempty"`
}

type impactResponse struct {
	LaunchID   int                `json:"launch_id"`
	Result     impact.Result      `json:"result"`
	Footprints []impact.Footprint `json:"footprints,omitempty"`
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Site != nil && !req.Site.Valid() {
		writeError(w, http.StatusBadRequest, "invalid site: lat must be in [-90, 90] and lon in [-180, 180]")
		return
	}
	if req.RingPoints < 0 || req.RingPoints > maxRingPoints {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid ring_points, must be 0-%d", maxRingPoints))
		return
	}

	target := string(impact.Land)
	params, err := req.Resolve()
	if err == nil {
		target = string(params.Target)
	}
	var res impact.Result
	if err == nil {
		res, err = s.deps.Engine.Evaluate(params)
	}
	metrics.ObserveImpact(target, res.EnergyMegatons, err)
	if err != nil {
		if errors.Is(err, impact.ErrInvalidParams) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	launch := sim.Launch{
		At:     time.Now().UTC(),
		Body:   req.Body,
		Result: res,
	}
	resp := impactResponse{Result: res}
	if req.Site != nil {
		launch.Site = *req.Site
		n := req.RingPoints
		if n == 0 {
			n = defaultRingPoints
		}
		resp.Footprints = res.Footprints(*req.Site, n)
	}
	launch = s.deps.Manager.RecordLaunch(launch)
	resp.LaunchID = launch.ID

	s.log.Info("impact %d: %.3g Mt over %s", launch.ID, res.EnergyMegatons, res.Params.Target)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": impact.Presets()})
}

// handleNEO proxies the approach feed for a seven-day window starting at
// ?date=YYYY-MM-DD (default today). ?hazardous=true filters the result.
func (s *Server) handleNEO(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "neo feed not configured")
		return
	}
	day := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date parameter, must be YYYY-MM-DD")
			return
		}
		day = d
	}
	hazardousOnly := false
	if v := r.URL.Query().Get("hazardous"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hazardous parameter, must be a boolean")
			return
		}
		hazardousOnly = b
	}

	start, end := neo.Window(day)
	res := s.deps.Feed.Fetch(r.Context(), start, end)
	metrics.ObserveNEOFetch(res.Duration, res.Error)
	if res.Error != nil {
		s.log.Warn("neo feed fetch failed: %v", res.Error)
		writeError(w, http.StatusBadGateway, res.Error.Error())
		return
	}

	feed := *res.Feed
	if hazardousOnly {
		feed.Objects = neo.HazardousOnly(feed.Objects)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
		"feed":  feed,
	})
}

// clockState is the clock portion of a snapshot.
type clockState struct {
	SimTime  time.Time `json:"sim_time"`
	Days     float64   `json:"days_since_j2000"`
	Rate     float64   `json:"rate"`
	RateText string    `json:"rate_text"`
	Playing  bool      `json:"playing"`
	TiltDeg  float64   `json:"tilt_deg"`
}

func clockFromSnapshot(snap sim.Snapshot) clockState {
	return clockState{
		SimTime:  snap.SimTime,
		Days:     snap.Days,
		Rate:     snap.Rate,
		RateText: sim.FormatRate(snap.Rate),
		Playing:  snap.Playing,
		TiltDeg:  snap.TiltDeg,
	}
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clockFromSnapshot(s.deps.Manager.Snapshot()))
}

func (s *Server) handleClockControl(w http.ResponseWriter, r *http.Request) {
	var c control
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := applyControl(s.deps.Manager, c, time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, clockFromSnapshot(s.deps.Manager.Snapshot()))
}

// control is a clock command, shared by POST /api/v1/clock and the stream.
type control struct {
	Action string  `json:"action"`
	Value  float64 `json:"value,omitempty"`
}

var errUnknownAction = errors.New("unknown action")

// applyControl executes c against m. Step values are in days, rate values in
// simulated seconds per wall second, tilt values in degrees.
func applyControl(m *sim.Manager, c control, now time.Time) error {
	switch c.Action {
	case "play":
		m.SetPlaying(true)
	case "pause":
		m.SetPlaying(false)
	case "toggle":
		m.TogglePlaying()
	case "rate":
		if !(c.Value > 0) {
			return fmt.Errorf("rate must be positive, got %v", c.Value)
		}
		m.SetRate(c.Value)
	case "faster":
		m.Faster()
	case "slower":
		m.Slower()
	case "step":
		if c.Value == 0 {
			return errors.New("step needs a non-zero value in days")
		}
		if math.IsNaN(c.Value) || math.Abs(c.Value) > sim.MaxStepDays {
			return fmt.Errorf("step must be within ±%g days, got %v", sim.MaxStepDays, c.Value)
		}
		m.Step(c.Value)
	case "now":
		m.Reset(now)
	case "tilt":
		m.SetTilt(c.Value)
	default:
		return fmt.Errorf("%w %q", errUnknownAction, c.Action)
	}
	return nil
}
