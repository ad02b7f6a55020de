package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/config"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
)

var testStart = time.Date(2029, 4, 13, 0, 0, 0, 0, time.UTC)

type fakeFeed struct {
	feed  *neo.Feed
	err   error
	calls int
	start time.Time
}

func (f *fakeFeed) Fetch(ctx context.Context, start, end time.Time) neo.FetchResult {
	f.calls++
	f.start = start
	return neo.FetchResult{Feed: f.feed, Error: f.err, Start: start, End: end, Duration: time.Millisecond}
}

func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RatePerSec = 0 // unlimited unless a test opts in
	return cfg
}

func newTestServer(t *testing.T, cfg config.ServerConfig, feed FeedSource) *Server {
	t.Helper()
	return NewServer(cfg, Deps{
		Catalog: catalog.New(),
		Manager: sim.NewManager(sim.DefaultConfig(), testStart),
		Engine:  impact.Default(),
		Feed:    feed,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, status, w.Body.String())
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["error"] == "" {
		t.Error("error response has no error message")
	}
}

func TestProbes(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()

	if w := do(t, h, "GET", "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	if w := do(t, h, "GET", "/readyz", ""); w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}
	if w := do(t, h, "GET", "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("metrics = %d", w.Code)
	}

	s.ready.SetReady(false)
	if w := do(t, h, "GET", "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz after unready = %d", w.Code)
	}
}

func TestBodies(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	w := do(t, h, "GET", "/api/v1/bodies", "")
	var list struct {
		Bodies []catalog.Body `json:"bodies"`
	}
	decode(t, w, &list)
	if len(list.Bodies) != len(catalog.Planets)+len(catalog.Asteroids) {
		t.Fatalf("got %d bodies", len(list.Bodies))
	}

	custom := `{"name":"Halley-ish","a":2.5,"e":0.6,"period_days":1443,"inclination_deg":12}`
	w = do(t, h, "POST", "/api/v1/bodies", custom)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST custom = %d %s", w.Code, w.Body.String())
	}
	var b catalog.Body
	decode(t, w, &b)
	if b.Kind != catalog.KindCustom || b.Color == "" {
		t.Errorf("created body = %+v", b)
	}

	wantError(t, do(t, h, "POST", "/api/v1/bodies", `{"name":"Comet","a":2,"e":1.2,"period_days":900}`), http.StatusBadRequest)
	wantError(t, do(t, h, "POST", "/api/v1/bodies", `{"name":"Earth","a":1,"e":0.01,"period_days":365}`), http.StatusConflict)
	wantError(t, do(t, h, "POST", "/api/v1/bodies", `{"name":"X","bogus":1}`), http.StatusBadRequest)

	if w := do(t, h, "DELETE", "/api/v1/bodies/Halley-ish", ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d", w.Code)
	}
	wantError(t, do(t, h, "DELETE", "/api/v1/bodies/Halley-ish", ""), http.StatusNotFound)
	wantError(t, do(t, h, "DELETE", "/api/v1/bodies/Mars", ""), http.StatusConflict)
}

func TestPositions(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	w := do(t, h, "GET", "/api/v1/positions?at=2000-01-01T12:00:00Z&tilt=0&trail=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var f sim.Frame
	decode(t, w, &f)
	if math.Abs(f.Days) > 1e-6 {
		t.Errorf("Days = %v, want 0 at J2000", f.Days)
	}
	if len(f.Bodies) == 0 || len(f.Bodies[0].Trail) == 0 {
		t.Fatal("frame lacks bodies or trails")
	}
	// At J2000 every body sits at periapsis.
	for _, b := range f.Bodies {
		if b.Name != "Earth" {
			continue
		}
		want := 1.0 * (1 - 0.0167)
		if math.Abs(b.DistanceAU-want) > 1e-9 {
			t.Errorf("Earth distance = %v, want %v", b.DistanceAU, want)
		}
	}

	wantError(t, do(t, h, "GET", "/api/v1/positions?at=yesterday", ""), http.StatusBadRequest)
	wantError(t, do(t, h, "GET", "/api/v1/positions?tilt=abc", ""), http.StatusBadRequest)
	wantError(t, do(t, h, "GET", "/api/v1/positions?trail=maybe", ""), http.StatusBadRequest)
}

func TestImpact(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()

	body := `{"diameter_m":100,"density_kg_m3":3500,"velocity_km_s":20,"impact_angle_deg":45,
		"target":"LAND","body":"Bennu","site":{"lat":51.5,"lon":-0.1},"ring_points":16}`
	w := do(t, h, "POST", "/api/v1/impact", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var resp impactResponse
	decode(t, w, &resp)
	if math.Abs(resp.Result.EnergyMegatons-87.60) > 0.01 {
		t.Errorf("yield = %v Mt, want 87.60", resp.Result.EnergyMegatons)
	}
	if resp.LaunchID != 1 {
		t.Errorf("launch id = %d, want 1", resp.LaunchID)
	}
	if len(resp.Footprints) == 0 || len(resp.Footprints[0].Ring) != 16 {
		t.Errorf("footprints = %+v", resp.Footprints)
	}

	launches := s.deps.Manager.RecentLaunches(5)
	if len(launches) != 1 || launches[0].Body != "Bennu" || !launches[0].SimTime.Equal(testStart) {
		t.Errorf("recorded launches = %+v", launches)
	}

	w = do(t, h, "POST", "/api/v1/impact", `{"preset":"chelyabinsk"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preset status = %d", w.Code)
	}
	var presetResp impactResponse
	decode(t, w, &presetResp)
	if presetResp.Footprints != nil || presetResp.LaunchID != 2 {
		t.Errorf("preset launch %d has %d footprints, want id 2 and none", presetResp.LaunchID, len(presetResp.Footprints))
	}

	tests := []struct {
		name string
		body string
	}{
		{"zero diameter", `{"diameter_m":0,"density_kg_m3":3500,"velocity_km_s":20}`},
		{"bad target", `{"preset":"bennu","target":"MOON"}`},
		{"bad site", `{"preset":"bennu","site":{"lat":95,"lon":0}}`},
		{"ring points", `{"preset":"bennu","ring_points":100000}`},
		{"malformed", `{"diameter_m":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, do(t, h, "POST", "/api/v1/impact", tt.body), http.StatusBadRequest)
		})
	}
}

func TestPresets(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()
	var resp struct {
		Presets []impact.Preset `json:"presets"`
	}
	decode(t, do(t, h, "GET", "/api/v1/presets", ""), &resp)
	if len(resp.Presets) != 3 || resp.Presets[0].Name != "apophis" {
		t.Errorf("presets = %+v", resp.Presets)
	}
}

func TestNEO(t *testing.T) {
	feed := &fakeFeed{feed: &neo.Feed{
		ElementCount: 2,
		Objects: []neo.Object{
			{ID: "1", Name: "Big", DiameterM: 500, VelocityKmS: 20, Hazardous: true},
			{ID: "2", Name: "Small", DiameterM: 20, VelocityKmS: 10},
		},
	}}
	h := newTestServer(t, testConfig(), feed).Handler()

	w := do(t, h, "GET", "/api/v1/neo?date=2024-03-01&hazardous=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Start string   `json:"start"`
		End   string   `json:"end"`
		Feed  neo.Feed `json:"feed"`
	}
	decode(t, w, &resp)
	if resp.Start != "2024-03-01" || resp.End != "2024-03-08" {
		t.Errorf("window = %s..%s", resp.Start, resp.End)
	}
	if len(resp.Feed.Objects) != 1 || resp.Feed.Objects[0].Name != "Big" {
		t.Errorf("objects = %+v", resp.Feed.Objects)
	}
	if len(feed.feed.Objects) != 2 {
		t.Error("handler mutated the fetched feed")
	}

	wantError(t, do(t, h, "GET", "/api/v1/neo?date=03/01/2024", ""), http.StatusBadRequest)

	feed.err = &neo.StatusError{StatusCode: 429, Body: "slow down"}
	feed.feed = nil
	w = do(t, h, "GET", "/api/v1/neo", "")
	wantError(t, w, http.StatusBadGateway)

	noFeed := newTestServer(t, testConfig(), nil).Handler()
	wantError(t, do(t, noFeed, "GET", "/api/v1/neo", ""), http.StatusServiceUnavailable)
}

func TestClockControl(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	var before clockState
	decode(t, do(t, h, "GET", "/api/v1/clock", ""), &before)
	if !before.Playing || before.RateText != "1 day/s" {
		t.Errorf("initial clock = %+v", before)
	}

	var after clockState
	decode(t, do(t, h, "POST", "/api/v1/clock", `{"action":"pause"}`), &after)
	if after.Playing {
		t.Error("clock still playing after pause")
	}

	decode(t, do(t, h, "POST", "/api/v1/clock", `{"action":"step","value":2}`), &after)
	if math.Abs(after.Days-before.Days-2) > 1e-6 {
		t.Errorf("step moved %v days, want 2", after.Days-before.Days)
	}

	decode(t, do(t, h, "POST", "/api/v1/clock", `{"action":"rate","value":604800}`), &after)
	if after.Rate != 604800 {
		t.Errorf("rate = %v", after.Rate)
	}

	wantError(t, do(t, h, "POST", "/api/v1/clock", `{"action":"rewind"}`), http.StatusBadRequest)
	wantError(t, do(t, h, "POST", "/api/v1/clock", `{"action":"rate","value":-5}`), http.StatusBadRequest)
	wantError(t, do(t, h, "POST", "/api/v1/clock", `{"action":"step"}`), http.StatusBadRequest)
}

func TestClockControlStepBounds(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	var before clockState
	decode(t, do(t, h, "GET", "/api/v1/clock", ""), &before)

	for _, body := range []string{
		`{"action":"step","value":1e22}`,
		`{"action":"step","value":-1000001}`,
	} {
		wantError(t, do(t, h, "POST", "/api/v1/clock", body), http.StatusBadRequest)
	}

	var after clockState
	decode(t, do(t, h, "GET", "/api/v1/clock", ""), &after)
	if after.Days != before.Days {
		t.Errorf("rejected step moved the clock by %v days", after.Days-before.Days)
	}

	decode(t, do(t, h, "POST", "/api/v1/clock", `{"action":"step","value":-1000000}`), &after)
	if math.Abs(after.Days-before.Days+1e6) > 1e-3 {
		t.Errorf("step moved %v days, want -1e6", after.Days-before.Days)
	}
}

func TestApplyControlUnknown(t *testing.T) {
	m := sim.NewManager(sim.DefaultConfig(), testStart)
	err := applyControl(m, control{Action: "warp"}, time.Now())
	if !errors.Is(err, errUnknownAction) {
		t.Errorf("err = %v, want errUnknownAction", err)
	}
	now := testStart.Add(48 * time.Hour)
	if err := applyControl(m, control{Action: "now"}, now); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().SimTime; !got.Equal(now) {
		t.Errorf("SimTime = %v, want %v", got, now)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSec = 0.001
	cfg.Burst = 2
	h := newTestServer(t, cfg, nil).Handler()

	for i := 0; i < 2; i++ {
		if w := do(t, h, "GET", "/api/v1/clock", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := do(t, h, "GET", "/api/v1/clock", "")
	wantError(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}
	if w := do(t, h, "GET", "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("probe was rate limited: %d", w.Code)
	}
}

func TestIPRateLimiterEvictsIdle(t *testing.T) {
	l := newIPRateLimiter(1, 2)
	now := testStart
	l.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		l.getLimiter(fmt.Sprintf("10.0.0.%d", i))
	}
	if n := l.size(); n != 50 {
		t.Fatalf("size = %d, want 50", n)
	}

	now = now.Add(limiterIdleTTL / 2)
	l.getLimiter("10.0.0.7")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	active := l.getLimiter("10.0.1.1")
	if n := l.size(); n != 2 {
		t.Errorf("size after sweep = %d, want 2 (recent and new)", n)
	}
	if l.getLimiter("10.0.1.1") != active {
		t.Error("active bucket was replaced")
	}
}

func TestIPRateLimiterTTLCoversRefill(t *testing.T) {
	l := newIPRateLimiter(0.5, 200)
	if want := 400 * time.Second; l.ttl != want {
		t.Errorf("ttl = %v, want %v", l.ttl, want)
	}
	if l := newIPRateLimiter(20, 40); l.ttl != limiterIdleTTL {
		t.Errorf("ttl = %v, want %v", l.ttl, limiterIdleTTL)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := clientIP(r, false); got != "10.0.0.1" {
		t.Errorf("untrusted = %q", got)
	}
	if got := clientIP(r, true); got != "203.0.113.9" {
		t.Errorf("trusted = %q", got)
	}
	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.7")
	if got := clientIP(r, true); got != "198.51.100.7" {
		t.Errorf("x-real-ip = %q", got)
	}
}

func TestStreamLimiter(t *testing.T) {
	l := newStreamLimiter(2, 3)
	if !l.acquire("a") || !l.acquire("a") {
		t.Fatal("first two acquires failed")
	}
	if l.acquire("a") {
		t.Error("per-IP cap not enforced")
	}
	if !l.acquire("b") {
		t.Fatal("acquire b failed")
	}
	if l.acquire("c") {
		t.Error("global cap not enforced")
	}
	l.release("a")
	if l.count("a") != 1 || !l.acquire("c") {
		t.Error("release did not free a slot")
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
}

func TestStream(t *testing.T) {
	cfg := testConfig()
	cfg.StreamFPS = 50
	s := newTestServer(t, cfg, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msg.Frame == nil || len(msg.Frame.Bodies) == 0 {
		t.Fatalf("first message = %+v, want a frame", msg)
	}

	if err := conn.WriteJSON(control{Action: "pause"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	var gotClock, gotError bool
	for i := 0; i < 200 && !(gotClock && gotError); i++ {
		var m streamMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Clock != nil {
			gotClock = true
			if m.Clock.Playing {
				t.Error("clock reply still playing after pause")
			}
		}
		if m.Error != "" {
			gotError = true
		}
	}
	if !gotClock || !gotError {
		t.Errorf("clock reply %v, error reply %v", gotClock, gotError)
	}
	if s.deps.Manager.Snapshot().Playing {
		t.Error("shared manager still playing")
	}
}

func TestStreamLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStreams = 1
	srv := httptest.NewServer(newTestServer(t, cfg, nil).Handler())
	defer srv.Close()

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatal("second stream accepted past the cap")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second dial response = %+v", resp)
	}
}

func TestStatusRecorderHijack(t *testing.T) {
	sr := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := sr.Hijack(); err == nil {
		t.Error("Hijack on a recorder should fail")
	}
	if sr.Unwrap() == nil {
		t.Error("Unwrap returned nil")
	}
}
