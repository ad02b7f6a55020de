package sim

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/impact"
)

// Zoom bounds in pixels per AU.
const (
	MinZoom = 40.0
	MaxZoom = 700.0
)

// Launch is one recorded impact evaluation.
type Launch struct {
	ID      int           `json:"id"`
	At      time.Time     `json:"at"`       // wall clock
	SimTime time.Time     `json:"sim_time"` // simulated instant of the launch
	Body    string        `json:"body"`
	Site    astro.Site    `json:"site"`
	Result  impact.Result `json:"result"`
}

// Config holds the manager's initial view state.
type Config struct {
	Rate          float64
	TiltDeg       float64
	Zoom          float64
	ShowAsteroids bool
	MaxLaunches   int
}

// DefaultConfig returns the startup view: one day per second, 20° tilt.
func DefaultConfig() Config {
	return Config{
		Rate:          86400,
		TiltDeg:       20,
		Zoom:          150,
		ShowAsteroids: true,
		MaxLaunches:   20,
	}
}

// Manager holds the shared simulation state with thread-safe access. Readers
// take a Snapshot and render from it; nothing reads the live fields directly.
type Manager struct {
	mu sync.RWMutex

	clock         Clock
	tiltDeg       float64
	zoom          float64
	showAsteroids bool
	highlights    map[string]bool

	// Launch log (ring buffer)
	launches      []Launch
	maxLaunches   int
	launchWriteAt int
	nextLaunchID  int
}

// NewManager creates a manager whose clock starts at start.
func NewManager(cfg Config, start time.Time) *Manager {
	maxLaunches := cfg.MaxLaunches
	if maxLaunches <= 0 {
		maxLaunches = 20
	}
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = DefaultConfig().Zoom
	}
	return &Manager{
		clock:         NewClock(start, cfg.Rate),
		tiltDeg:       normalizeTilt(cfg.TiltDeg),
		zoom:          clampZoom(zoom),
		showAsteroids: cfg.ShowAsteroids,
		highlights:    make(map[string]bool),
		maxLaunches:   maxLaunches,
		launches:      make([]Launch, 0, maxLaunches),
		nextLaunchID:  1,
	}
}

// Advance moves simulated time by one wall-clock tick.
func (m *Manager) Advance(wall time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.Advance(wall)
}

// Step jumps the clock by days.
func (m *Manager) Step(days float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.Step(days)
}

// Reset moves the clock to now.
func (m *Manager) Reset(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.Reset(now)
}

// SetPlaying starts or pauses the clock.
func (m *Manager) SetPlaying(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.SetPlaying(on)
}

// TogglePlaying flips play/pause and returns the new state.
func (m *Manager) TogglePlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.SetPlaying(!m.clock.Playing())
	return m.clock.Playing()
}

// SetRate sets the clock rate, returning the clamped value.
func (m *Manager) SetRate(r float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.SetRate(r)
}

// Faster and Slower step through PresetRates.
func (m *Manager) Faster() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.Faster()
}

func (m *Manager) Slower() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.Slower()
}

// SetTilt sets the view tilt in degrees, wrapped into [0, 360).
func (m *Manager) SetTilt(deg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiltDeg = normalizeTilt(deg)
}

// AdjustTilt adds delta degrees to the tilt.
func (m *Manager) AdjustTilt(delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiltDeg = normalizeTilt(m.tiltDeg + delta)
}

// ScaleZoom multiplies the zoom by factor within [MinZoom, MaxZoom].
func (m *Manager) ScaleZoom(factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zoom = clampZoom(m.zoom * factor)
}

// ToggleAsteroids flips belt visibility.
func (m *Manager) ToggleAsteroids() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showAsteroids = !m.showAsteroids
	return m.showAsteroids
}

// SetHighlight marks a body's full orbit for drawing.
func (m *Manager) SetHighlight(name string, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.highlights[name] = true
	} else {
		delete(m.highlights, name)
	}
}

// ToggleHighlight flips a body's highlight and returns the new state.
func (m *Manager) ToggleHighlight(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.highlights[name] {
		delete(m.highlights, name)
		return false
	}
	m.highlights[name] = true
	return true
}

// RecordLaunch stamps l with an ID and the current simulated time and stores it.
func (m *Manager) RecordLaunch(l Launch) Launch {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.ID = m.nextLaunchID
	m.nextLaunchID++
	if l.At.IsZero() {
		l.At = time.Now()
	}
	l.SimTime = m.clock.Now()

	if len(m.launches) < m.maxLaunches {
		m.launches = append(m.launches, l)
	} else {
		m.launches[m.launchWriteAt] = l
		m.launchWriteAt = (m.launchWriteAt + 1) % m.maxLaunches
	}
	return l
}

// RecentLaunches returns the last n launches, oldest first.
func (m *Manager) RecentLaunches(n int) []Launch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.launchesOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// launchesOrdered returns the ring buffer oldest first.
func (m *Manager) launchesOrdered() []Launch {
	if len(m.launches) == 0 {
		return nil
	}
	if len(m.launches) < m.maxLaunches {
		out := make([]Launch, len(m.launches))
		copy(out, m.launches)
		return out
	}
	out := make([]Launch, m.maxLaunches)
	for i := 0; i < m.maxLaunches; i++ {
		out[i] = m.launches[(m.launchWriteAt+i)%m.maxLaunches]
	}
	return out
}

// Snapshot is an immutable copy of the simulation state for one frame.
type Snapshot struct {
	SimTime       time.Time `json:"sim_time"`
	Days          float64   `json:"days_since_j2000"`
	Rate          float64   `json:"rate"`
	Playing       bool      `json:"playing"`
	TiltDeg       float64   `json:"tilt_deg"`
	Zoom          float64   `json:"zoom"`
	ShowAsteroids bool      `json:"show_asteroids"`
	Highlights    []string  `json:"highlights"`
	Launches      []Launch  `json:"launches"`
}

// Highlighted reports whether name is highlighted in the snapshot.
func (s Snapshot) Highlighted(name string) bool {
	i := sort.SearchStrings(s.Highlights, name)
	return i < len(s.Highlights) && s.Highlights[i] == name
}

// Snapshot returns a consistent copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hl := make([]string, 0, len(m.highlights))
	for name := range m.highlights {
		hl = append(hl, name)
	}
	sort.Strings(hl)

	return Snapshot{
		SimTime:       m.clock.Now(),
		Days:          m.clock.Days(),
		Rate:          m.clock.Rate(),
		Playing:       m.clock.Playing(),
		TiltDeg:       m.tiltDeg,
		Zoom:          m.zoom,
		ShowAsteroids: m.showAsteroids,
		Highlights:    hl,
		Launches:      m.launchesOrdered(),
	}
}

func normalizeTilt(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
