package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/sim"
)

// LabelMode controls which bodies get labels.
type LabelMode int

const (
	LabelNone LabelMode = iota
	LabelFocused
	LabelAll
)

// Terminal cells are roughly twice as tall as they are wide; zoom is in
// pixels per AU, so these convert it to cells.
const (
	cellWidthPx  = 8.0
	cellHeightPx = 16.0
)

// Tilt step per keypress in degrees.
const tiltStep = 5.0

// OrreryModel draws the bodies, their trails, the belt and highlighted
// orbits from the latest frame.
type OrreryModel struct {
	width  int
	height int
	frame  sim.Frame
	snap   sim.Snapshot

	// View state
	focusIdx   int     // Index in frame bodies (-1 = Sun)
	centerX    float64 // View center in projected AU
	centerY    float64
	labelMode  LabelMode
	showTrails bool
	userPanned bool // True if user has manually panned (disables follow)
}

// NewOrreryModel creates a new orrery view model.
func NewOrreryModel() OrreryModel {
	return OrreryModel{
		focusIdx:   -1,
		labelMode:  LabelFocused,
		showTrails: true,
	}
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame replaces the rendered frame. The view keeps following the
// focused body unless the user has panned away.
func (m OrreryModel) UpdateFrame(snap sim.Snapshot, f sim.Frame) OrreryModel {
	m.snap = snap
	m.frame = f
	if m.focusIdx >= len(f.Bodies) {
		m.focusIdx = -1
	}
	if !m.userPanned {
		m.centerOnFocused()
	}
	return m
}

// ShowTrails reports whether trails are requested in frames.
func (m OrreryModel) ShowTrails() bool {
	return m.showTrails
}

// FocusedName returns the focused body's name, or "" for the Sun.
func (m OrreryModel) FocusedName() string {
	if m.focusIdx >= 0 && m.focusIdx < len(m.frame.Bodies) {
		return m.frame.Bodies[m.focusIdx].Name
	}
	return ""
}

// Update handles input messages. View changes that live in the shared
// manager (zoom, tilt, belt, highlights) are applied there by the caller,
// so Update reports them as an orreryAction.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, orreryAction) {
	var act orreryAction
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "[":
			m.focusPrev()
		case "k", "]":
			m.focusNext()

		case "up":
			m.centerY += m.panStep()
			m.userPanned = true
		case "down":
			m.centerY -= m.panStep()
			m.userPanned = true
		case "left":
			m.centerX -= m.panStep()
			m.userPanned = true
		case "right":
			m.centerX += m.panStep()
			m.userPanned = true
		case "c":
			m.centerX, m.centerY = 0, 0
			m.focusIdx = -1
			m.userPanned = false
		case "f":
			m.centerOnFocused()
			m.userPanned = false

		case "+", "=":
			act.zoom = 1.25
		case "-":
			act.zoom = 0.8
		case "w":
			act.tilt = tiltStep
		case "s":
			act.tilt = -tiltStep

		case "a":
			act.toggleBelt = true
		case "h":
			act.highlight = m.FocusedName()
		case "t":
			m.showTrails = !m.showTrails
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		}
	}
	return m, act
}

// orreryAction is a view change that must go through the shared manager.
type orreryAction struct {
	zoom       float64 // multiplicative; 0 means none
	tilt       float64 // additive degrees
	toggleBelt bool
	highlight  string // body whose highlight flips
}

func (a orreryAction) empty() bool {
	return a == orreryAction{}
}

// panStep is a tenth of the visible width in AU.
func (m OrreryModel) panStep() float64 {
	zoom := m.snap.Zoom
	if zoom <= 0 {
		zoom = sim.DefaultConfig().Zoom
	}
	return 0.1 * float64(max(m.width, 40)) * cellWidthPx / zoom
}

func (m *OrreryModel) focusNext() {
	if len(m.frame.Bodies) == 0 {
		return
	}
	m.focusIdx++
	if m.focusIdx >= len(m.frame.Bodies) {
		m.focusIdx = -1 // Wrap to Sun
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m *OrreryModel) focusPrev() {
	if len(m.frame.Bodies) == 0 {
		return
	}
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = len(m.frame.Bodies) - 1
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m *OrreryModel) centerOnFocused() {
	if m.focusIdx < 0 || m.focusIdx >= len(m.frame.Bodies) {
		m.centerX, m.centerY = 0, 0
		return
	}
	p := m.frame.Bodies[m.focusIdx].Screen
	m.centerX, m.centerY = p.X, p.Y
}

// View renders the orrery view.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// cell is one canvas position. Later layers overwrite earlier ones.
type cell struct {
	ch    rune
	color string
	bold  bool
}

type canvas struct {
	w, h   int
	cells  [][]cell
	cx, cy int
	// Projected AU to cells
	sx, sy           float64
	centerX, centerY float64
}

func newCanvas(w, h int, zoom, centerX, centerY float64) *canvas {
	cells := make([][]cell, h)
	for y := range cells {
		cells[y] = make([]cell, w)
		for x := range cells[y] {
			cells[y][x] = cell{ch: ' '}
		}
	}
	return &canvas{
		w: w, h: h, cells: cells,
		cx: w / 2, cy: h / 2,
		sx: zoom / cellWidthPx, sy: zoom / cellHeightPx,
		centerX: centerX, centerY: centerY,
	}
}

// toCell maps a projected point to a cell. Screen Y grows downward.
func (c *canvas) toCell(p astro.Point2) (int, int, bool) {
	x := c.cx + int(math.Round((p.X-c.centerX)*c.sx))
	y := c.cy - int(math.Round((p.Y-c.centerY)*c.sy))
	return x, y, x >= 0 && x < c.w && y >= 0 && y < c.h
}

func (c *canvas) plot(p astro.Point2, ch rune, color string, bold bool) (int, int, bool) {
	x, y, ok := c.toCell(p)
	if ok {
		c.cells[y][x] = cell{ch: ch, color: color, bold: bold}
	}
	return x, y, ok
}

// plotIfEmpty never overwrites anything already drawn.
func (c *canvas) plotIfEmpty(p astro.Point2, ch rune, color string) {
	x, y, ok := c.toCell(p)
	if ok && c.cells[y][x].ch == ' ' {
		c.cells[y][x] = cell{ch: ch, color: color}
	}
}

func (c *canvas) text(x, y int, s, color string, bold bool) {
	if y < 0 || y >= c.h {
		return
	}
	for i, r := range []rune(s) {
		if x+i < 0 || x+i >= c.w {
			continue
		}
		if cur := c.cells[y][x+i].ch; cur == ' ' || cur == '·' || cur == '∙' {
			c.cells[y][x+i] = cell{ch: r, color: color, bold: bold}
		}
	}
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	color     string
	isFocused bool
}

func (m OrreryModel) buildCanvas() string {
	// Reserve space for HUD (2 lines)
	canvasH := m.height - 3
	if canvasH < 5 {
		canvasH = 5
	}
	zoom := m.snap.Zoom
	if zoom <= 0 {
		zoom = sim.DefaultConfig().Zoom
	}
	c := newCanvas(m.width, canvasH, zoom, m.centerX, m.centerY)

	// Belt first, dimmest layer
	for _, p := range m.frame.Belt {
		c.plotIfEmpty(p, '·', "238")
	}

	// Highlighted orbits and trails
	for _, b := range m.frame.Bodies {
		for _, p := range b.Orbit {
			c.plotIfEmpty(p, '·', b.Color)
		}
		if m.showTrails {
			for _, p := range b.Trail {
				c.plotIfEmpty(p, '∙', b.Color)
			}
		}
	}

	// Bodies in catalog order
	var positions []bodyPos
	for i, b := range m.frame.Bodies {
		glyph := '•'
		if b.RadiusPx >= 3 {
			glyph = '●'
		}
		focused := i == m.focusIdx
		if focused {
			glyph = '◉'
		}
		x, y, ok := c.plot(b.Screen, glyph, b.Color, focused)
		if !ok {
			continue
		}
		positions = append(positions, bodyPos{x: x, y: y, name: b.Name, color: b.Color, isFocused: focused})
	}

	// Sun last so it's always visible
	if x, y, ok := c.plot(astro.Point2{}, '☉', "220", true); ok {
		positions = append(positions, bodyPos{x: x, y: y, name: "Sun", color: "220", isFocused: m.focusIdx == -1})
	}

	m.renderLabels(c, positions)
	return renderCells(c.cells)
}

func (m OrreryModel) renderLabels(c *canvas, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}
		label := pos.name
		if pos.isFocused {
			label = "◄ " + pos.name
		}
		c.text(pos.x+2, pos.y, label, "249", pos.isFocused)
	}
}

func renderCells(cells [][]cell) string {
	styles := make(map[string]lipgloss.Style)
	styleFor := func(color string, bold bool) lipgloss.Style {
		key := color
		if bold {
			key += "!"
		}
		st, ok := styles[key]
		if !ok {
			st = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(bold)
			styles[key] = st
		}
		return st
	}

	var b strings.Builder
	for _, row := range cells {
		for _, c := range row {
			if c.ch == ' ' || c.color == "" {
				b.WriteRune(c.ch)
				continue
			}
			b.WriteString(styleFor(c.color, c.bold).Render(string(c.ch)))
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if m.focusIdx >= 0 && m.focusIdx < len(m.frame.Bodies) {
		body := m.frame.Bodies[m.focusIdx]
		b.WriteString(headerStyle.Render("◆ " + body.Name))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Sun: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU", body.DistanceAU)))
		if earth, ok := m.earth(); ok && body.Name != "Earth" {
			d := astro.Distance(body.Position, earth)
			b.WriteString("  ")
			b.WriteString(labelStyle.Render("Earth: "))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU, %.1fM km (%s)",
				d, astro.AUToKm(d)/1e6, astro.FormatLightTime(astro.LightTime(d)))))

			sky := astro.Geocentric(body.Position, earth)
			elong := astro.Elongation(body.Position, earth)
			b.WriteString("  ")
			b.WriteString(labelStyle.Render("RA/Dec: "))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f° %+.1f°", sky.RADeg, sky.DecDeg)))
			b.WriteString("  ")
			b.WriteString(labelStyle.Render("Elong: "))
			b.WriteString(glareStyle(astro.GetGlareTier(elong)).Render(fmt.Sprintf("%.0f°", elong)))
		}
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Ecl: "))
		ecl := astro.EclipticOf(body.Position)
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°, %.1f°", ecl.LonDeg, ecl.LatDeg)))
	} else {
		b.WriteString(headerStyle.Render("☉ Sun"))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("(center of view)"))
	}
	b.WriteString("\n")

	labelName := [...]string{"off", "focus", "all"}[m.labelMode]
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	pairs := []struct{ k, v string }{
		{"Zoom:", fmt.Sprintf("%.0f px/AU", m.snap.Zoom)},
		{"Tilt:", fmt.Sprintf("%.0f°", m.snap.TiltDeg)},
		{"Belt:", onOff(m.snap.ShowAsteroids)},
		{"Trails:", onOff(m.showTrails)},
		{"Labels:", labelName},
	}
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(dimStyle.Render(p.k))
		b.WriteString(valueStyle.Render(p.v))
	}
	return b.String()
}

// glareStyle colors an elongation by how observable it leaves the body.
func glareStyle(t astro.GlareTier) lipgloss.Style {
	switch t {
	case astro.GlareLost:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	case astro.GlareCaution:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	}
}

func (m OrreryModel) earth() (astro.Vec3, bool) {
	for _, b := range m.frame.Bodies {
		if b.Name == "Earth" {
			return b.Position, true
		}
	}
	return astro.Vec3{}, false
}
