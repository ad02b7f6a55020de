package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/report"
	"github.com/litescript/ls-impact/internal/sim"
)

// Editable fields in form order.
type impactField int

const (
	fieldDiameter impactField = iota
	fieldDensity
	fieldVelocity
	fieldAngle
	fieldTarget
	fieldLat
	fieldLon
	numFields
)

var fieldNames = [numFields]string{"Diameter", "Density", "Velocity", "Angle", "Target", "Latitude", "Longitude"}

var materials = []impact.Material{impact.Stone, impact.Iron, impact.Carbon}

// historyRows is how many past launches the view lists.
const historyRows = 5

// LaunchMsg reports an evaluated launch for the root model to record.
type LaunchMsg struct {
	Source string
	Site   astro.Site
	Result impact.Result
}

// ImpactModel edits a scenario, evaluates it and shows the result.
type ImpactModel struct {
	width  int
	height int
	engine *impact.Engine

	params   impact.Params
	material int // index into materials, -1 when density was edited by hand
	source   string
	site     astro.Site
	field    impactField

	presetIdx int
	neoObjs   []neo.Object
	neoIdx    int
	neoState  string // loading / error text, empty when loaded

	result   *impact.Result
	err      error
	launches []sim.Launch
}

// NewImpactModel creates an impact view starting from the first preset.
func NewImpactModel(engine *impact.Engine) ImpactModel {
	if engine == nil {
		engine = impact.Default()
	}
	m := ImpactModel{
		engine:    engine,
		presetIdx: -1,
		neoIdx:    -1,
		material:  -1,
		site:      astro.Site{LatDeg: 0, LonDeg: 0},
		neoState:  "not loaded",
	}
	m.nextPreset()
	return m
}

// SetSize updates the viewport size.
func (m ImpactModel) SetSize(width, height int) ImpactModel {
	m.width = width
	m.height = height
	return m
}

// Params returns the scenario as currently edited.
func (m ImpactModel) Params() impact.Params {
	return m.params
}

// Result returns the last successful evaluation, if any.
func (m ImpactModel) Result() (impact.Result, bool) {
	if m.result == nil {
		return impact.Result{}, false
	}
	return *m.result, true
}

// SetLaunches replaces the launch history shown under the form.
func (m ImpactModel) SetLaunches(l []sim.Launch) ImpactModel {
	m.launches = l
	return m
}

// SetNEOLoading marks the feed as in flight.
func (m ImpactModel) SetNEOLoading() ImpactModel {
	m.neoState = "loading…"
	return m
}

// SetNEOObjects installs the feed's objects as selectable sources.
func (m ImpactModel) SetNEOObjects(objs []neo.Object) ImpactModel {
	m.neoObjs = objs
	m.neoIdx = -1
	m.neoState = ""
	return m
}

// SetNEOError records a failed feed load.
func (m ImpactModel) SetNEOError(err error) ImpactModel {
	m.neoState = "unavailable: " + err.Error()
	return m
}

// Update handles input messages.
func (m ImpactModel) Update(msg tea.Msg) (ImpactModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.field = (m.field + numFields - 1) % numFields
	case "down", "j":
		m.field = (m.field + 1) % numFields
	case "right", "l":
		m.adjust(1)
	case "left", "h":
		m.adjust(-1)
	case "m":
		m.material = (m.material + 1) % len(materials)
		m.params.DensityKgM3 = materials[m.material].Density()
	case "t":
		m.toggleTarget()
	case "p":
		m.nextPreset()
	case "n":
		m.stepNEO(1)
	case "N":
		m.stepNEO(-1)
	case "enter":
		return m.launch()
	}
	return m, nil
}

func (m *ImpactModel) adjust(dir float64) {
	p := &m.params
	switch m.field {
	case fieldDiameter:
		p.DiameterM = math.Max(1, p.DiameterM*math.Pow(1.25, dir))
	case fieldDensity:
		p.DensityKgM3 = math.Max(100, p.DensityKgM3+100*dir)
		m.material = -1
	case fieldVelocity:
		p.VelocityKmS = math.Max(0.5, p.VelocityKmS+0.5*dir)
	case fieldAngle:
		p.ImpactAngleDeg = math.Max(5, math.Min(90, p.ImpactAngleDeg+5*dir))
	case fieldTarget:
		m.toggleTarget()
	case fieldLat:
		m.site.LatDeg = math.Max(-90, math.Min(90, m.site.LatDeg+dir))
	case fieldLon:
		lon := m.site.LonDeg + dir
		if lon > 180 {
			lon -= 360
		} else if lon < -180 {
			lon += 360
		}
		m.site.LonDeg = lon
	}
	m.markCustom()
}

func (m *ImpactModel) toggleTarget() {
	if m.params.Target == impact.Ocean {
		m.params.Target = impact.Land
	} else {
		m.params.Target = impact.Ocean
	}
}

// markCustom notes that the scenario no longer matches its source.
func (m *ImpactModel) markCustom() {
	if m.field == fieldTarget || m.field == fieldLat || m.field == fieldLon {
		return
	}
	if m.source != "" && !strings.HasSuffix(m.source, "*") {
		m.source += "*"
	}
}

func (m *ImpactModel) nextPreset() {
	presets := impact.Presets()
	if len(presets) == 0 {
		return
	}
	m.presetIdx = (m.presetIdx + 1) % len(presets)
	p := presets[m.presetIdx]
	m.params = p.Params
	m.source = p.Name
	m.material = -1
}

func (m *ImpactModel) stepNEO(dir int) {
	if len(m.neoObjs) == 0 {
		return
	}
	n := len(m.neoObjs)
	m.neoIdx = ((m.neoIdx+dir)%n + n) % n
	o := m.neoObjs[m.neoIdx]

	density := m.params.DensityKgM3
	if density <= 0 {
		density = impact.Stone.Density()
	}
	angle := m.params.ImpactAngleDeg
	if angle <= 0 {
		angle = impact.DefaultAngleDeg
	}
	m.params = o.ImpactParams(density, angle, m.params.Target)
	m.source = neo.CleanName(o.Name)
}

func (m ImpactModel) launch() (ImpactModel, tea.Cmd) {
	res, err := m.engine.Evaluate(m.params)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.result = &res
	msg := LaunchMsg{Source: m.source, Site: m.site, Result: res}
	return m, func() tea.Msg { return msg }
}

// View renders the impact view.
func (m ImpactModel) View() string {
	form := m.renderForm()
	panel := m.renderResult()
	top := lipgloss.JoinHorizontal(lipgloss.Top, form, "    ", panel)
	return lipgloss.JoinVertical(lipgloss.Left, top, "", m.renderHistory())
}

func (m ImpactModel) fieldValue(f impactField) string {
	p := m.params
	switch f {
	case fieldDiameter:
		return fmt.Sprintf("%.0f m", p.DiameterM)
	case fieldDensity:
		if m.material >= 0 {
			return fmt.Sprintf("%.0f kg/m³ (%s)", p.DensityKgM3, strings.ToLower(string(materials[m.material])))
		}
		return fmt.Sprintf("%.0f kg/m³", p.DensityKgM3)
	case fieldVelocity:
		return fmt.Sprintf("%.1f km/s", p.VelocityKmS)
	case fieldAngle:
		return fmt.Sprintf("%.0f°", p.ImpactAngleDeg)
	case fieldTarget:
		return string(p.Target)
	case fieldLat:
		return fmt.Sprintf("%.1f°", m.site.LatDeg)
	case fieldLon:
		return fmt.Sprintf("%.1f°", m.site.LonDeg)
	}
	return ""
}

func (m ImpactModel) renderForm() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))

	b.WriteString(headerStyle.Render("☄ " + m.source))
	b.WriteString("\n\n")
	for f := impactField(0); f < numFields; f++ {
		marker := "  "
		vs := valueStyle
		if f == m.field {
			marker = "▶ "
			vs = selStyle
		}
		b.WriteString(marker)
		b.WriteString(labelStyle.Render(fieldNames[f]))
		b.WriteString(vs.Render(m.fieldValue(f)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	neoLine := fmt.Sprintf("NEO feed: %d objects", len(m.neoObjs))
	if m.neoState != "" {
		neoLine = "NEO feed: " + m.neoState
	}
	b.WriteString(dimStyle.Render(neoLine))
	if m.err != nil {
		b.WriteString("\n")
		var ve *impact.ValidationError
		if errors.As(m.err, &ve) {
			b.WriteString(errStyle.Render(fmt.Sprintf("✗ %s: %s", ve.Field, ve.Reason)))
		} else {
			b.WriteString(errStyle.Render("✗ " + m.err.Error()))
		}
	}
	return b.String()
}

func (m ImpactModel) renderResult() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if m.result == nil {
		return dimStyle.Render("Press enter to launch")
	}
	r := *m.result

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	waveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	km := func(v float64) string {
		if v == 0 {
			return "-"
		}
		return fmt.Sprintf("%.2f km", v)
	}
	rows := []struct{ k, v string }{
		{"Yield", report.FormatYield(r.EnergyMegatons)},
		{"Energy", fmt.Sprintf("%.2e J", r.EnergyJ)},
		{"Crater", km(r.CraterDiameterKm)},
		{"Fireball", km(r.FireballRadiusKm)},
		{"Blast 20/5/1 psi", fmt.Sprintf("%.1f / %.1f / %.1f km", r.Blast.Severe20Psi, r.Blast.Moderate5Psi, r.Blast.Light1Psi)},
		{"Thermal", km(r.ThermalRadiusKm)},
		{"Seismic", fmt.Sprintf("M %.1f", r.SeismicMagnitude)},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Result"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row.k))
		b.WriteString(valueStyle.Render(row.v))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("Tsunami"))
	if r.Tsunami.IsTsunami {
		b.WriteString(waveStyle.Render(fmt.Sprintf("%.1f m (%s)", r.Tsunami.WaveHeightM, r.Tsunami.Severity)))
	} else {
		b.WriteString(valueStyle.Render("none"))
	}
	return b.String()
}

func (m ImpactModel) renderHistory() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	if len(m.launches) == 0 {
		return dimStyle.Render("No launches yet")
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render("Recent launches"))
	start := max(0, len(m.launches)-historyRows)
	for i := len(m.launches) - 1; i >= start; i-- {
		l := m.launches[i]
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf("#%-3d %-14s %s  %10s  %s",
			l.ID,
			truncate(l.Body, 14),
			l.SimTime.Format("2006-01-02"),
			report.FormatYield(l.Result.EnergyMegatons),
			l.Result.Params.Target,
		)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
