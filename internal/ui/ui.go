// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
	"github.com/litescript/ls-impact/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewOrrery ViewMode = iota
	ViewImpact
	numViews
)

// Animation tick interval (~12 fps).
const animInterval = 80 * time.Millisecond

// Timeout for one background feed load.
const neoLoadTimeout = 45 * time.Second

// FeedSource fetches NEO approach records. *neo.Fetcher satisfies it.
type FeedSource interface {
	Fetch(ctx context.Context, start, end time.Time) neo.FetchResult
}

// Msg types for Bubble Tea
type (
	// AnimTickMsg advances the clock and triggers a redraw.
	AnimTickMsg time.Time

	// NEOLoadedMsg carries a finished feed fetch.
	NEOLoadedMsg struct {
		Result neo.FetchResult
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	manager *sim.Manager
	catalog *catalog.Catalog
	feed    FeedSource

	// UI state
	viewMode ViewMode
	width    int
	height   int
	ready    bool
	animTick int
	lastTick time.Time
	err      error // shown in the footer until the next successful load

	// Sub-models
	orrery OrreryModel
	impact ImpactModel

	snapshot sim.Snapshot
}

// New creates a new root UI model. feed may be nil, which disables the NEO
// source in the impact view.
func New(mgr *sim.Manager, cat *catalog.Catalog, engine *impact.Engine, feed FeedSource) Model {
	m := Model{
		manager:  mgr,
		catalog:  cat,
		feed:     feed,
		viewMode: ViewOrrery,
		orrery:   NewOrreryModel(),
		impact:   NewImpactModel(engine),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(animTickCmd(), loadNEOCmd(m.feed, time.Now()))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "o":
			m.viewMode = ViewOrrery
		case "2", "i":
			m.viewMode = ViewImpact
		case "tab":
			m.viewMode = (m.viewMode + 1) % numViews

		// Clock controls work in every view
		case " ":
			m.manager.TogglePlaying()
			m.refresh()
		case ".":
			m.manager.Faster()
			m.refresh()
		case ",":
			m.manager.Slower()
			m.refresh()
		case ">":
			m.manager.Step(1)
			m.refresh()
		case "<":
			m.manager.Step(-1)
			m.refresh()
		case "0":
			m.manager.Reset(time.Now())
			m.refresh()

		case "ctrl+r":
			if m.feed != nil {
				m.impact = m.impact.SetNEOLoading()
				cmds = append(cmds, loadNEOCmd(m.feed, time.Now()))
			}

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header takes ~4 lines, footer ~2
		contentHeight := msg.Height - 7
		m.orrery = m.orrery.SetSize(msg.Width, contentHeight)
		m.impact = m.impact.SetSize(msg.Width, contentHeight)

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		now := time.Time(msg)
		if !m.lastTick.IsZero() && now.After(m.lastTick) {
			m.manager.Advance(now.Sub(m.lastTick))
		}
		m.lastTick = now
		m.animTick++
		m.refresh()

	case NEOLoadedMsg:
		if msg.Result.Error != nil {
			m.err = fmt.Errorf("NEO feed: %w", msg.Result.Error)
			m.impact = m.impact.SetNEOError(msg.Result.Error)
		} else {
			m.err = nil
			m.impact = m.impact.SetNEOObjects(msg.Result.Feed.Objects)
		}

	case LaunchMsg:
		m.manager.RecordLaunch(sim.Launch{Body: msg.Source, Site: msg.Site, Result: msg.Result})
		m.refresh()

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewOrrery:
		var act orreryAction
		m.orrery, act = m.orrery.Update(msg)
		if !act.empty() {
			m.apply(act)
		}
	case ViewImpact:
		m.impact, cmd = m.impact.Update(msg)
	}
	return cmd
}

func (m *Model) apply(act orreryAction) {
	if act.zoom != 0 {
		m.manager.ScaleZoom(act.zoom)
	}
	if act.tilt != 0 {
		m.manager.AdjustTilt(act.tilt)
	}
	if act.toggleBelt {
		m.manager.ToggleAsteroids()
	}
	if act.highlight != "" {
		m.manager.ToggleHighlight(act.highlight)
	}
	m.refresh()
}

// refresh takes a fresh snapshot and rebuilds the frame from it.
func (m *Model) refresh() {
	m.snapshot = m.manager.Snapshot()
	opts := sim.FrameOptions{Trails: m.orrery.ShowTrails(), Belt: true}
	frame := sim.BuildFrame(m.snapshot, m.catalog.Bodies(), opts)
	m.orrery = m.orrery.UpdateFrame(m.snapshot, frame)
	m.impact = m.impact.SetLaunches(m.snapshot.Launches)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewOrrery:
		content = m.orrery.View()
	case ViewImpact:
		content = m.impact.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n  ")

	title := "☄ LS-IMPACT"
	runes := []rune(title)
	for col, r := range runes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(col, 0, len(runes), 1))).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  Orbits · Impacts  v%s", version.Version)))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink, darker toward the bottom.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	f := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*f), clampByte(g*f), clampByte(b*f))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Orrery", "[2] Impact"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	state := "⏸"
	if m.snapshot.Playing {
		state = spinnerFrames[m.animTick%len(spinnerFrames)]
	}
	clock := accentStyle.Render(state) + " " +
		valueStyle.Render(m.snapshot.SimTime.Format("2006-01-02 15:04 MST")) + " " +
		dimStyle.Render(sim.FormatRate(m.snapshot.Rate))

	var help string
	switch m.viewMode {
	case ViewImpact:
		help = "↑↓: field | ←→: adjust | m: material | t: target | p: preset | n/N: NEO | enter: launch"
	default:
		help = "j/k: focus | arrows: pan | +/-: zoom | w/s: tilt | a: belt | h: orbit | t: trails | l: labels"
	}
	footer := "  " + clock + "  " + dimStyle.Render("|") + "  " +
		dimStyle.Render("space: play | ,/.: rate | </>: step | 0: now") + "\n  " + dimStyle.Render(help)

	if m.err != nil {
		footer += "\n  " + errorStyle.Render("ERROR: "+m.err.Error())
	}
	return footer
}

func animTickCmd() tea.Cmd {
	return tea.Tick(animInterval, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// loadNEOCmd fetches the feed window starting at day in the background.
func loadNEOCmd(feed FeedSource, day time.Time) tea.Cmd {
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), neoLoadTimeout)
		defer cancel()
		start, end := neo.Window(day)
		return NEOLoadedMsg{Result: feed.Fetch(ctx, start, end)}
	}
}
