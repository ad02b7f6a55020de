// Package report renders impact results, position frames and NEO feeds as
// JSON documents and plain-text tables for headless use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
)

// ImpactExport is the JSON-serializable record of one evaluated scenario.
type ImpactExport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Body        string             `json:"body,omitempty"`
	Coupling    impact.Coupling    `json:"coupling"`
	Site        *astro.Site        `json:"site,omitempty"`
	Result      impact.Result      `json:"result"`
	Footprints  []impact.Footprint `json:"footprints,omitempty"`
}

// ExportImpact bundles a result with its context. Footprint rings are only
// computed when a site is given.
func ExportImpact(res impact.Result, c impact.Constants, body string, site *astro.Site, ringPoints int, generatedAt time.Time) *ImpactExport {
	export := &ImpactExport{
		GeneratedAt: generatedAt,
		Body:        body,
		Coupling:    c.Coupling,
		Site:        site,
		Result:      res,
	}
	if site != nil {
		export.Footprints = res.Footprints(*site, ringPoints)
	}
	return export
}

// BodyRow is a JSON-friendly body position with derived fields.
type BodyRow struct {
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	Position      astro.Vec3     `json:"position_au"`
	SunDistanceAU float64        `json:"sun_distance_au"`
	Ecliptic      astro.Ecliptic `json:"ecliptic"` // heliocentric

	// Seen from Earth; zero for Earth itself.
	EarthDistAU   float64          `json:"earth_distance_au"`
	EarthDistKm   float64          `json:"earth_distance_km"`
	LightTimeSec  float64          `json:"light_time_seconds"` // one way
	Sky           astro.Equatorial `json:"sky"`
	ElongationDeg float64          `json:"elongation_deg"`
	Glare         string           `json:"glare,omitempty"`
}

// FrameExport is a position frame plus per-body derived values.
type FrameExport struct {
	GeneratedAt time.Time `json:"generated_at"`
	SimTime     time.Time `json:"sim_time"`
	Days        float64   `json:"days_since_j2000"`
	TiltDeg     float64   `json:"tilt_deg"`
	Bodies      []BodyRow `json:"bodies"`
	Frame       sim.Frame `json:"frame"`
}

// ExportFrame converts a frame to an exportable format. Earth distances are
// zero when the frame has no Earth.
func ExportFrame(f sim.Frame, generatedAt time.Time) *FrameExport {
	export := &FrameExport{
		GeneratedAt: generatedAt,
		SimTime:     f.SimTime,
		Days:        f.Days,
		TiltDeg:     f.TiltDeg,
		Frame:       f,
	}

	var earth *astro.Vec3
	for i := range f.Bodies {
		if f.Bodies[i].Name == "Earth" {
			earth = &f.Bodies[i].Position
			break
		}
	}

	for _, b := range f.Bodies {
		row := BodyRow{
			Name:          b.Name,
			Kind:          string(b.Kind),
			Position:      b.Position,
			SunDistanceAU: b.DistanceAU,
			Ecliptic:      astro.EclipticOf(b.Position),
		}
		if earth != nil && b.Name != "Earth" {
			row.EarthDistAU = astro.Distance(b.Position, *earth)
			row.EarthDistKm = astro.AUToKm(row.EarthDistAU)
			row.LightTimeSec = astro.LightTime(row.EarthDistAU).Seconds()
			row.Sky = astro.Geocentric(b.Position, *earth)
			row.ElongationDeg = astro.Elongation(b.Position, *earth)
			row.Glare = astro.GetGlareTier(row.ElongationDeg).String()
		}
		export.Bodies = append(export.Bodies, row)
	}
	return export
}

// WriteJSON writes v as indented JSON to the given writer.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteImpactTable writes a text summary of one result.
func WriteImpactTable(w io.Writer, res impact.Result, title string) {
	p := res.Params
	fmt.Fprintf(w, "Impact: %s\n", title)
	fmt.Fprintln(w, strings.Repeat("─", 48))
	fmt.Fprintf(w, "%-22s %.0f m, %.0f kg/m³, %.1f km/s, %.0f°, %s\n",
		"Impactor", p.DiameterM, p.DensityKgM3, p.VelocityKmS, p.ImpactAngleDeg, p.Target)
	fmt.Fprintln(w, strings.Repeat("─", 48))

	rows := []struct {
		label string
		value string
	}{
		{"Mass", fmt.Sprintf("%.3e kg", res.MassKg)},
		{"Kinetic energy", fmt.Sprintf("%.3e J", res.EnergyJ)},
		{"Yield", FormatYield(res.EnergyMegatons)},
		{"Crater diameter", formatKm(res.CraterDiameterKm)},
		{"Crater depth", formatKm(res.CraterDepthKm)},
		{"Fireball radius", formatKm(res.FireballRadiusKm)},
		{"Blast 20 psi", formatKm(res.Blast.Severe20Psi)},
		{"Blast 5 psi", formatKm(res.Blast.Moderate5Psi)},
		{"Blast 1 psi", formatKm(res.Blast.Light1Psi)},
		{"Thermal radius", formatKm(res.ThermalRadiusKm)},
		{"Seismic magnitude", fmt.Sprintf("%.1f", res.SeismicMagnitude)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-22s %s\n", r.label, r.value)
	}
	if res.Tsunami.IsTsunami {
		fmt.Fprintf(w, "%-22s %.1f m (%s)\n", "Tsunami wave", res.Tsunami.WaveHeightM, res.Tsunami.Severity)
	} else {
		fmt.Fprintf(w, "%-22s none\n", "Tsunami wave")
	}
}

// WritePositionTable writes one row per body.
func WritePositionTable(w io.Writer, f sim.Frame) {
	export := ExportFrame(f, time.Time{})

	fmt.Fprintf(w, "Positions @ %s (day %.2f since J2000)\n", f.SimTime.Format(time.RFC3339), f.Days)
	fmt.Fprintln(w, strings.Repeat("─", 100))
	if len(export.Bodies) == 0 {
		fmt.Fprintln(w, "No bodies")
		return
	}

	fmt.Fprintf(w, "%-12s %-8s %9s %9s %9s %9s %8s %10s %7s %6s %7s\n",
		"Body", "Kind", "X (AU)", "Y (AU)", "Z (AU)", "Sun (AU)", "Lon (°)", "Light", "RA (°)", "Dec", "Elong")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, b := range export.Bodies {
		light, ra, dec, elong := "-", "-", "-", "-"
		if b.EarthDistAU > 0 {
			light = astro.FormatLightTime(astro.LightTime(b.EarthDistAU))
			ra = fmt.Sprintf("%.1f", b.Sky.RADeg)
			dec = fmt.Sprintf("%+.1f", b.Sky.DecDeg)
			elong = fmt.Sprintf("%.0f°", b.ElongationDeg)
		}
		fmt.Fprintf(w, "%-12s %-8s %9.4f %9.4f %9.4f %9.4f %8.1f %10s %7s %6s %7s\n",
			truncateStr(b.Name, 12),
			b.Kind,
			b.Position.X, b.Position.Y, b.Position.Z,
			b.SunDistanceAU,
			b.Ecliptic.LonDeg,
			light, ra, dec, elong,
		)
	}
	fmt.Fprintf(w, "\nTotal: %d bodies\n", len(export.Bodies))
}

// WriteNEOTable lists feed objects with the yield each would have on land at
// the given density and angle.
func WriteNEOTable(w io.Writer, objs []neo.Object, e *impact.Engine, densityKgM3, angleDeg float64) {
	fmt.Fprintf(w, "%-24s %9s %8s %-10s %12s %4s\n", "Name", "Diam (m)", "km/s", "Approach", "Yield", "Haz")
	fmt.Fprintln(w, strings.Repeat("─", 74))
	if len(objs) == 0 {
		fmt.Fprintln(w, "No objects")
		return
	}
	for _, o := range objs {
		yield := "-"
		if res, err := e.Evaluate(o.ImpactParams(densityKgM3, angleDeg, impact.Land)); err == nil {
			yield = FormatYield(res.EnergyMegatons)
		}
		haz := ""
		if o.Hazardous {
			haz = "yes"
		}
		fmt.Fprintf(w, "%-24s %9.0f %8.2f %-10s %12s %4s\n",
			truncateStr(neo.CleanName(o.Name), 24),
			o.DiameterM,
			o.VelocityKmS,
			o.ApproachDate,
			yield,
			haz,
		)
	}
	fmt.Fprintf(w, "\nTotal: %d objects\n", len(objs))
}

// WriteLaunchTable lists recorded launches oldest first.
func WriteLaunchTable(w io.Writer, launches []sim.Launch) {
	if len(launches) == 0 {
		fmt.Fprintln(w, "No launches")
		return
	}
	fmt.Fprintf(w, "%-4s %-12s %-20s %12s %10s\n", "#", "Body", "Sim time", "Yield", "Crater")
	for _, l := range launches {
		body := l.Body
		if body == "" {
			body = "-"
		}
		fmt.Fprintf(w, "%-4d %-12s %-20s %12s %10s\n",
			l.ID,
			truncateStr(body, 12),
			l.SimTime.Format("2006-01-02 15:04"),
			FormatYield(l.Result.EnergyMegatons),
			formatKm(l.Result.CraterDiameterKm),
		)
	}
}

// FormatYield picks kilotons below one megaton and gigatons above a thousand.
func FormatYield(mt float64) string {
	switch {
	case mt < 1:
		return fmt.Sprintf("%.1f kt", mt*1000)
	case mt >= 1000:
		return fmt.Sprintf("%.2f Gt", mt/1000)
	default:
		return fmt.Sprintf("%.1f Mt", mt)
	}
}

func formatKm(km float64) string {
	switch {
	case km == 0:
		return "-"
	case km < 1:
		return fmt.Sprintf("%.0f m", km*1000)
	default:
		return fmt.Sprintf("%.2f km", km)
	}
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
