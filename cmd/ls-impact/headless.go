package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-impact/internal/astro"
	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/report"
	"github.com/litescript/ls-impact/internal/sim"
	"github.com/litescript/ls-impact/internal/version"
)

const dateLayout = "2006-01-02"

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Evaluate one impact scenario",
	Long: `Evaluate an impact from a preset, a material, explicit parameters, or a mix.
Explicit flags override the material density, which overrides the preset.

Examples:
  ls-impact impact --preset chelyabinsk
  ls-impact impact --diameter 100 --material stone --velocity 20 --target ocean
  ls-impact impact --preset bennu --lat 40.7 --lon -74 --json`,
	Args: cobra.NoArgs,
	RunE: runImpact,
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Print heliocentric body positions at an instant",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

var neoCmd = &cobra.Command{
	Use:   "neo",
	Short: "List near-Earth object close approaches and their impact yields",
	Args:  cobra.NoArgs,
	RunE:  runNEO,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ls-impact %s\n", version.Version)
	},
}

// Command-line flags for the headless commands
var (
	// impact
	impPreset     string
	impMaterial   string
	impTarget     string
	impCoupling   string
	impDiameter   float64
	impDensity    float64
	impVelocity   float64
	impAngle      float64
	impLat        float64
	impLon        float64
	impRingPoints int

	// positions
	posAt    string
	posTilt  float64
	posTrail bool

	// neo
	neoStart     string
	neoEnd       string
	neoHazardous bool
	neoDensity   float64
	neoAngle     float64

	jsonOut bool
)

func init() {
	f := impactCmd.Flags()
	f.StringVar(&impPreset, "preset", "", "named scenario (apophis, bennu, chelyabinsk)")
	f.StringVar(&impMaterial, "material", "", "composition: stone, iron or carbon")
	f.StringVar(&impTarget, "target", "", "land or ocean (default land)")
	f.StringVar(&impCoupling, "coupling", "", "angle coupling: none or sine (default from config)")
	f.Float64Var(&impDiameter, "diameter", 0, "diameter in meters")
	f.Float64Var(&impDensity, "density", 0, "density in kg/m³")
	f.Float64Var(&impVelocity, "velocity", 0, "velocity in km/s")
	f.Float64Var(&impAngle, "angle", impact.DefaultAngleDeg, "impact angle in degrees from horizontal")
	f.Float64Var(&impLat, "lat", 0, "impact site latitude")
	f.Float64Var(&impLon, "lon", 0, "impact site longitude")
	f.IntVar(&impRingPoints, "ring-points", 64, "points per footprint ring in JSON output")
	f.BoolVar(&jsonOut, "json", false, "write JSON instead of a table")

	f = positionsCmd.Flags()
	f.StringVar(&posAt, "at", "", "instant as RFC3339 (default now)")
	f.Float64Var(&posTilt, "tilt", 0, "view tilt for screen coordinates (default from config)")
	f.BoolVar(&posTrail, "trail", false, "include trails in JSON output")
	f.BoolVar(&jsonOut, "json", false, "write JSON instead of a table")

	f = neoCmd.Flags()
	f.StringVar(&neoStart, "start", "", "first day YYYY-MM-DD (default today)")
	f.StringVar(&neoEnd, "end", "", "last day YYYY-MM-DD (default start + 7 days)")
	f.BoolVar(&neoHazardous, "hazardous", false, "only potentially hazardous objects")
	f.Float64Var(&neoDensity, "density", impact.Stone.Density(), "assumed density for yields in kg/m³")
	f.Float64Var(&neoAngle, "angle", impact.DefaultAngleDeg, "assumed impact angle for yields")
	f.BoolVar(&jsonOut, "json", false, "write JSON instead of a table")

	rootCmd.AddCommand(impactCmd, positionsCmd, neoCmd, versionCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if impCoupling != "" {
		cfg.Impact.Coupling = impact.Coupling(impCoupling)
	}
	engine, err := newEngine(cfg.Impact)
	if err != nil {
		return err
	}

	sc := impact.Scenario{Preset: impPreset, Material: impMaterial, Target: impTarget}
	flags := cmd.Flags()
	setIf := func(name string, val float64, dst **float64) {
		if flags.Changed(name) {
			x := val
			*dst = &x
		}
	}
	setIf("diameter", impDiameter, &sc.DiameterM)
	setIf("density", impDensity, &sc.DensityKgM3)
	setIf("velocity", impVelocity, &sc.VelocityKmS)
	setIf("angle", impAngle, &sc.ImpactAngleDeg)

	p, err := sc.Resolve()
	if err != nil {
		return err
	}
	res, err := engine.Evaluate(p)
	if err != nil {
		return err
	}

	var site *astro.Site
	if flags.Changed("lat") || flags.Changed("lon") {
		site = &astro.Site{LatDeg: impLat, LonDeg: impLon}
		if !site.Valid() {
			return fmt.Errorf("site %.2f, %.2f is out of range", impLat, impLon)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return report.WriteJSON(out, report.ExportImpact(res, engine.Constants(), impPreset, site, impRingPoints, time.Now().UTC()))
	}

	title := impPreset
	if title == "" {
		title = "custom"
	}
	report.WriteImpactTable(out, res, title)
	if site != nil {
		fmt.Fprintf(out, "\nSite %.2f°, %.2f°\n", site.LatDeg, site.LonDeg)
	}
	return nil
}

func runPositions(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	if posAt != "" {
		at, err = time.Parse(time.RFC3339, posAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}
	if cmd.Flags().Changed("tilt") {
		cfg.Sim.TiltDeg = posTilt
	}

	snap := newManager(cfg.Sim, at).Snapshot()
	frame := sim.BuildFrame(snap, catalog.New().Bodies(), sim.FrameOptions{Trails: posTrail})

	out := cmd.OutOrStdout()
	if jsonOut {
		return report.WriteJSON(out, report.ExportFrame(frame, time.Now().UTC()))
	}
	report.WritePositionTable(out, frame)
	return nil
}

func runNEO(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg.Impact)
	if err != nil {
		return err
	}

	start, end := neo.Window(time.Now())
	if neoStart != "" {
		day, err := time.Parse(dateLayout, neoStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		start, end = neo.Window(day)
	}
	if neoEnd != "" {
		end, err = time.Parse(dateLayout, neoEnd)
		if err != nil {
			return fmt.Errorf("parse --end: %w", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher := newFetcher(cfg.NEO)
	logger.Debug("Fetching NEO feed %s..%s", start.Format(dateLayout), end.Format(dateLayout))
	result := fetcher.Fetch(ctx, start, end)
	if result.Error != nil {
		return fmt.Errorf("fetch NEO feed: %w", result.Error)
	}
	logger.Debug("Fetched %d objects (%d skipped) in %v", len(result.Feed.Objects), result.Feed.Skipped, result.Duration)

	objs := result.Feed.Objects
	if neoHazardous {
		objs = neo.HazardousOnly(objs)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return report.WriteJSON(out, struct {
			Start   string       `json:"start"`
			End     string       `json:"end"`
			Objects []neo.Object `json:"objects"`
			Skipped int          `json:"skipped"`
		}{start.Format(dateLayout), end.Format(dateLayout), objs, result.Feed.Skipped})
	}
	fmt.Fprintf(out, "NEO close approaches %s .. %s\n\n", start.Format(dateLayout), end.Format(dateLayout))
	report.WriteNEOTable(out, objs, engine, neoDensity, neoAngle)
	if result.Feed.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d records skipped for missing size or velocity\n", result.Feed.Skipped)
	}
	return nil
}
