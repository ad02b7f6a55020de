// Command ls-impact is a terminal orrery and asteroid impact calculator.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/config"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/logging"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
	"github.com/litescript/ls-impact/internal/ui"
	"github.com/litescript/ls-impact/internal/version"
)

var (
	v       = config.New()
	cfgFile string
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "ls-impact",
	Short: "Terminal orrery and asteroid impact calculator",
	Long: `ls-impact animates the inner solar system and a set of near-Earth asteroids
on Keplerian orbits, and estimates what happens when one of them hits the Earth.

Run without arguments for the interactive view, or use a subcommand for
scriptable output.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ls-impact.toml in the config search path)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("neo-api-key", "", "NEO feed API key (default DEMO_KEY)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the TUI runs")
	rootCmd.Flags().Float64("rate", 0, "initial simulation rate in sim seconds per wall second")
	rootCmd.Flags().Float64("tilt", 0, "initial view tilt in degrees")

	mustBind("log_level", pf.Lookup("log-level"))
	mustBind("neo.api_key", pf.Lookup("neo-api-key"))
	mustBind("sim.rate", rootCmd.Flags().Lookup("rate"))
	mustBind("sim.tilt_deg", rootCmd.Flags().Lookup("tilt"))
}

func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the merged configuration and builds the logger.
func loadConfig() (config.Config, *logging.Logger, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	if f := config.UsedFile(v); f != "" {
		logger.Debug("Using config file %s", f)
	}
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newEngine(c impact.Constants) (*impact.Engine, error) {
	e, err := impact.NewEngine(c)
	if err != nil {
		return nil, fmt.Errorf("impact constants: %w", err)
	}
	return e, nil
}

func newFetcher(c config.NEOConfig) *neo.Fetcher {
	return neo.NewFetcher(
		neo.WithURL(c.URL),
		neo.WithAPIKey(c.APIKey),
		neo.WithTimeout(c.Timeout),
		neo.WithRateLimit(c.RatePerSec),
	)
}

func newManager(c config.SimConfig, start time.Time) *sim.Manager {
	sc := sim.DefaultConfig()
	sc.Rate = c.Rate
	sc.TiltDeg = c.TiltDeg
	return sim.NewManager(sc, start)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal; use a subcommand (impact, positions, neo, serve) for scripted output")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs would tear the alt screen; keep them only if a file was asked for.
	logger.SetOutput(io.Discard)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	engine, err := newEngine(cfg.Impact)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	mgr := newManager(cfg.Sim, time.Now())
	model := ui.New(mgr, catalog.New(), engine, newFetcher(cfg.NEO))

	logger.Info("Starting TUI (rate %s, tilt %.0f°)", sim.FormatRate(cfg.Sim.Rate), cfg.Sim.TiltDeg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
