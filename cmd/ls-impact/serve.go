package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-impact/internal/api"
	"github.com/litescript/ls-impact/internal/catalog"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation over HTTP and websocket",
	Long: `Serve the shared simulation: REST endpoints under /api/v1, a websocket
frame stream at /api/v1/stream, Prometheus metrics at /metrics, and
/healthz and /readyz probes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default 127.0.0.1:8080)")
	f.Float64("rate-limit", 0, "requests per second per client IP, 0 disables (default 20)")
	f.Int("stream-fps", 0, "websocket frames per second (default 10)")
	f.Bool("trust-proxy", false, "use X-Forwarded-For for client IPs")

	mustBind("server.addr", f.Lookup("addr"))
	mustBind("server.rate_per_sec", f.Lookup("rate-limit"))
	mustBind("server.stream_fps", f.Lookup("stream-fps"))
	mustBind("server.trust_proxy", f.Lookup("trust-proxy"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg.Impact)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := api.NewServer(cfg.Server, api.Deps{
		Catalog: catalog.New(),
		Manager: newManager(cfg.Sim, time.Now()),
		Engine:  engine,
		Feed:    newFetcher(cfg.NEO),
		Logger:  logger,
	})

	go srv.RunClock(ctx, time.Second/time.Duration(cfg.Server.StreamFPS))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
