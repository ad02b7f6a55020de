// Package api serves the catalog, the simulation clock, impact evaluation and
// the NEO feed over HTTP, plus a websocket stream of rendered frames.
package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/litescript/ls-impact/internal/catalog"
	"github.com/litescript/ls-impact/internal/config"
	"github.com/litescript/ls-impact/internal/health"
	"github.com/litescript/ls-impact/internal/impact"
	"github.com/litescript/ls-impact/internal/logging"
	"github.com/litescript/ls-impact/internal/metrics"
	"github.com/litescript/ls-impact/internal/neo"
	"github.com/litescript/ls-impact/internal/sim"
)

// FeedSource fetches NEO approach records. *neo.Fetcher satisfies it.
type FeedSource interface {
	Fetch(ctx context.Context, start, end time.Time) neo.FetchResult
}

// Deps are the shared components the handlers operate on.
type Deps struct {
	Catalog *catalog.Catalog
	Manager *sim.Manager
	Engine  *impact.Engine
	Feed    FeedSource // optional; nil disables /api/v1/neo
	Logger  *logging.Logger
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	deps       Deps
	cfg        config.ServerConfig
	log        *logging.Logger
	ready      *health.Readiness
	streams    *streamLimiter
}

// NewServer creates a configured HTTP server.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Engine == nil {
		deps.Engine = impact.Default()
	}
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		log:     deps.Logger.With("component", "api"),
		ready:   &health.Readiness{},
		streams: newStreamLimiter(maxStreamsPerIP, cfg.MaxStreams),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", s.ready.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/bodies", s.handleListBodies)
	mux.HandleFunc("POST /api/v1/bodies", s.handleAddBody)
	mux.HandleFunc("DELETE /api/v1/bodies/{name}", s.handleRemoveBody)
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("POST /api/v1/impact", s.handleImpact)
	mux.HandleFunc("GET /api/v1/presets", s.handlePresets)
	mux.HandleFunc("GET /api/v1/neo", s.handleNEO)
	mux.HandleFunc("GET /api/v1/clock", s.handleClock)
	mux.HandleFunc("POST /api/v1/clock", s.handleClockControl)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Build middleware chain: metrics -> logging -> rate limit -> mux.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(newIPRateLimiter(cfg.RatePerSec, cfg.Burst), cfg.TrustProxy)(handler)
	handler = loggingMiddleware(s.log, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if deps.Catalog != nil && deps.Manager != nil {
		s.ready.SetReady(true)
	}
	return s
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// RunClock advances the shared simulation clock by wall time until ctx is done.
func (s *Server) RunClock(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.deps.Manager.Advance(now.Sub(last))
			last = now
		}
	}
}

// Shutdown drains the server, marking it unready first so probes stop routing.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("api: underlying ResponseWriter does not support hijacking")
	}
	sr.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *logging.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			l := logger.With(
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", clientIP(r, trustProxy),
			)
			if probePath(r.URL.Path) {
				l.Debug("request")
				return
			}
			l.Info("request")
		})
	}
}
