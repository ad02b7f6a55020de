// Package metrics exposes Prometheus instrumentation for the HTTP host, the
// impact engine, the NEO feed client and the frame stream.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsimpact_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"route", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lsimpact_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	impactEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsimpact_impact_evaluations_total",
			Help: "Impact scenarios evaluated, by target medium and outcome.",
		},
		[]string{"target", "outcome"},
	)

	impactYieldMegatons = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lsimpact_impact_yield_megatons",
			Help:    "Yield of evaluated impact scenarios in megatons TNT.",
			Buckets: prometheus.ExponentialBuckets(0.001, 10, 12),
		},
	)

	neoFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsimpact_neo_fetches_total",
			Help: "NEO feed fetches, by result.",
		},
		[]string{"result"},
	)

	neoFetchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lsimpact_neo_fetch_duration_seconds",
			Help:    "NEO feed fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lsimpact_stream_clients",
			Help: "Connected frame stream clients.",
		},
	)

	streamFramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lsimpact_stream_frames_total",
			Help: "Frames written to stream clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(impactEvaluationsTotal)
	prometheus.MustRegister(impactYieldMegatons)
	prometheus.MustRegister(neoFetchesTotal)
	prometheus.MustRegister(neoFetchSeconds)
	prometheus.MustRegister(streamClients)
	prometheus.MustRegister(streamFramesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveImpact records one evaluation. A nil err counts the yield.
func ObserveImpact(target string, yieldMt float64, err error) {
	if err != nil {
		impactEvaluationsTotal.WithLabelValues(target, "rejected").Inc()
		return
	}
	impactEvaluationsTotal.WithLabelValues(target, "ok").Inc()
	impactYieldMegatons.Observe(yieldMt)
}

// ObserveNEOFetch records a feed fetch.
func ObserveNEOFetch(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	neoFetchesTotal.WithLabelValues(result).Inc()
	neoFetchSeconds.Observe(d.Seconds())
}

// StreamOpened and StreamClosed track live stream connections.
func StreamOpened() { streamClients.Inc() }
func StreamClosed() { streamClients.Dec() }

// FrameSent counts a frame written to a stream client.
func FrameSent() { streamFramesTotal.Inc() }

// responseWriter wraps http.ResponseWriter to capture the status code. It
// passes hijacking through so websocket upgrades still work.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: underlying ResponseWriter does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request, labelled
// by the matched route pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
