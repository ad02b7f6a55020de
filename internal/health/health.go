// Package health serves liveness and readiness probes.
package health

import (
	"net/http"
	"sync/atomic"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readiness flips to ready once the server has its catalog and engine wired.
type Readiness struct {
	ready atomic.Bool
}

// SetReady marks the service ready or not.
func (rd *Readiness) SetReady(ok bool) { rd.ready.Store(ok) }

// Ready reports the current state.
func (rd *Readiness) Ready() bool { return rd.ready.Load() }

// Readyz returns 200 "ready\n" when ready and 503 otherwise.
func (rd *Readiness) Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if !rd.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}
