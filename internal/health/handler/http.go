// Package handler serves the liveness/readiness probe.
package handler

import (
	"context"
	"net/http"

	"it-snapshot-inventory/internal/server/httpx"
)

// Pinger checks that the backing store is reachable (e.g. the inventory store).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server answers /healthz. The probe needs no credential.
type Server struct {
	pinger Pinger
}

// NewServer returns a health server. pinger may be nil; then readiness skips
// the store check.
func NewServer(pinger Pinger) *Server {
	return &Server{pinger: pinger}
}

// Healthz reports process liveness and store readiness. A failing store ping
// degrades the response to 503 so load balancers stop routing here.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "store": "ok"}
	status := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body["store"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	} else {
		body["store"] = "skipped"
	}
	httpx.WriteJSON(w, status, body)
}
