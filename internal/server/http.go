// Package server assembles the HTTP surface: routes, middleware chain, and
// their dependencies.
package server

import (
	"net/http"

	"go.opentelemetry.io/otel/metric"

	"it-snapshot-inventory/internal/audit"
	healthhandler "it-snapshot-inventory/internal/health/handler"
	ingesthandler "it-snapshot-inventory/internal/ingest/handler"
	inventoryhandler "it-snapshot-inventory/internal/inventory/handler"
	"it-snapshot-inventory/internal/security"
	"it-snapshot-inventory/internal/server/middleware"
)

// publicPaths never require a credential and are never audited or measured.
var publicPaths = map[string]bool{"/healthz": true}

// Deps holds the handler dependencies for the HTTP server.
type Deps struct {
	// Ingest serves POST /ingest. Required.
	Ingest *ingesthandler.Server
	// Query serves the /devices endpoints. Required.
	Query *inventoryhandler.Server
	// Health serves GET /healthz. Required.
	Health *healthhandler.Server
	// Verifier gates every non-public path on X-API-Key. Required.
	Verifier *security.KeyVerifier
	// AuditLogger records per-request audit entries. Nil disables auditing.
	AuditLogger audit.AuditLogger
	// Meter records request metrics. Nil disables them.
	Meter metric.Meter
}

// NewHandler builds the routed and middleware-wrapped HTTP handler.
//
// Route → handler mapping:
//   - POST /ingest                      → internal/ingest/handler
//   - GET  /devices                     → internal/inventory/handler
//   - GET  /devices/{key}/latest        → internal/inventory/handler
//   - GET  /devices/{key}/reports       → internal/inventory/handler
//   - GET  /healthz                     → internal/health/handler
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", deps.Ingest.Ingest)
	mux.HandleFunc("GET /devices", deps.Query.ListDevices)
	mux.HandleFunc("GET /devices/{key}/latest", deps.Query.LatestReport)
	mux.HandleFunc("GET /devices/{key}/reports", deps.Query.ReportHistory)
	mux.HandleFunc("GET /healthz", deps.Health.Healthz)

	// Innermost to outermost: audit sees authenticated traffic only, metrics
	// and client IP see everything.
	var h http.Handler = mux
	h = middleware.Audit(deps.AuditLogger, publicPaths)(h)
	h = middleware.Auth(deps.Verifier, publicPaths)(h)
	h = middleware.Telemetry(deps.Meter, publicPaths)(h)
	h = middleware.WithClientIP(h)
	return h
}
