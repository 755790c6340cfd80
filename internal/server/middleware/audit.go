package middleware

import (
	"net/http"

	"it-snapshot-inventory/internal/audit"
)

// Audit returns a middleware that records an audit entry after each request.
// skipPaths is the set of paths to not audit (the liveness probe). Writes are
// best-effort through the audit logger and never fail the request.
func Audit(logger audit.AuditLogger, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil || skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			rec := record(w)
			next.ServeHTTP(rec, r)

			ar := audit.ParseRoute(r.Method, r.URL.Path)
			logger.LogEvent(r.Context(), ClientIP(r.Context()), ar.Action, ar.Resource, outcomeFor(rec.status), r.URL.Path)
		})
	}
}

func outcomeFor(status int) string {
	switch {
	case status < 400:
		return audit.OutcomeSuccess
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return audit.OutcomeDenied
	default:
		return audit.OutcomeError
	}
}
