package middleware

import (
	"errors"
	"net/http"

	"it-snapshot-inventory/internal/security"
	"it-snapshot-inventory/internal/server/httpx"
)

// APIKeyHeader carries the shared-secret credential.
const APIKeyHeader = "X-API-Key"

// Auth returns a middleware that validates the X-API-Key header against the
// configured key. publicPaths is the set of paths that never require a
// credential (the liveness probe). An unconfigured server answers 503 on
// protected paths rather than running open.
func Auth(verifier *security.KeyVerifier, publicPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			err := verifier.Verify(r.Header.Get(APIKeyHeader))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, security.ErrNotConfigured):
				httpx.Error(w, http.StatusServiceUnavailable, "server has no API key configured")
			default:
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid API key")
			}
		})
	}
}
