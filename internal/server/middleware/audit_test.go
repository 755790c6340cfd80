package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"it-snapshot-inventory/internal/audit"
)

// mockAuditLogger records LogEvent calls.
type mockAuditLogger struct {
	mu      sync.Mutex
	entries []auditEntry
}

type auditEntry struct {
	actor, action, resource, outcome, detail string
}

func (m *mockAuditLogger) LogEvent(ctx context.Context, actor, action, resource, outcome, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{actor, action, resource, outcome, detail})
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestAudit_RecordsEntry(t *testing.T) {
	logger := &mockAuditLogger{}
	h := WithClientIP(Audit(logger, nil)(statusHandler(http.StatusCreated)))

	req := httptest.NewRequest("POST", "/ingest", nil)
	req.RemoteAddr = "10.0.0.5:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(logger.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(logger.entries))
	}
	e := logger.entries[0]
	if e.action != "ingest" || e.resource != "report" {
		t.Errorf("action/resource = %q/%q, want ingest/report", e.action, e.resource)
	}
	if e.outcome != audit.OutcomeSuccess {
		t.Errorf("outcome = %q, want success", e.outcome)
	}
	if e.actor != "10.0.0.5" {
		t.Errorf("actor = %q, want client IP", e.actor)
	}
}

func TestAudit_OutcomeMapping(t *testing.T) {
	testCases := []struct {
		status  int
		outcome string
	}{
		{http.StatusOK, audit.OutcomeSuccess},
		{http.StatusCreated, audit.OutcomeSuccess},
		{http.StatusUnauthorized, audit.OutcomeDenied},
		{http.StatusForbidden, audit.OutcomeDenied},
		{http.StatusBadRequest, audit.OutcomeError},
		{http.StatusNotFound, audit.OutcomeError},
		{http.StatusServiceUnavailable, audit.OutcomeError},
	}
	for _, tc := range testCases {
		logger := &mockAuditLogger{}
		h := Audit(logger, nil)(statusHandler(tc.status))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/devices", nil))
		if logger.entries[0].outcome != tc.outcome {
			t.Errorf("status %d: outcome = %q, want %q", tc.status, logger.entries[0].outcome, tc.outcome)
		}
	}
}

func TestAudit_SkipPaths(t *testing.T) {
	logger := &mockAuditLogger{}
	h := Audit(logger, map[string]bool{"/healthz": true})(statusHandler(http.StatusOK))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if len(logger.entries) != 0 {
		t.Errorf("recorded %d entries for skipped path, want 0", len(logger.entries))
	}
}

func TestAudit_NilLoggerPassesThrough(t *testing.T) {
	h := Audit(nil, nil)(statusHandler(http.StatusOK))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/devices", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
