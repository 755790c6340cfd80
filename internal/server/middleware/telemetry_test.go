package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestTelemetry_NilMeterPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	h := Telemetry(nil, nil)(next)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/devices", nil))

	if !called {
		t.Fatal("next handler was not called")
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
	}
}

func TestTelemetry_RecordsWithoutAlteringResponse(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	h := Telemetry(meter, nil)(next)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ingest", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if rr.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestTelemetry_SkipPaths(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	h := Telemetry(meter, map[string]bool{"/healthz": true})(next)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatal("next handler was not called for skipped path")
	}
}

func TestRouteLabel_UnmatchedRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	if got := routeLabel(r); got != "unmatched" {
		t.Errorf("routeLabel = %q, want %q", got, "unmatched")
	}
}
