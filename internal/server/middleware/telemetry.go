package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Telemetry returns a middleware that records a request counter and a latency
// histogram per route. If meter is nil, the middleware is a pass-through.
func Telemetry(meter metric.Meter, skipPaths map[string]bool) func(http.Handler) http.Handler {
	if meter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Count of handled HTTP requests"))
	if err != nil {
		log.Printf("telemetry: counter init: %v", err)
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("telemetry: histogram init: %v", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeLabel(r)),
				attribute.String("http.status", strconv.Itoa(rec.status)),
			)
			if requests != nil {
				requests.Add(r.Context(), 1, attrs)
			}
			if latency != nil {
				latency.Record(r.Context(), float64(time.Since(start).Microseconds())/1000.0, attrs)
			}
		})
	}
}

// routeLabel keeps metric cardinality bounded by using the matched pattern
// instead of the raw path.
func routeLabel(r *http.Request) string {
	if p := r.Pattern; p != "" {
		return p
	}
	return "unmatched"
}
