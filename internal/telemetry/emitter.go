package telemetry

import (
	"context"
	"time"
)

// Event is a pipeline telemetry event, emitted after ingest decisions and
// query failures.
type Event struct {
	EventType string
	Source    string
	DeviceKey string
	ReportID  int64
	RiskScore int
	RiskLevel string
	Detail    string
	CreatedAt time.Time
}

// Event types emitted by the ingest and query paths.
const (
	EventReportAccepted = "report_accepted"
	EventReportRejected = "report_rejected"
	EventStoreFailure   = "store_failure"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
