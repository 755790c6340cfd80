package domain

import (
	"encoding/json"
	"time"

	"it-snapshot-inventory/internal/risk"
)

// NewReport is the input to an append: everything except the store-assigned
// id and ingest timestamp.
type NewReport struct {
	DeviceKey   string
	CollectedAt time.Time
	RiskScore   risk.Score
	Findings    []risk.Finding
	Raw         json.RawMessage
}

// Report is one stored report row. Rows are append-only: never updated,
// never deleted.
type Report struct {
	ID          int64
	DeviceKey   string
	CollectedAt time.Time
	IngestedAt  time.Time
	RiskScore   risk.Score
	Findings    []risk.Finding
	Raw         json.RawMessage
}

// ReportSummary is the history-listing projection: no findings, no payload.
type ReportSummary struct {
	ID          int64
	DeviceKey   string
	CollectedAt time.Time
	IngestedAt  time.Time
	Score       int
	Level       risk.Severity
}
