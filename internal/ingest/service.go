// Package ingest accepts agent report payloads: validate, resolve identity,
// evaluate the rule catalog, and commit device+report atomically.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"it-snapshot-inventory/internal/identity"
	"it-snapshot-inventory/internal/inventory"
	"it-snapshot-inventory/internal/inventory/domain"
	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/rules"
	"it-snapshot-inventory/internal/snapshot"
	"it-snapshot-inventory/internal/telemetry"
)

// SupportedSchemaVersions gates ingest; anything else is rejected before any
// mutation.
var SupportedSchemaVersions = map[string]bool{"1.0": true, "2.0": true}

// ValidationError rejects a structurally incomplete payload. Always raised
// before any store mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "ingest: invalid payload: " + e.Reason
}

// UnsupportedSchemaError rejects payloads whose schema_version the server does
// not understand.
type UnsupportedSchemaError struct {
	Version string
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("ingest: unsupported schema_version %q", e.Version)
}

// Result is returned on a successful ingest.
type Result struct {
	DeviceKey string
	ReportID  int64
	Hostname  string
}

// Service runs the ingest pipeline against a store.
type Service struct {
	store   inventory.Store
	eval    *rules.Evaluator
	emitter telemetry.EventEmitter
}

// NewService returns an ingest service. emitter may be nil.
func NewService(store inventory.Store, eval *rules.Evaluator, emitter telemetry.EventEmitter) *Service {
	return &Service{store: store, eval: eval, emitter: emitter}
}

// envelope carries the report-level fields that ride alongside the snapshot
// sections in the submitted document.
type envelope struct {
	RiskScore risk.ScoreField `json:"risk_score"`
}

// Ingest validates raw, evaluates the rule catalog over it, and commits the
// device upsert and report append as one atomic unit. The server-evaluated
// score is authoritative; an agent-declared risk_score is only range-checked.
// No mutation happens on any error path.
func (s *Service) Ingest(ctx context.Context, raw []byte) (*Result, error) {
	snap, err := snapshot.Parse(raw)
	if err != nil {
		s.emitRejected(ctx, "", "malformed JSON")
		return nil, &ValidationError{Reason: "malformed JSON: " + err.Error()}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.emitRejected(ctx, "", "malformed risk_score")
		return nil, &ValidationError{Reason: "malformed risk_score: " + err.Error()}
	}

	if !SupportedSchemaVersions[snap.SchemaVersion] {
		s.emitRejected(ctx, "", "unsupported schema_version "+snap.SchemaVersion)
		return nil, &UnsupportedSchemaError{Version: snap.SchemaVersion}
	}

	hostname, domainName := snap.IdentityFields()
	if strings.TrimSpace(hostname) == "" {
		s.emitRejected(ctx, "", "missing hostname")
		return nil, &ValidationError{Reason: "missing device identity: hostname is required"}
	}

	collectedAt, err := parseCollectedAt(snap.CollectedAt)
	if err != nil {
		s.emitRejected(ctx, "", "bad collected_at")
		return nil, &ValidationError{Reason: err.Error()}
	}

	if env.RiskScore.Set() {
		if v := env.RiskScore.Score.Score; v < 0 || v > 100 {
			s.emitRejected(ctx, "", fmt.Sprintf("risk_score %d out of range", v))
			return nil, &ValidationError{Reason: fmt.Sprintf("risk_score must be in [0,100], got %d", v)}
		}
	}

	findings := s.eval.Evaluate(snap)
	score := risk.Aggregate(findings)
	key := identity.Resolve(hostname, domainName)
	osName, osVersion := snap.OSInfo()

	dev := domain.Device{
		Key:       key.String(),
		Hostname:  key.Hostname,
		Domain:    key.Domain,
		LastSeen:  collectedAt,
		OSName:    osName,
		OSVersion: osVersion,
		RiskScore: score.Score,
	}
	rep := domain.NewReport{
		DeviceKey:   key.String(),
		CollectedAt: collectedAt,
		RiskScore:   score,
		Findings:    findings,
		Raw:         json.RawMessage(raw),
	}

	id, err := s.store.Ingest(ctx, dev, rep)
	if err != nil {
		telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
			EventType: telemetry.EventStoreFailure,
			Source:    "ingest",
			DeviceKey: key.String(),
			Detail:    err.Error(),
			CreatedAt: time.Now().UTC(),
		})
		return nil, err
	}

	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		EventType: telemetry.EventReportAccepted,
		Source:    "ingest",
		DeviceKey: key.String(),
		ReportID:  id,
		RiskScore: score.Score,
		RiskLevel: string(score.Level),
		Detail:    fmt.Sprintf("%d findings", len(findings)),
		CreatedAt: time.Now().UTC(),
	})

	return &Result{DeviceKey: key.String(), ReportID: id, Hostname: key.Hostname}, nil
}

func (s *Service) emitRejected(ctx context.Context, deviceKey, reason string) {
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		EventType: telemetry.EventReportRejected,
		Source:    "ingest",
		DeviceKey: deviceKey,
		Detail:    reason,
		CreatedAt: time.Now().UTC(),
	})
}

// parseCollectedAt accepts RFC3339 with or without sub-second precision.
func parseCollectedAt(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, fmt.Errorf("missing collected_at")
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("collected_at is not RFC3339: %q", v)
	}
	return t.UTC(), nil
}
