// Package postgres implements the inventory store on PostgreSQL via the pgx
// stdlib driver. Report ids come from a bigserial column, so they are
// monotonically increasing; the ingest pair commits in a single transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"it-snapshot-inventory/internal/inventory"
	"it-snapshot-inventory/internal/inventory/domain"
	"it-snapshot-inventory/internal/risk"
)

// Store is a Postgres-backed inventory store.
type Store struct {
	db *sql.DB
}

// NewStore returns an inventory store that uses the given db for persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// The upsert only applies when the incoming report is at least as recent as
// the stored row, so concurrent ingests for one key converge to the greatest
// collected_at regardless of arrival order (ties: last arrival wins).
const upsertDeviceSQL = `
INSERT INTO devices (device_key, hostname, domain, last_seen, os_name, os_version, risk_score)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (device_key) DO UPDATE SET
    last_seen  = EXCLUDED.last_seen,
    os_name    = EXCLUDED.os_name,
    os_version = EXCLUDED.os_version,
    risk_score = EXCLUDED.risk_score
WHERE EXCLUDED.last_seen >= devices.last_seen`

const appendReportSQL = `
INSERT INTO reports (device_key, collected_at, risk_score, risk_level, risk_json, findings_json, raw_json)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// Ingest upserts the device and appends the report in one transaction.
func (s *Store) Ingest(ctx context.Context, dev domain.Device, rep domain.NewReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertDevice(ctx, tx, dev); err != nil {
		return 0, err
	}
	id, err := appendReport(ctx, tx, rep)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit", err)
	}
	return id, nil
}

// UpsertDevice creates or overwrites the device row outside a transaction.
func (s *Store) UpsertDevice(ctx context.Context, dev domain.Device) error {
	return upsertDevice(ctx, s.db, dev)
}

// AppendReport inserts a report row outside a transaction.
func (s *Store) AppendReport(ctx context.Context, rep domain.NewReport) (int64, error) {
	return appendReport(ctx, s.db, rep)
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertDevice(ctx context.Context, db execer, dev domain.Device) error {
	osName := sql.NullString{String: dev.OSName, Valid: dev.OSName != ""}
	osVersion := sql.NullString{String: dev.OSVersion, Valid: dev.OSVersion != ""}
	_, err := db.ExecContext(ctx, upsertDeviceSQL,
		dev.Key, dev.Hostname, dev.Domain, dev.LastSeen, osName, osVersion, dev.RiskScore)
	if err != nil {
		return unavailable("upsert device", err)
	}
	return nil
}

func appendReport(ctx context.Context, db execer, rep domain.NewReport) (int64, error) {
	riskJSON, err := json.Marshal(rep.RiskScore)
	if err != nil {
		return 0, fmt.Errorf("postgres: marshal risk score: %w", err)
	}
	findings := rep.Findings
	if findings == nil {
		findings = []risk.Finding{}
	}
	findingsJSON, err := json.Marshal(findings)
	if err != nil {
		return 0, fmt.Errorf("postgres: marshal findings: %w", err)
	}
	raw := rep.Raw
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	var id int64
	err = db.QueryRowContext(ctx, appendReportSQL,
		rep.DeviceKey, rep.CollectedAt, rep.RiskScore.Score, string(rep.RiskScore.Level),
		riskJSON, findingsJSON, []byte(raw)).Scan(&id)
	if err != nil {
		return 0, unavailable("append report", err)
	}
	return id, nil
}

// ListDevices returns all devices, most recently seen first.
func (s *Store) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT device_key, hostname, domain, last_seen, os_name, os_version, risk_score
FROM devices ORDER BY last_seen DESC`)
	if err != nil {
		return nil, unavailable("list devices", err)
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		var d domain.Device
		var osName, osVersion sql.NullString
		if err := rows.Scan(&d.Key, &d.Hostname, &d.Domain, &d.LastSeen, &osName, &osVersion, &d.RiskScore); err != nil {
			return nil, unavailable("scan device", err)
		}
		d.OSName = osName.String
		d.OSVersion = osVersion.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list devices", err)
	}
	return out, nil
}

// LatestReport returns the most recently collected report for the key.
func (s *Store) LatestReport(ctx context.Context, key string) (*domain.Report, error) {
	if err := s.deviceExists(ctx, key); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, device_key, collected_at, ingested_at, risk_json, findings_json, raw_json
FROM reports WHERE device_key = $1
ORDER BY collected_at DESC, id DESC LIMIT 1`, key)

	var rep domain.Report
	var riskJSON, findingsJSON, rawJSON []byte
	err := row.Scan(&rep.ID, &rep.DeviceKey, &rep.CollectedAt, &rep.IngestedAt, &riskJSON, &findingsJSON, &rawJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("latest report", err)
	}
	if err := json.Unmarshal(riskJSON, &rep.RiskScore); err != nil {
		return nil, fmt.Errorf("postgres: decode risk score: %w", err)
	}
	if err := json.Unmarshal(findingsJSON, &rep.Findings); err != nil {
		return nil, fmt.Errorf("postgres: decode findings: %w", err)
	}
	rep.Raw = rawJSON
	return &rep, nil
}

// ReportHistory returns up to limit summaries for the key, newest first.
func (s *Store) ReportHistory(ctx context.Context, key string, limit int) ([]domain.ReportSummary, error) {
	if limit <= 0 {
		return nil, inventory.ErrInvalidLimit
	}
	if err := s.deviceExists(ctx, key); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, device_key, collected_at, ingested_at, risk_score, risk_level
FROM reports WHERE device_key = $1
ORDER BY collected_at DESC, id DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, unavailable("report history", err)
	}
	defer rows.Close()

	var out []domain.ReportSummary
	for rows.Next() {
		var sum domain.ReportSummary
		var level string
		if err := rows.Scan(&sum.ID, &sum.DeviceKey, &sum.CollectedAt, &sum.IngestedAt, &sum.Score, &level); err != nil {
			return nil, unavailable("scan report", err)
		}
		sum.Level = risk.Severity(level)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("report history", err)
	}
	return out, nil
}

func (s *Store) deviceExists(ctx context.Context, key string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM devices WHERE device_key = $1`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.ErrNotFound
	}
	if err != nil {
		return unavailable("device lookup", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", inventory.ErrUnavailable, op, err)
}
