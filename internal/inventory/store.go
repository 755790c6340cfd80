// Package inventory defines the persistence contract for devices and their
// report history. Two backends implement it: Postgres (fleet deployments) and
// an embedded bbolt file (single-node).
package inventory

import (
	"context"
	"errors"

	"it-snapshot-inventory/internal/inventory/domain"
)

var (
	// ErrNotFound is returned for reads against an unknown device key or a
	// device without reports.
	ErrNotFound = errors.New("inventory: not found")
	// ErrUnavailable wraps backend failures the caller may retry.
	ErrUnavailable = errors.New("inventory: store unavailable")
	// ErrInvalidLimit is returned for a non-positive history limit; it is a
	// caller error, not a storage condition.
	ErrInvalidLimit = errors.New("inventory: history limit must be positive")
)

// Store persists device state and append-only report history.
//
// UpsertDevice and AppendReport exist for callers that need the individual
// operations (seeding, rebuilds); ingest must go through Ingest so the pair
// commits atomically.
type Store interface {
	// Ingest performs the device upsert and report append as one atomic unit
	// and returns the new report id. Either both effects become visible or
	// neither does.
	Ingest(ctx context.Context, dev domain.Device, rep domain.NewReport) (int64, error)

	// UpsertDevice creates or overwrites the device row. Concurrent upserts
	// for one key converge to the state with the greatest LastSeen; on equal
	// LastSeen the last call wins.
	UpsertDevice(ctx context.Context, dev domain.Device) error

	// AppendReport inserts a new report row and returns its monotonically
	// increasing id. Identical content is never deduplicated.
	AppendReport(ctx context.Context, rep domain.NewReport) (int64, error)

	// ListDevices returns all known devices, most recently seen first.
	ListDevices(ctx context.Context) ([]domain.Device, error)

	// LatestReport returns the report with the greatest collected_at for the
	// key (ties broken by ingest order). ErrNotFound for unknown keys or
	// devices without reports.
	LatestReport(ctx context.Context, key string) (*domain.Report, error)

	// ReportHistory returns up to limit report summaries for the key, newest
	// first. ErrInvalidLimit when limit <= 0; ErrNotFound for unknown keys.
	ReportHistory(ctx context.Context, key string, limit int) ([]domain.ReportSummary, error)

	// Ping reports whether the backing medium is reachable.
	Ping(ctx context.Context) error

	Close() error
}
