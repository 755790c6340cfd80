package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"it-snapshot-inventory/internal/audit/domain"
)

var bucketAuditLogs = []byte("audit_logs")

// BoltRepository persists audit logs in a bucket of the shared store file.
// Entries are keyed by occurred_at (RFC3339Nano) plus id, so a reverse cursor
// scan yields most-recent-first ordering.
type BoltRepository struct {
	db *bbolt.DB
}

// NewBoltRepository returns an audit repository on the given bbolt handle,
// creating its bucket if needed.
func NewBoltRepository(db *bbolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAuditLogs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("audit bucket: %w", err)
	}
	return &BoltRepository{db: db}, nil
}

// Create persists one audit log entry.
func (r *BoltRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	key := []byte(a.OccurredAt.UTC().Format(time.RFC3339Nano) + "/" + a.ID)
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuditLogs).Put(key, data)
	})
}

// ListRecent returns up to limit entries, most recent first.
func (r *BoltRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAuditLogs).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var a domain.AuditLog
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode audit log: %w", err)
			}
			out = append(out, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
