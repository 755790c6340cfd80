package repository

import (
	"context"
	"database/sql"

	"it-snapshot-inventory/internal/audit/domain"
)

// PostgresRepository persists audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one audit log entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (id, occurred_at, actor, action, resource, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.OccurredAt, a.Actor, a.Action, a.Resource, a.Outcome, a.Detail)
	return err
}

// ListRecent returns up to limit entries, most recent first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	const q = `
		SELECT id, occurred_at, actor, action, resource, outcome, detail
		FROM audit_logs
		ORDER BY occurred_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.OccurredAt, &a.Actor, &a.Action, &a.Resource, &a.Outcome, &a.Detail); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
