package domain

import "time"

// AuditLog represents one recorded API event.
type AuditLog struct {
	ID         string
	Actor      string
	Action     string
	Resource   string
	Outcome    string
	Detail     string
	OccurredAt time.Time
}
