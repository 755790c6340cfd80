package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"it-snapshot-inventory/internal/audit/domain"
	auditrepo "it-snapshot-inventory/internal/audit/repository"
)

// SentinelActor is recorded when the caller could not be attributed (e.g. a
// request rejected before authentication).
const SentinelActor = "_unattributed"

// Outcome values recorded on audit entries.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// ActorExtractor returns the caller identity from the request context
// (typically the client remote address).
type ActorExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actor, action, resource, outcome, detail string)
}

// Logger implements AuditLogger using the audit repository and an optional
// actor extractor.
type Logger struct {
	repo  auditrepo.Repository
	actor ActorExtractor
}

// NewLogger returns an AuditLogger that persists to repo. extractor may be
// nil; then unattributed events use SentinelActor.
func NewLogger(repo auditrepo.Repository, extractor ActorExtractor) *Logger {
	return &Logger{repo: repo, actor: extractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actor, action, resource, outcome, detail string) {
	if l.repo == nil {
		return
	}
	if actor == "" && l.actor != nil {
		actor = l.actor(ctx)
	}
	if actor == "" {
		actor = SentinelActor
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		Outcome:    outcome,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
