package audit

import (
	"context"
	"errors"
	"testing"

	"it-snapshot-inventory/internal/audit/domain"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "10.0.0.5", "ingest", "report", OutcomeSuccess, "device ws-01@corp.local")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.Actor != "10.0.0.5" {
		t.Errorf("actor = %q, want %q", entry.Actor, "10.0.0.5")
	}
	if entry.Action != "ingest" || entry.Resource != "report" {
		t.Errorf("action/resource = %q/%q, want ingest/report", entry.Action, entry.Resource)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %q, want %q", entry.Outcome, OutcomeSuccess)
	}
	if entry.ID == "" {
		t.Error("entry ID should be generated")
	}
	if entry.OccurredAt.IsZero() {
		t.Error("OccurredAt should be set")
	}
}

func TestLogger_LogEvent_ActorFromExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(ctx context.Context) string { return "192.168.1.1" })

	logger.LogEvent(context.Background(), "", "list", "device", OutcomeSuccess, "")

	if repo.entries[0].Actor != "192.168.1.1" {
		t.Errorf("actor = %q, want extractor value", repo.entries[0].Actor)
	}
}

func TestLogger_LogEvent_SentinelActor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "", "ingest", "report", OutcomeDenied, "bad key")

	if repo.entries[0].Actor != SentinelActor {
		t.Errorf("actor = %q, want %q", repo.entries[0].Actor, SentinelActor)
	}
}

func TestLogger_LogEvent_RepoErrorSwallowed(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	logger := NewLogger(repo, nil)

	// Must not panic and must not surface the error to the caller.
	logger.LogEvent(context.Background(), "10.0.0.5", "ingest", "report", OutcomeError, "")
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	logger := NewLogger(nil, nil)
	logger.LogEvent(context.Background(), "10.0.0.5", "ingest", "report", OutcomeSuccess, "")
}

func TestLogger_UniqueIDs(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	for i := 0; i < 5; i++ {
		logger.LogEvent(context.Background(), "10.0.0.5", "ingest", "report", OutcomeSuccess, "")
	}
	seen := map[string]bool{}
	for _, e := range repo.entries {
		if seen[e.ID] {
			t.Fatalf("duplicate audit id %q", e.ID)
		}
		seen[e.ID] = true
	}
}
