package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{UserID: "u"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_NilServiceDropsEvents(t *testing.T) {
	var svc *Service
	if err := svc.LogLogin(context.Background(), "u", "s", "1.2.3.4", "agent"); err != nil {
		t.Fatalf("nil service must drop silently, got %v", err)
	}
}

func TestService_FailedLoginRecordsNoAddress(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogLoginFailed(context.Background(), "", "1.2.3.4", "test-agent", "AUTH_001"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	ev := evs[0]
	if ev.UserID != "" || ev.Metadata != "" {
		t.Fatalf("unknown-account attempt must not identify the account: %+v", ev)
	}
	if ev.Message != "AUTH_001" {
		t.Fatalf("message = %q, want rejection code", ev.Message)
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogLogin(context.Background(), "user-1", "sess-1", "1.2.3.4", "test-agent"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogSessionsRevoked(context.Background(), "user-1", "admin", "1.2.3.4", "refresh token reuse"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeLogin || evs[0].SessionID != "sess-1" {
		t.Fatalf("event 0 = %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("id and timestamp must be assigned")
	}
	if evs[1].Type != EventTypeSessionsRevoked || evs[1].ActorRole != "admin" {
		t.Fatalf("event 1 = %+v", evs[1])
	}
}
