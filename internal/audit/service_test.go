package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Message: "no type"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAdminAction(context.Background(), "u", "super_admin", "1.2.3.4", "did something"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeAdminAction {
		t.Fatalf("expected admin_action")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp")
	}
}

func TestService_LogSettlement(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogSettlement(context.Background(), "b1", "s1", "a1", "u1", "success", 9000, "instant session 90s"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 || evs[0].Type != EventTypeSettlement {
		t.Fatalf("expected settlement event, got %+v", evs)
	}
	if evs[0].BookingID != "b1" || evs[0].AmountMinor != 9000 || evs[0].Outcome != "success" {
		t.Fatalf("unexpected event: %+v", evs[0])
	}

	if err := svc.LogSettlement(context.Background(), "b2", "s2", "a1", "u2", "failed", 0, "insufficient_funds"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	trail := repo.EventsByBooking("b1")
	if len(trail) != 1 || trail[0].SessionID != "s1" {
		t.Fatalf("unexpected booking trail: %+v", trail)
	}
}
