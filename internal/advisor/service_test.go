package advisor

import (
	"context"
	"database/sql"
	"testing"
)

// Session transitions run Postgres-specific SQL (SELECT ... FOR UPDATE), so
// transition behavior is covered by the pure state tests and by integration
// tests against Postgres. These cover the service-level pieces that need no
// store.

func TestSessionCap_PrefersRowLimit(t *testing.T) {
	// The slot gate and the transactional check must both honor a cap set
	// on the advisor's own row over the service default.
	if got := sessionCap(5, 2); got != 5 {
		t.Fatalf("sessionCap(5, 2) = %d, want 5", got)
	}
	if got := sessionCap(0, 2); got != 2 {
		t.Fatalf("sessionCap(0, 2) = %d, want 2", got)
	}
	if got := sessionCap(-1, 2); got != 2 {
		t.Fatalf("sessionCap(-1, 2) = %d, want 2", got)
	}
}

func TestService_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil), nil, 2, 0)

	if _, err := svc.StartCallSession(context.Background(), "", "b1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.StartCallSession(context.Background(), "a1", ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, _, err := svc.CanAcceptNewCalls(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Earnings(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
