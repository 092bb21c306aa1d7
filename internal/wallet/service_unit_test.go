package wallet

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

// These are true unit tests for wallet.Service input validation behavior.
//
// The money operations are implemented with Postgres-specific SQL (notably
// SELECT ... FOR UPDATE and ON CONFLICT upserts), so end-to-end behavior
// (balance changes, idempotent retries, ledger inserts) is covered by
// integration tests against Postgres and by the settlement MemoryStore tests.

func TestWalletService_TopUp_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))

	_, _, err := svc.TopUp(context.Background(), "", TopUpRequest{AmountMinor: 100, IdempotencyKey: "k"})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	_, _, err = svc.TopUp(context.Background(), "u", TopUpRequest{AmountMinor: 0, IdempotencyKey: "k"})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	_, _, err = svc.TopUp(context.Background(), "u", TopUpRequest{AmountMinor: -5, IdempotencyKey: "k"})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	_, _, err = svc.TopUp(context.Background(), "u", TopUpRequest{AmountMinor: 100, IdempotencyKey: ""})
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWalletService_GetBalance_RejectsEmptyUser(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	if _, err := svc.GetBalance(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWalletService_ListLedger_RejectsInvalidRange(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	now := time.Unix(1700000000, 0).UTC()

	if _, err := svc.ListLedger(context.Background(), "", now.Add(-time.Hour), now, 10); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.ListLedger(context.Background(), "u", now, now, 10); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for empty range, got %v", err)
	}
	if _, err := svc.ListLedger(context.Background(), "u", now, now.Add(-time.Hour), 10); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for inverted range, got %v", err)
	}
}
