package reporting

import (
	"context"
	"sync"
	"time"

	"advisor-platform/internal/session"
	"advisor-platform/internal/wallet"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early
// development.

type MemoryRepo struct {
	mu sync.Mutex

	Sessions []session.Session
	Ledger   []wallet.LedgerEntry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListSessions(ctx context.Context, from, to time.Time, kind string) ([]session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Session, 0)
	for _, s := range r.Sessions {
		if !s.CreatedAt.IsZero() {
			if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
		}
		if kind != "" && string(s.Kind) != kind {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepo) ListLedger(ctx context.Context, ownerID string, from, to time.Time) ([]wallet.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wallet.LedgerEntry, 0)
	for _, e := range r.Ledger {
		if e.OwnerID != ownerID {
			continue
		}
		if !e.CreatedAt.IsZero() {
			if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}
