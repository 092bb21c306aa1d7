package settlement

import (
	"context"
	"sync"
	"time"

	"advisor-platform/internal/advisor"
	"advisor-platform/internal/booking"
	"advisor-platform/internal/wallet"
)

// MemoryStore is an in-memory Store for tests and local development. Each
// RunSettlement works on a copy of the state and swaps it in only when fn
// returns nil, mirroring transaction rollback.
type MemoryStore struct {
	mu sync.Mutex
	st *memState
}

type memState struct {
	scheduled map[string]booking.Scheduled
	instant   map[string]booking.Instant
	wallets   map[string]wallet.Wallet
	ledger    []wallet.LedgerEntry
	earnings  map[string]advisor.Earnings
	markers   map[string]Marker
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: &memState{
		scheduled: make(map[string]booking.Scheduled),
		instant:   make(map[string]booking.Instant),
		wallets:   make(map[string]wallet.Wallet),
		earnings:  make(map[string]advisor.Earnings),
		markers:   make(map[string]Marker),
	}}
}

func (s *memState) clone() *memState {
	out := &memState{
		scheduled: make(map[string]booking.Scheduled, len(s.scheduled)),
		instant:   make(map[string]booking.Instant, len(s.instant)),
		wallets:   make(map[string]wallet.Wallet, len(s.wallets)),
		ledger:    append([]wallet.LedgerEntry(nil), s.ledger...),
		earnings:  make(map[string]advisor.Earnings, len(s.earnings)),
		markers:   make(map[string]Marker, len(s.markers)),
	}
	for k, v := range s.scheduled {
		out.scheduled[k] = v
	}
	for k, v := range s.instant {
		out.instant[k] = v
	}
	for k, v := range s.wallets {
		out.wallets[k] = v
	}
	for k, v := range s.earnings {
		out.earnings[k] = v
	}
	for k, v := range s.markers {
		out.markers[k] = v
	}
	return out
}

func (s *MemoryStore) RunSettlement(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Seed helpers for tests.

func (s *MemoryStore) PutScheduled(b booking.Scheduled) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.scheduled[b.ID] = b
}

func (s *MemoryStore) PutInstant(b booking.Instant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.instant[b.ID] = b
}

func (s *MemoryStore) PutWallet(w wallet.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.wallets[w.UserID] = w
}

// Inspection helpers for tests.

func (s *MemoryStore) Wallet(userID string) (wallet.Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.wallets[userID]
	return w, ok
}

func (s *MemoryStore) Scheduled(id string) (booking.Scheduled, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.scheduled[id]
	return b, ok
}

func (s *MemoryStore) Instant(id string) (booking.Instant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.instant[id]
	return b, ok
}

func (s *MemoryStore) Ledger() []wallet.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wallet.LedgerEntry(nil), s.st.ledger...)
}

func (s *MemoryStore) Earnings(advisorID string) (advisor.Earnings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.earnings[advisorID]
	return e, ok
}

func (s *MemoryStore) Marker(key string) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.markers[key]
	return m, ok
}

type memTx struct {
	st *memState
}

func (t *memTx) GetScheduled(ctx context.Context, bookingID string) (*booking.Scheduled, bool, error) {
	b, ok := t.st.scheduled[bookingID]
	if !ok {
		return nil, false, nil
	}
	return &b, true, nil
}

func (t *memTx) GetInstant(ctx context.Context, bookingID string) (*booking.Instant, bool, error) {
	b, ok := t.st.instant[bookingID]
	if !ok {
		return nil, false, nil
	}
	return &b, true, nil
}

func (t *memTx) UpdateBooking(ctx context.Context, v booking.Variant, now time.Time) error {
	if v.IsInstant() {
		b := *v.Instant
		if _, ok := t.st.instant[b.ID]; !ok {
			return booking.ErrBookingNotFound
		}
		b.UpdatedAt = now
		t.st.instant[b.ID] = b
		return nil
	}
	b := *v.Scheduled
	if _, ok := t.st.scheduled[b.ID]; !ok {
		return booking.ErrBookingNotFound
	}
	b.UpdatedAt = now
	t.st.scheduled[b.ID] = b
	return nil
}

func (t *memTx) GetWallet(ctx context.Context, userID string) (wallet.Wallet, bool, error) {
	w, ok := t.st.wallets[userID]
	return w, ok, nil
}

func (t *memTx) DebitWallet(ctx context.Context, userID string, amountMinor int64, now time.Time) error {
	w, ok := t.st.wallets[userID]
	if !ok {
		return wallet.ErrNotFound
	}
	w.BalanceMinor -= amountMinor
	w.TotalSpentMinor += amountMinor
	w.TransactionCount++
	w.LastTransactionAt = now
	w.UpdatedAt = now
	t.st.wallets[userID] = w
	return nil
}

func (t *memTx) AppendLedger(ctx context.Context, e wallet.LedgerEntry) error {
	for _, prev := range t.st.ledger {
		if prev.OwnerID == e.OwnerID && prev.IdempotencyKey == e.IdempotencyKey {
			return ErrAlreadySettled
		}
	}
	t.st.ledger = append(t.st.ledger, e)
	return nil
}

func (t *memTx) CreditAdvisorEarnings(ctx context.Context, advisorID string, amountMinor int64, now time.Time) error {
	e, ok := t.st.earnings[advisorID]
	if !ok {
		e = advisor.Earnings{AdvisorID: advisorID}
	}
	day := now.Truncate(24 * time.Hour)
	e.TotalLifetimeMinor += amountMinor
	if e.EarningsDate.Equal(day) {
		e.TodayMinor += amountMinor
	} else {
		e.TodayMinor = amountMinor
		e.EarningsDate = day
	}
	e.PendingMinor += amountMinor
	e.UpdatedAt = now
	t.st.earnings[advisorID] = e
	return nil
}

func (t *memTx) GetMarker(ctx context.Context, key string) (Marker, bool, error) {
	m, ok := t.st.markers[key]
	return m, ok, nil
}

func (t *memTx) PutMarker(ctx context.Context, m Marker) error {
	if _, ok := t.st.markers[m.Key]; ok {
		return ErrAlreadySettled
	}
	t.st.markers[m.Key] = m
	return nil
}
