package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"advisor-platform/pkg/utils"

	"github.com/google/uuid"
)

// Service provides the wallet operations outside the settlement path:
// top-ups, balance reads, ledger history.
//
// Money invariants:
// - No balance updates without a ledger entry
// - Ledger is append-only (immutable)
// - All money operations must be executed in a DB transaction
//
// Session settlement mutates wallets through internal/settlement, which
// shares this package's transactional repository helpers.
type Service struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type TopUpRequest struct {
	AmountMinor    int64  `json:"amount_minor"`
	IdempotencyKey string `json:"idempotency_key"`
	Description    string `json:"description,omitempty"`
}

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// GetBalance returns the wallet for display; missing wallets are ErrNotFound.
func (s *Service) GetBalance(ctx context.Context, userID string) (Wallet, error) {
	if userID == "" {
		return Wallet{}, ErrInvalidArgument
	}
	w, ok, err := Get(ctx, s.db, userID)
	if err != nil {
		return Wallet{}, err
	}
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

// TopUp credits a wallet after a successful gateway payment. The wallet is
// created on first top-up. Retries with the same idempotency key return the
// original entry without double-crediting.
func (s *Service) TopUp(ctx context.Context, userID string, req TopUpRequest) (LedgerEntry, Wallet, error) {
	if userID == "" || req.IdempotencyKey == "" {
		return LedgerEntry{}, Wallet{}, ErrInvalidArgument
	}
	if req.AmountMinor <= 0 {
		return LedgerEntry{}, Wallet{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	ledgerID := uuid.NewString()

	var outEntry LedgerEntry
	var outWallet Wallet

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Idempotency: if a ledger entry already exists for this owner+key,
		// return it and the current balance.
		if existing, ok, err := FindLedgerByIdempotency(ctx, tx, userID, req.IdempotencyKey); err != nil {
			return err
		} else if ok {
			outEntry = existing
			w, found, err := GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound
			}
			outWallet = w
			return nil
		}

		entry := LedgerEntry{
			ID:             ledgerID,
			OwnerID:        userID,
			Direction:      DirectionCredit,
			Status:         EntryStatusSuccess,
			AmountMinor:    req.AmountMinor,
			Category:       CategoryTopUp,
			Description:    req.Description,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      now,
		}
		if err := AppendLedger(ctx, tx, entry); err != nil {
			return err
		}

		w, err := ApplyCredit(ctx, tx, userID, req.AmountMinor, now)
		if err != nil {
			return err
		}
		outEntry = entry
		outWallet = w
		return nil
	})

	return outEntry, outWallet, err
}

// ListLedger returns the owner's ledger entries within [from, to).
func (s *Service) ListLedger(ctx context.Context, ownerID string, from, to time.Time, limit int) ([]LedgerEntry, error) {
	if ownerID == "" {
		return nil, ErrInvalidArgument
	}
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, ErrInvalidArgument
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return ListLedgerByOwner(ctx, s.db, ownerID, from, to, limit)
}
