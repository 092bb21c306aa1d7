package settlement

import (
	"context"
	"errors"
	"time"

	"advisor-platform/internal/booking"
	"advisor-platform/internal/wallet"
)

// ErrAlreadySettled is returned by Tx implementations when a completion
// marker insert collides; the coordinator treats it as a clean no-op.
var ErrAlreadySettled = errors.New("booking already settled")

// Outcome is the terminal classification of one settlement attempt.
// Exactly one of success/failed/aborted applies to every attempt.
type Outcome string

const (
	// OutcomeSuccess: funds moved (or a zero charge recorded) and the
	// booking reached paid+completed.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed: the charge could not be taken; failure records and the
	// marker are committed so the attempt is not retried blindly.
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted: nothing was written; the condition needs manual
	// reconciliation (e.g. no booking behind the session).
	OutcomeAborted Outcome = "aborted"
)

// Failure reasons recorded on the booking and the completion marker.
const (
	ReasonWalletNotFound    = "wallet_not_found"
	ReasonInsufficientFunds = "insufficient_funds"
)

// Marker is the completion record that makes settlement idempotent. One
// marker exists per booking, keyed bookingID + "_completion", written in
// the same transaction as the money movement.
type Marker struct {
	Key         string    `json:"key" db:"key"`
	BookingID   string    `json:"booking_id" db:"booking_id"`
	SessionID   string    `json:"session_id" db:"session_id"`
	Outcome     Outcome   `json:"outcome" db:"outcome"`
	AmountMinor int64     `json:"amount_minor" db:"amount_minor"`
	Reason      string    `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MarkerKey derives the completion-marker key for a booking.
func MarkerKey(bookingID string) string {
	return bookingID + "_completion"
}

// Tx is the set of operations the coordinator performs inside one
// settlement transaction. Row-returning reads lock the rows they return so
// concurrent settlements of the same booking or wallet serialize.
type Tx interface {
	booking.Getter

	UpdateBooking(ctx context.Context, v booking.Variant, now time.Time) error

	GetWallet(ctx context.Context, userID string) (wallet.Wallet, bool, error)
	DebitWallet(ctx context.Context, userID string, amountMinor int64, now time.Time) error

	AppendLedger(ctx context.Context, e wallet.LedgerEntry) error

	CreditAdvisorEarnings(ctx context.Context, advisorID string, amountMinor int64, now time.Time) error

	GetMarker(ctx context.Context, key string) (Marker, bool, error)
	PutMarker(ctx context.Context, m Marker) error
}

// Store runs settlement units of work atomically: if fn returns an error
// every write it performed is discarded.
type Store interface {
	RunSettlement(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
