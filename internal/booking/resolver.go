package booking

import (
	"context"
	"errors"
	"fmt"
)

// ErrBookingNotFound means a session ended with no backing booking in either
// store. Settlement must abort with no funds moved; this is a data-integrity
// failure requiring manual reconciliation, not a retry.
var ErrBookingNotFound = errors.New("booking not found")

// Getter reads booking records. Implementations inside a settlement
// transaction must lock the row they return.
type Getter interface {
	GetScheduled(ctx context.Context, bookingID string) (*Scheduled, bool, error)
	GetInstant(ctx context.Context, bookingID string) (*Instant, bool, error)
}

// Resolve locates the booking that owns a session. The scheduled store is
// tried first, then the instant store.
func Resolve(ctx context.Context, g Getter, bookingID string) (Variant, error) {
	if bookingID == "" {
		return Variant{}, fmt.Errorf("resolve: %w", ErrBookingNotFound)
	}

	if sb, ok, err := g.GetScheduled(ctx, bookingID); err != nil {
		return Variant{}, err
	} else if ok {
		return Variant{Kind: KindScheduled, Scheduled: sb}, nil
	}

	if ib, ok, err := g.GetInstant(ctx, bookingID); err != nil {
		return Variant{}, err
	} else if ok {
		return Variant{Kind: KindInstant, Instant: ib}, nil
	}

	return Variant{}, fmt.Errorf("resolve %q: %w", bookingID, ErrBookingNotFound)
}
