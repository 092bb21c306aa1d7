package pricing

import (
	"fmt"

	"advisor-platform/internal/booking"
)

// Amounts are expressed in minor units (e.g., cents) using int64.
// Half-up rounding to minor units matches the currency's two decimal places.

// Input is everything pricing needs to know about a finished session.
type Input struct {
	Kind            booking.Kind
	DurationSeconds int

	// RatePerMinuteMinor is the agreed per-minute rate (instant only).
	RatePerMinuteMinor int64

	// SessionAmountMinor is the agreed flat fee (scheduled only).
	SessionAmountMinor int64

	// AlreadyPaid reflects the booking's payment status at settlement time.
	AlreadyPaid bool
}

// Quote is the pricing outcome for one settlement attempt.
type Quote struct {
	AmountMinor  int64
	ShouldDeduct bool
	Description  string

	// ZeroRate marks an instant booking priced at rate <= 0. Billing zero is
	// permitted business policy; the flag exists for observability only.
	ZeroRate bool
}

// Price computes the amount owed for a finished session.
//
// Instant: duration/60 * rate, rounded half-up to minor units. A rate <= 0
// yields amount 0 without error.
// Scheduled: the flat fee, independent of duration; bookings already marked
// paid are billed zero (ShouldDeduct=false).
func Price(in Input) Quote {
	if in.Kind == booking.KindInstant {
		q := Quote{ShouldDeduct: true}
		if in.RatePerMinuteMinor <= 0 {
			q.ZeroRate = true
			q.Description = fmt.Sprintf("instant session %ds (zero rate)", in.DurationSeconds)
			return q
		}
		q.AmountMinor = perMinuteCharge(in.DurationSeconds, in.RatePerMinuteMinor)
		q.Description = fmt.Sprintf("instant session %ds @ %d/min", in.DurationSeconds, in.RatePerMinuteMinor)
		return q
	}

	return Quote{
		AmountMinor:  in.SessionAmountMinor,
		ShouldDeduct: !in.AlreadyPaid,
		Description:  fmt.Sprintf("scheduled session flat fee %d", in.SessionAmountMinor),
	}
}

// perMinuteCharge rounds durationSeconds/60 * rate half-up to minor units.
func perMinuteCharge(durationSeconds int, ratePerMinuteMinor int64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	n := int64(durationSeconds) * ratePerMinuteMinor
	return (n + 30) / 60
}
