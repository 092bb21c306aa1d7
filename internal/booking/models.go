package booking

import "time"

// Booking holds the fields shared by both booking kinds.
//
// Invariant: once settlement begins, PaymentStatus and Status move
// monotonically to a terminal pair and the record is never re-settled once
// paid+completed with a positive charged amount.
type Booking struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	AdvisorID string `json:"advisor_id" db:"advisor_id"`

	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	Status        Status        `json:"booking_status" db:"booking_status"`

	// TotalPriceMinor is the charged amount, written at settlement time.
	TotalPriceMinor int64 `json:"total_price_minor" db:"total_price_minor"`

	// FailureReason is set when settlement fails (wallet_not_found,
	// insufficient_funds).
	FailureReason string `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Instant is a pay-per-minute booking priced by elapsed duration.
type Instant struct {
	Booking

	// RatePerMinuteMinor is the agreed per-minute rate in minor units.
	RatePerMinuteMinor int64 `json:"rate_per_minute_minor" db:"rate_per_minute_minor"`
}

// Scheduled is a fixed-fee booking priced independently of duration.
type Scheduled struct {
	Booking

	// SessionAmountMinor is the agreed flat fee in minor units.
	SessionAmountMinor int64 `json:"session_amount_minor" db:"session_amount_minor"`
}

type PaymentStatus string

const (
	PaymentStatusUnset  PaymentStatus = ""
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusCompleted     Status = "completed"
	StatusPaymentFailed Status = "payment_failed"
)

type Kind string

const (
	KindInstant   Kind = "instant"
	KindScheduled Kind = "scheduled"
)

// Variant is the resolved booking: exactly one of Instant/Scheduled is set,
// tagged by Kind. Resolving once avoids re-deriving "is instant" from
// control flow at multiple points downstream.
type Variant struct {
	Kind      Kind
	Instant   *Instant
	Scheduled *Scheduled
}

func (v Variant) IsInstant() bool { return v.Kind == KindInstant }

// Record returns the shared booking fields regardless of kind.
func (v Variant) Record() *Booking {
	if v.Kind == KindInstant {
		return &v.Instant.Booking
	}
	return &v.Scheduled.Booking
}
