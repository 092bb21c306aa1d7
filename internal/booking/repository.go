package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NOTE: This repository assumes the following tables exist:
// - scheduled_bookings
// - instant_bookings
//
// Both carry the shared booking columns; the kind-specific price column
// differs (session_amount_minor vs rate_per_minute_minor).

func GetScheduledForUpdate(ctx context.Context, tx *sql.Tx, bookingID string) (*Scheduled, bool, error) {
	// Lock the booking row to serialize concurrent settlements of the same booking.
	const q = `
SELECT id, user_id, advisor_id, session_amount_minor, payment_status, booking_status,
       total_price_minor, failure_reason, created_at, updated_at
FROM scheduled_bookings
WHERE id = $1
FOR UPDATE
`
	var b Scheduled
	if err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID,
		&b.UserID,
		&b.AdvisorID,
		&b.SessionAmountMinor,
		&b.PaymentStatus,
		&b.Status,
		&b.TotalPriceMinor,
		&b.FailureReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &b, true, nil
}

func GetInstantForUpdate(ctx context.Context, tx *sql.Tx, bookingID string) (*Instant, bool, error) {
	const q = `
SELECT id, user_id, advisor_id, rate_per_minute_minor, payment_status, booking_status,
       total_price_minor, failure_reason, created_at, updated_at
FROM instant_bookings
WHERE id = $1
FOR UPDATE
`
	var b Instant
	if err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID,
		&b.UserID,
		&b.AdvisorID,
		&b.RatePerMinuteMinor,
		&b.PaymentStatus,
		&b.Status,
		&b.TotalPriceMinor,
		&b.FailureReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &b, true, nil
}

// UpdateTerminalState writes the settlement outcome fields of a resolved
// booking. The row must already be locked in this transaction.
func UpdateTerminalState(ctx context.Context, tx *sql.Tx, v Variant, now time.Time) error {
	table := "scheduled_bookings"
	if v.IsInstant() {
		table = "instant_bookings"
	}
	q := `
UPDATE ` + table + `
SET payment_status = $2, booking_status = $3, total_price_minor = $4,
    failure_reason = $5, updated_at = $6
WHERE id = $1
`
	rec := v.Record()
	res, err := tx.ExecContext(ctx, q,
		rec.ID,
		rec.PaymentStatus,
		rec.Status,
		rec.TotalPriceMinor,
		rec.FailureReason,
		now,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
