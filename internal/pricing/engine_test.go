package pricing

import (
	"testing"

	"advisor-platform/internal/booking"
)

func TestPerMinuteCharge(t *testing.T) {
	// 90s at 60.00/min (6000 minor) -> 90.00 (9000 minor)
	if got := perMinuteCharge(90, 6000); got != 9000 {
		t.Fatalf("expected 9000, got %d", got)
	}
	// 600s at 60.00/min -> 600.00
	if got := perMinuteCharge(600, 6000); got != 60000 {
		t.Fatalf("expected 60000, got %d", got)
	}
	// rounding half-up: 1s at 1.00/min = 100/60 = 1.666.. minor -> 2
	if got := perMinuteCharge(1, 100); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	// exactly half rounds up: 30s at 0.01/min = 0.5 minor -> 1
	if got := perMinuteCharge(30, 1); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	// just below half rounds down: 29s at 0.01/min
	if got := perMinuteCharge(29, 1); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := perMinuteCharge(0, 6000); got != 0 {
		t.Fatalf("expected 0 for zero duration, got %d", got)
	}
}

func TestPrice_Instant(t *testing.T) {
	q := Price(Input{Kind: booking.KindInstant, DurationSeconds: 90, RatePerMinuteMinor: 6000})
	if q.AmountMinor != 9000 {
		t.Fatalf("expected 9000, got %d", q.AmountMinor)
	}
	if !q.ShouldDeduct {
		t.Fatalf("expected deduct for instant")
	}
	if q.ZeroRate {
		t.Fatalf("unexpected zero-rate flag")
	}
}

func TestPrice_InstantZeroRateBillsZero(t *testing.T) {
	q := Price(Input{Kind: booking.KindInstant, DurationSeconds: 600, RatePerMinuteMinor: 0})
	if q.AmountMinor != 0 {
		t.Fatalf("expected 0, got %d", q.AmountMinor)
	}
	if !q.ZeroRate {
		t.Fatalf("expected zero-rate flag")
	}

	q = Price(Input{Kind: booking.KindInstant, DurationSeconds: 600, RatePerMinuteMinor: -500})
	if q.AmountMinor != 0 || !q.ZeroRate {
		t.Fatalf("negative rate must bill zero, got %+v", q)
	}
}

func TestPrice_ScheduledFlatFee(t *testing.T) {
	q := Price(Input{Kind: booking.KindScheduled, DurationSeconds: 30, SessionAmountMinor: 10000})
	if q.AmountMinor != 10000 {
		t.Fatalf("expected flat 10000, got %d", q.AmountMinor)
	}
	if !q.ShouldDeduct {
		t.Fatalf("expected deduct when not already paid")
	}

	// Duration does not change the fee.
	q2 := Price(Input{Kind: booking.KindScheduled, DurationSeconds: 7200, SessionAmountMinor: 10000})
	if q2.AmountMinor != q.AmountMinor {
		t.Fatalf("scheduled fee must be duration-independent")
	}
}

func TestPrice_ScheduledAlreadyPaid(t *testing.T) {
	q := Price(Input{Kind: booking.KindScheduled, DurationSeconds: 30, SessionAmountMinor: 10000, AlreadyPaid: true})
	if q.ShouldDeduct {
		t.Fatalf("expected no deduction for pre-paid scheduled booking")
	}
}
