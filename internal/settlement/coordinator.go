package settlement

import (
	"context"
	"time"

	"advisor-platform/internal/advisor"
	"advisor-platform/internal/booking"
	"advisor-platform/internal/pricing"
	"advisor-platform/internal/session"
	"advisor-platform/internal/wallet"
	"advisor-platform/pkg/logger"

	"github.com/google/uuid"
)

// AdvisorSessions frees the advisor's session slot once settlement commits.
// Satisfied by *advisor.Service.
type AdvisorSessions interface {
	EndCallSession(ctx context.Context, advisorID string) (advisor.State, error)
}

// Auditor records settlement outcomes in the audit trail. Best-effort; an
// audit failure never rolls back a settlement. Satisfied by *audit.Service.
type Auditor interface {
	LogSettlement(ctx context.Context, bookingID, sessionID, advisorID, userID, outcome string, amountMinor int64, message string) error
}

// Result describes one settlement attempt as observed by the caller.
type Result struct {
	Outcome   Outcome      `json:"outcome"`
	BookingID string       `json:"booking_id"`
	Kind      booking.Kind `json:"kind,omitempty"`

	// AmountMinor is the charged (or attempted) amount.
	AmountMinor int64 `json:"amount_minor"`

	// FailureReason is set when Outcome is failed.
	FailureReason string `json:"failure_reason,omitempty"`

	// AlreadySettled marks a replay: a completion marker existed and the
	// attempt changed nothing.
	AlreadySettled bool `json:"already_settled,omitempty"`

	// ZeroRate marks an instant booking billed zero because of a
	// non-positive rate.
	ZeroRate bool `json:"zero_rate,omitempty"`

	// advisorID and userID are carried for the post-commit steps.
	advisorID string
	userID    string
}

// Coordinator settles a finished session: it resolves the booking, prices
// the session, moves funds between the payer's wallet and the advisor's
// earnings, writes the ledger trail, marks the booking terminal, and
// records the completion marker. All of it happens in one transaction; a
// crash mid-way leaves either everything or nothing.
type Coordinator struct {
	store    Store
	advisors AdvisorSessions
	audits   Auditor

	clock func() time.Time
}

func NewCoordinator(store Store, advisors AdvisorSessions, audits Auditor) *Coordinator {
	return &Coordinator{
		store:    store,
		advisors: advisors,
		audits:   audits,
		clock:    time.Now,
	}
}

// Settle runs one settlement attempt for an ended session.
//
// Replays (a completion marker already exists) and scheduled bookings
// already in a settled terminal state return AlreadySettled with no writes.
// A missing booking aborts with booking.ErrBookingNotFound and no writes.
// Insufficient funds or a missing payer wallet commit a failed outcome:
// failure ledger entries, booking payment_failed, and a failed marker.
func (c *Coordinator) Settle(ctx context.Context, sess session.Session) (Result, error) {
	log := logger.From(ctx)
	now := c.clock().UTC()

	var res Result
	err := c.store.RunSettlement(ctx, func(ctx context.Context, tx Tx) error {
		r, err := c.settleTx(ctx, tx, sess, now)
		res = r
		return err
	})
	if err != nil {
		log.Error("settlement aborted",
			"booking_id", sess.BookingID, "session_id", sess.ID, "err", err)
		return Result{Outcome: OutcomeAborted, BookingID: sess.BookingID}, err
	}

	if res.AlreadySettled {
		log.Info("settlement replay ignored",
			"booking_id", res.BookingID, "session_id", sess.ID)
		return res, nil
	}

	switch res.Outcome {
	case OutcomeSuccess:
		log.Info("settlement succeeded",
			"booking_id", res.BookingID, "kind", res.Kind,
			"amount_minor", res.AmountMinor, "zero_rate", res.ZeroRate)
	case OutcomeFailed:
		log.Warn("settlement failed",
			"booking_id", res.BookingID, "kind", res.Kind,
			"amount_minor", res.AmountMinor, "reason", res.FailureReason)
	}

	// The advisor's slot frees regardless of payment outcome; the session
	// is over either way. Runs after commit so a settlement rollback never
	// leaves the slot released.
	if c.advisors != nil && res.advisorID != "" {
		if _, aerr := c.advisors.EndCallSession(ctx, res.advisorID); aerr != nil {
			log.Warn("advisor slot release after settlement failed",
				"advisor_id", res.advisorID, "booking_id", res.BookingID, "err", aerr)
		}
	}

	if c.audits != nil {
		if aerr := c.audits.LogSettlement(ctx, res.BookingID, sess.ID, res.advisorID,
			res.userID, string(res.Outcome), res.AmountMinor, res.FailureReason); aerr != nil {
			log.Warn("settlement audit append failed", "booking_id", res.BookingID, "err", aerr)
		}
	}
	return res, nil
}

func (c *Coordinator) settleTx(ctx context.Context, tx Tx, sess session.Session, now time.Time) (Result, error) {
	// Marker first: it covers both booking kinds and is the only replay
	// guard instant bookings have.
	if m, ok, err := tx.GetMarker(ctx, MarkerKey(sess.BookingID)); err != nil {
		return Result{}, err
	} else if ok {
		return Result{
			Outcome:        m.Outcome,
			BookingID:      sess.BookingID,
			AmountMinor:    m.AmountMinor,
			FailureReason:  m.Reason,
			AlreadySettled: true,
		}, nil
	}

	v, err := booking.Resolve(ctx, tx, sess.BookingID)
	if err != nil {
		return Result{}, err
	}
	rec := v.Record()

	// Scheduled bookings have a second guard on the record itself: a
	// booking already paid and completed with a recorded charge was settled
	// before markers existed and must never be re-billed.
	if !v.IsInstant() &&
		rec.PaymentStatus == booking.PaymentStatusPaid &&
		rec.Status == booking.StatusCompleted &&
		rec.TotalPriceMinor > 0 {
		return Result{
			Outcome:        OutcomeSuccess,
			BookingID:      rec.ID,
			Kind:           v.Kind,
			AmountMinor:    rec.TotalPriceMinor,
			AlreadySettled: true,
		}, nil
	}

	in := pricing.Input{
		Kind:            v.Kind,
		DurationSeconds: sess.DurationSeconds,
		AlreadyPaid:     rec.PaymentStatus == booking.PaymentStatusPaid,
	}
	if v.IsInstant() {
		in.RatePerMinuteMinor = v.Instant.RatePerMinuteMinor
	} else {
		in.SessionAmountMinor = v.Scheduled.SessionAmountMinor
	}
	quote := pricing.Price(in)

	// charged is what actually left the payer's wallet. A scheduled booking
	// already paid up front settles with a zero charge even though the
	// booking record keeps its agreed fee.
	charged := quote.AmountMinor
	if !quote.ShouldDeduct {
		charged = 0
	}

	res := Result{
		Outcome:     OutcomeSuccess,
		BookingID:   rec.ID,
		Kind:        v.Kind,
		AmountMinor: charged,
		ZeroRate:    quote.ZeroRate,
		advisorID:   rec.AdvisorID,
		userID:      rec.UserID,
	}

	if charged > 0 {
		w, ok, gerr := tx.GetWallet(ctx, rec.UserID)
		if gerr != nil {
			return Result{}, gerr
		}
		switch {
		case !ok:
			return c.fail(ctx, tx, v, sess, quote, ReasonWalletNotFound, now)
		case w.BalanceMinor < charged:
			return c.fail(ctx, tx, v, sess, quote, ReasonInsufficientFunds, now)
		}

		if err := tx.DebitWallet(ctx, rec.UserID, charged, now); err != nil {
			return Result{}, err
		}
	}

	// Exactly one payer entry per settlement; a no-charge settlement
	// records it at amount zero. The advisor side exists only when money
	// actually moved.
	if err := tx.AppendLedger(ctx, ledgerEntry(
		rec.UserID, wallet.DirectionDebit, wallet.EntryStatusSuccess,
		wallet.CategorySessionCharge, charged, quote.Description, v, sess, chargeKey(rec.ID), now,
	)); err != nil {
		return Result{}, err
	}
	if charged > 0 {
		if err := tx.AppendLedger(ctx, ledgerEntry(
			rec.AdvisorID, wallet.DirectionCredit, wallet.EntryStatusSuccess,
			wallet.CategoryAdvisorEarning, charged, quote.Description, v, sess, earningKey(rec.ID), now,
		)); err != nil {
			return Result{}, err
		}
		if err := tx.CreditAdvisorEarnings(ctx, rec.AdvisorID, charged, now); err != nil {
			return Result{}, err
		}
	}

	rec.PaymentStatus = booking.PaymentStatusPaid
	rec.Status = booking.StatusCompleted
	rec.TotalPriceMinor = quote.AmountMinor
	rec.FailureReason = ""
	if err := tx.UpdateBooking(ctx, v, now); err != nil {
		return Result{}, err
	}

	if err := tx.PutMarker(ctx, Marker{
		Key:         MarkerKey(rec.ID),
		BookingID:   rec.ID,
		SessionID:   sess.ID,
		Outcome:     OutcomeSuccess,
		AmountMinor: charged,
		CreatedAt:   now,
	}); err != nil {
		return Result{}, err
	}
	return res, nil
}

// fail commits the failed outcome: both ledger sides (payer debit failed,
// advisor credit pending), the booking's failed terminal state, and a
// failed marker. No balances change.
func (c *Coordinator) fail(ctx context.Context, tx Tx, v booking.Variant, sess session.Session, quote pricing.Quote, reason string, now time.Time) (Result, error) {
	rec := v.Record()

	if err := tx.AppendLedger(ctx, ledgerEntry(
		rec.UserID, wallet.DirectionDebit, wallet.EntryStatusFailed,
		wallet.CategorySessionCharge, quote.AmountMinor, quote.Description, v, sess, chargeKey(rec.ID), now,
	)); err != nil {
		return Result{}, err
	}
	if err := tx.AppendLedger(ctx, ledgerEntry(
		rec.AdvisorID, wallet.DirectionCredit, wallet.EntryStatusPending,
		wallet.CategoryAdvisorEarning, quote.AmountMinor, quote.Description, v, sess, earningKey(rec.ID), now,
	)); err != nil {
		return Result{}, err
	}

	rec.PaymentStatus = booking.PaymentStatusFailed
	rec.Status = booking.StatusPaymentFailed
	rec.TotalPriceMinor = 0
	rec.FailureReason = reason
	if err := tx.UpdateBooking(ctx, v, now); err != nil {
		return Result{}, err
	}

	if err := tx.PutMarker(ctx, Marker{
		Key:         MarkerKey(rec.ID),
		BookingID:   rec.ID,
		SessionID:   sess.ID,
		Outcome:     OutcomeFailed,
		AmountMinor: quote.AmountMinor,
		Reason:      reason,
		CreatedAt:   now,
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Outcome:       OutcomeFailed,
		BookingID:     rec.ID,
		Kind:          v.Kind,
		AmountMinor:   quote.AmountMinor,
		FailureReason: reason,
		advisorID:     rec.AdvisorID,
		userID:        rec.UserID,
	}, nil
}

func chargeKey(bookingID string) string  { return bookingID + "_charge" }
func earningKey(bookingID string) string { return bookingID + "_earning" }

func ledgerEntry(owner string, dir wallet.Direction, status wallet.EntryStatus, cat wallet.Category, amountMinor int64, desc string, v booking.Variant, sess session.Session, idemKey string, now time.Time) wallet.LedgerEntry {
	return wallet.LedgerEntry{
		ID:             uuid.NewString(),
		OwnerID:        owner,
		Direction:      dir,
		Status:         status,
		AmountMinor:    amountMinor,
		Category:       cat,
		BookingID:      v.Record().ID,
		SessionID:      sess.ID,
		Description:    desc,
		IdempotencyKey: idemKey,
		CreatedAt:      now,
	}
}
