package settlement

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"advisor-platform/internal/advisor"
	"advisor-platform/internal/booking"
	"advisor-platform/internal/wallet"
	"advisor-platform/pkg/utils"
)

// PostgresStore runs settlements inside a single database transaction,
// composing the per-domain repositories. A table settlement_markers with
// primary key (key) backs the completion markers; the primary key makes
// concurrent duplicate settlements fail at commit rather than double-post.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RunSettlement(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetScheduled(ctx context.Context, bookingID string) (*booking.Scheduled, bool, error) {
	return booking.GetScheduledForUpdate(ctx, t.tx, bookingID)
}

func (t *pgTx) GetInstant(ctx context.Context, bookingID string) (*booking.Instant, bool, error) {
	return booking.GetInstantForUpdate(ctx, t.tx, bookingID)
}

func (t *pgTx) UpdateBooking(ctx context.Context, v booking.Variant, now time.Time) error {
	return booking.UpdateTerminalState(ctx, t.tx, v, now)
}

func (t *pgTx) GetWallet(ctx context.Context, userID string) (wallet.Wallet, bool, error) {
	return wallet.GetForUpdate(ctx, t.tx, userID)
}

func (t *pgTx) DebitWallet(ctx context.Context, userID string, amountMinor int64, now time.Time) error {
	_, err := wallet.ApplyDebit(ctx, t.tx, userID, amountMinor, now)
	return err
}

func (t *pgTx) AppendLedger(ctx context.Context, e wallet.LedgerEntry) error {
	return wallet.AppendLedger(ctx, t.tx, e)
}

func (t *pgTx) CreditAdvisorEarnings(ctx context.Context, advisorID string, amountMinor int64, now time.Time) error {
	return advisor.CreditEarnings(ctx, t.tx, advisorID, amountMinor, now)
}

func (t *pgTx) GetMarker(ctx context.Context, key string) (Marker, bool, error) {
	const q = `
SELECT key, booking_id, session_id, outcome, amount_minor, reason, created_at
FROM settlement_markers
WHERE key = $1
FOR UPDATE
`
	var m Marker
	if err := t.tx.QueryRowContext(ctx, q, key).Scan(
		&m.Key,
		&m.BookingID,
		&m.SessionID,
		&m.Outcome,
		&m.AmountMinor,
		&m.Reason,
		&m.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Marker{}, false, nil
		}
		return Marker{}, false, err
	}
	return m, true, nil
}

func (t *pgTx) PutMarker(ctx context.Context, m Marker) error {
	const q = `
INSERT INTO settlement_markers (key, booking_id, session_id, outcome, amount_minor, reason, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (key) DO NOTHING
`
	res, err := t.tx.ExecContext(ctx, q,
		m.Key,
		m.BookingID,
		m.SessionID,
		m.Outcome,
		m.AmountMinor,
		m.Reason,
		m.CreatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadySettled
	}
	return nil
}
