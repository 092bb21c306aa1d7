package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NOTE: This repository assumes the following tables exist:
// - wallets (user_id primary key; legacy_wallet_balance_minor is a nullable
//   deprecated column kept for read compatibility during data migration)
// - wallet_ledger (immutable append-only)
//
// It also assumes an idempotency constraint:
// UNIQUE (owner_id, idempotency_key)

// rowScanner is the subset of *sql.Row used by scanWalletRow.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanWalletRow copies one wallets row. last_transaction_at is NULL on rows
// migrated from the legacy schema before their first transaction here.
func scanWalletRow(row rowScanner) (Wallet, error) {
	var w Wallet
	var last sql.NullTime
	if err := row.Scan(
		&w.UserID,
		&w.BalanceMinor,
		&w.TotalSpentMinor,
		&w.TransactionCount,
		&last,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		return Wallet{}, err
	}
	if last.Valid {
		w.LastTransactionAt = last.Time
	}
	return w, nil
}

// GetForUpdate locks the wallet row to serialize concurrent money operations
// per wallet. Returns ok=false when the user has no wallet.
func GetForUpdate(ctx context.Context, tx *sql.Tx, userID string) (Wallet, bool, error) {
	const q = `
SELECT user_id,
       COALESCE(balance_minor, legacy_wallet_balance_minor, 0),
       total_spent_minor, transaction_count, last_transaction_at,
       created_at, updated_at
FROM wallets
WHERE user_id = $1
FOR UPDATE
`
	w, err := scanWalletRow(tx.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, false, nil
		}
		return Wallet{}, false, err
	}
	return w, true, nil
}

// Get reads a wallet without locking (balance display only).
func Get(ctx context.Context, db *sql.DB, userID string) (Wallet, bool, error) {
	const q = `
SELECT user_id,
       COALESCE(balance_minor, legacy_wallet_balance_minor, 0),
       total_spent_minor, transaction_count, last_transaction_at,
       created_at, updated_at
FROM wallets
WHERE user_id = $1
`
	w, err := scanWalletRow(db.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, false, nil
		}
		return Wallet{}, false, err
	}
	return w, true, nil
}

// ApplyDebit decrements the balance and bumps the spend accumulators.
// The caller must have locked the row and verified sufficient funds.
func ApplyDebit(ctx context.Context, tx *sql.Tx, userID string, amountMinor int64, now time.Time) (Wallet, error) {
	const q = `
UPDATE wallets
SET balance_minor = COALESCE(balance_minor, legacy_wallet_balance_minor, 0) - $2,
    total_spent_minor = total_spent_minor + $2,
    transaction_count = transaction_count + 1,
    last_transaction_at = $3,
    updated_at = $3
WHERE user_id = $1
RETURNING user_id, balance_minor, total_spent_minor, transaction_count,
          last_transaction_at, created_at, updated_at
`
	return scanWalletRow(tx.QueryRowContext(ctx, q, userID, amountMinor, now))
}

// ApplyCredit upserts the wallet and increments the balance (top-up path).
func ApplyCredit(ctx context.Context, tx *sql.Tx, userID string, amountMinor int64, now time.Time) (Wallet, error) {
	const q = `
INSERT INTO wallets (user_id, balance_minor, total_spent_minor, transaction_count, last_transaction_at, created_at, updated_at)
VALUES ($1, $2, 0, 1, $3, $3, $3)
ON CONFLICT (user_id)
DO UPDATE SET balance_minor = COALESCE(wallets.balance_minor, wallets.legacy_wallet_balance_minor, 0) + EXCLUDED.balance_minor,
              transaction_count = wallets.transaction_count + 1,
              last_transaction_at = EXCLUDED.last_transaction_at,
              updated_at = EXCLUDED.updated_at
RETURNING user_id, balance_minor, total_spent_minor, transaction_count,
          last_transaction_at, created_at, updated_at
`
	return scanWalletRow(tx.QueryRowContext(ctx, q, userID, amountMinor, now))
}

// AppendLedger inserts an immutable ledger entry.
func AppendLedger(ctx context.Context, tx *sql.Tx, e LedgerEntry) error {
	const q = `
INSERT INTO wallet_ledger (
  id, owner_id, direction, status, amount_minor, category,
  booking_id, session_id, description, idempotency_key, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := tx.ExecContext(ctx, q,
		e.ID,
		e.OwnerID,
		e.Direction,
		e.Status,
		e.AmountMinor,
		e.Category,
		e.BookingID,
		e.SessionID,
		e.Description,
		e.IdempotencyKey,
		e.CreatedAt,
	)
	return err
}

// FindLedgerByIdempotency returns an existing entry for owner+key if one exists.
func FindLedgerByIdempotency(ctx context.Context, tx *sql.Tx, ownerID, key string) (LedgerEntry, bool, error) {
	const q = `
SELECT id, owner_id, direction, status, amount_minor, category,
       booking_id, session_id, description, idempotency_key, created_at
FROM wallet_ledger
WHERE owner_id = $1 AND idempotency_key = $2
LIMIT 1
`
	var e LedgerEntry
	err := tx.QueryRowContext(ctx, q, ownerID, key).Scan(
		&e.ID,
		&e.OwnerID,
		&e.Direction,
		&e.Status,
		&e.AmountMinor,
		&e.Category,
		&e.BookingID,
		&e.SessionID,
		&e.Description,
		&e.IdempotencyKey,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LedgerEntry{}, false, nil
		}
		return LedgerEntry{}, false, err
	}
	return e, true, nil
}

// ListLedgerByOwner returns entries for one owner within [from, to), newest first.
func ListLedgerByOwner(ctx context.Context, db *sql.DB, ownerID string, from, to time.Time, limit int) ([]LedgerEntry, error) {
	const q = `
SELECT id, owner_id, direction, status, amount_minor, category,
       booking_id, session_id, description, idempotency_key, created_at
FROM wallet_ledger
WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT $4
`
	rows, err := db.QueryContext(ctx, q, ownerID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(
			&e.ID,
			&e.OwnerID,
			&e.Direction,
			&e.Status,
			&e.AmountMinor,
			&e.Category,
			&e.BookingID,
			&e.SessionID,
			&e.Description,
			&e.IdempotencyKey,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
