package advisor

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NOTE: This repository assumes the following tables exist:
// - advisor_session_state (advisor_id primary key)
// - advisor_earnings (advisor_id primary key)

// GetStateForUpdate locks the advisor's state row to serialize concurrent
// session transitions. Returns ok=false for advisors with no state yet.
func GetStateForUpdate(ctx context.Context, tx *sql.Tx, advisorID string) (State, bool, error) {
	const q = `
SELECT advisor_id, is_active, status, status_message,
       current_active_sessions, max_parallel_sessions, accept_new_bookings,
       current_session_id, session_count, total_active_seconds,
       session_started_at, updated_at
FROM advisor_session_state
WHERE advisor_id = $1
FOR UPDATE
`
	var s State
	var startedAt sql.NullTime
	if err := tx.QueryRowContext(ctx, q, advisorID).Scan(
		&s.AdvisorID,
		&s.IsActive,
		&s.Status,
		&s.StatusMessage,
		&s.CurrentActiveSessions,
		&s.MaxParallelSessions,
		&s.AcceptNewBookings,
		&s.CurrentSessionID,
		&s.SessionCount,
		&s.TotalActiveSeconds,
		&startedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	if startedAt.Valid {
		s.SessionStartedAt = startedAt.Time
	}
	return s, true, nil
}

// SaveState upserts the full advisor state record.
func SaveState(ctx context.Context, tx *sql.Tx, s State) error {
	const q = `
INSERT INTO advisor_session_state (
  advisor_id, is_active, status, status_message,
  current_active_sessions, max_parallel_sessions, accept_new_bookings,
  current_session_id, session_count, total_active_seconds,
  session_started_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
ON CONFLICT (advisor_id) DO UPDATE SET
  is_active = EXCLUDED.is_active,
  status = EXCLUDED.status,
  status_message = EXCLUDED.status_message,
  current_active_sessions = EXCLUDED.current_active_sessions,
  max_parallel_sessions = EXCLUDED.max_parallel_sessions,
  accept_new_bookings = EXCLUDED.accept_new_bookings,
  current_session_id = EXCLUDED.current_session_id,
  session_count = EXCLUDED.session_count,
  total_active_seconds = EXCLUDED.total_active_seconds,
  session_started_at = EXCLUDED.session_started_at,
  updated_at = EXCLUDED.updated_at
`
	var startedAt any
	if !s.SessionStartedAt.IsZero() {
		startedAt = s.SessionStartedAt
	}
	_, err := tx.ExecContext(ctx, q,
		s.AdvisorID,
		s.IsActive,
		s.Status,
		s.StatusMessage,
		s.CurrentActiveSessions,
		s.MaxParallelSessions,
		s.AcceptNewBookings,
		s.CurrentSessionID,
		s.SessionCount,
		s.TotalActiveSeconds,
		startedAt,
		s.UpdatedAt,
	)
	return err
}

// GetState reads advisor state without locking (availability display).
func GetState(ctx context.Context, db *sql.DB, advisorID string) (State, bool, error) {
	const q = `
SELECT advisor_id, is_active, status, status_message,
       current_active_sessions, max_parallel_sessions, accept_new_bookings,
       current_session_id, session_count, total_active_seconds,
       session_started_at, updated_at
FROM advisor_session_state
WHERE advisor_id = $1
`
	var s State
	var startedAt sql.NullTime
	if err := db.QueryRowContext(ctx, q, advisorID).Scan(
		&s.AdvisorID,
		&s.IsActive,
		&s.Status,
		&s.StatusMessage,
		&s.CurrentActiveSessions,
		&s.MaxParallelSessions,
		&s.AcceptNewBookings,
		&s.CurrentSessionID,
		&s.SessionCount,
		&s.TotalActiveSeconds,
		&startedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	if startedAt.Valid {
		s.SessionStartedAt = startedAt.Time
	}
	return s, true, nil
}

// CreditEarnings increments the earnings accumulators inside a settlement
// transaction. The day bucket resets TodayMinor on rollover.
func CreditEarnings(ctx context.Context, tx *sql.Tx, advisorID string, amountMinor int64, now time.Time) error {
	const q = `
INSERT INTO advisor_earnings (advisor_id, total_lifetime_minor, today_minor, pending_minor, earnings_date, updated_at)
VALUES ($1, $2, $2, $2, ($3)::date, $3)
ON CONFLICT (advisor_id) DO UPDATE SET
  total_lifetime_minor = advisor_earnings.total_lifetime_minor + EXCLUDED.total_lifetime_minor,
  today_minor = CASE WHEN advisor_earnings.earnings_date = EXCLUDED.earnings_date
                     THEN advisor_earnings.today_minor + EXCLUDED.today_minor
                     ELSE EXCLUDED.today_minor END,
  pending_minor = advisor_earnings.pending_minor + EXCLUDED.pending_minor,
  earnings_date = EXCLUDED.earnings_date,
  updated_at = EXCLUDED.updated_at
`
	_, err := tx.ExecContext(ctx, q, advisorID, amountMinor, now)
	return err
}

// GetEarnings reads the earnings record; ok=false when nothing earned yet.
func GetEarnings(ctx context.Context, db *sql.DB, advisorID string) (Earnings, bool, error) {
	const q = `
SELECT advisor_id, total_lifetime_minor, today_minor, pending_minor, earnings_date, updated_at
FROM advisor_earnings
WHERE advisor_id = $1
`
	var e Earnings
	if err := db.QueryRowContext(ctx, q, advisorID).Scan(
		&e.AdvisorID,
		&e.TotalLifetimeMinor,
		&e.TodayMinor,
		&e.PendingMinor,
		&e.EarningsDate,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Earnings{}, false, nil
		}
		return Earnings{}, false, err
	}
	return e, true, nil
}
