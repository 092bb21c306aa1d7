package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NOTE: This store assumes a sessions table keyed by id. Rows mirror the
// transport provider's session documents; the consumer upserts the latest
// document on every status change.

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveSession upserts the latest session document.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	const q = `
INSERT INTO sessions (
  id, kind, booking_id, call_id, status, duration_seconds,
  rate_per_minute_minor, start_time, end_time, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10
)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  duration_seconds = EXCLUDED.duration_seconds,
  end_time = EXCLUDED.end_time,
  updated_at = EXCLUDED.updated_at
`
	var start, end any
	if !sess.StartTime.IsZero() {
		start = sess.StartTime
	}
	if !sess.EndTime.IsZero() {
		end = sess.EndTime
	}
	_, err := s.db.ExecContext(ctx, q,
		sess.ID,
		sess.Kind,
		sess.BookingID,
		sess.CallID,
		sess.Status,
		sess.DurationSeconds,
		sess.RatePerMinuteMinor,
		start,
		end,
		time.Now().UTC(),
	)
	return err
}

// Get reads one session document.
func (s *Store) Get(ctx context.Context, id string) (Session, bool, error) {
	const q = `
SELECT id, kind, booking_id, call_id, status, duration_seconds,
       rate_per_minute_minor, start_time, end_time, created_at, updated_at
FROM sessions
WHERE id = $1
`
	var out Session
	var start, end sql.NullTime
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&out.ID,
		&out.Kind,
		&out.BookingID,
		&out.CallID,
		&out.Status,
		&out.DurationSeconds,
		&out.RatePerMinuteMinor,
		&start,
		&end,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	if start.Valid {
		out.StartTime = start.Time
	}
	if end.Valid {
		out.EndTime = end.Time
	}
	return out, true, nil
}

// ListByRange returns sessions created within [from, to), optionally
// narrowed to one kind.
func (s *Store) ListByRange(ctx context.Context, from, to time.Time, kind string) ([]Session, error) {
	const q = `
SELECT id, kind, booking_id, call_id, status, duration_seconds,
       rate_per_minute_minor, start_time, end_time, created_at, updated_at
FROM sessions
WHERE created_at >= $1 AND created_at < $2
  AND ($3 = '' OR kind = $3)
ORDER BY created_at
`
	rows, err := s.db.QueryContext(ctx, q, from, to, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var start, end sql.NullTime
		if err := rows.Scan(
			&sess.ID,
			&sess.Kind,
			&sess.BookingID,
			&sess.CallID,
			&sess.Status,
			&sess.DurationSeconds,
			&sess.RatePerMinuteMinor,
			&start,
			&end,
			&sess.CreatedAt,
			&sess.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if start.Valid {
			sess.StartTime = start.Time
		}
		if end.Valid {
			sess.EndTime = end.Time
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
