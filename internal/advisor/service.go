package advisor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"advisor-platform/pkg/logger"
	"advisor-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Service applies state-machine transitions as atomic read-modify-writes
// against the advisor's state record. Two sessions starting or ending
// concurrently for the same advisor serialize on the row lock; a
// read-then-write outside the transaction would be a correctness bug.
//
// A redis slot counter mirrors the capacity as a fast-path admission gate;
// the transactional state remains authoritative.
type Service struct {
	db  *sql.DB
	rdb *redis.Client

	defaultMaxParallel int
	slotTTL            time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(db *sql.DB, rdb *redis.Client, defaultMaxParallel int, slotTTL time.Duration) *Service {
	if defaultMaxParallel <= 0 {
		defaultMaxParallel = 1
	}
	return &Service{
		db:                 db,
		rdb:                rdb,
		defaultMaxParallel: defaultMaxParallel,
		slotTTL:            slotTTL,
		clock:              time.Now,
	}
}

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotAcceptingCalls = errors.New("advisor not accepting calls")
)

func slotKey(advisorID string) string {
	return "advisor:slots:" + advisorID
}

// sessionCap resolves the effective parallel-session limit for a state row.
// Rows without an explicit limit fall back to the service default.
func sessionCap(rowCap, def int) int {
	if rowCap > 0 {
		return rowCap
	}
	return def
}

// initialState seeds a record for advisors seen for the first time.
func (s *Service) initialState(advisorID string) State {
	return State{
		AdvisorID:           advisorID,
		Status:              StatusOffline,
		MaxParallelSessions: s.defaultMaxParallel,
	}
}

// transition loads the advisor state under a row lock, applies fn, and
// persists the result in the same transaction.
func (s *Service) transition(ctx context.Context, advisorID string, fn func(State) State) (State, error) {
	if advisorID == "" {
		return State{}, ErrInvalidArgument
	}

	var out State
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		st, ok, err := GetStateForUpdate(ctx, tx, advisorID)
		if err != nil {
			return err
		}
		if !ok {
			st = s.initialState(advisorID)
		}
		st.MaxParallelSessions = sessionCap(st.MaxParallelSessions, s.defaultMaxParallel)

		next := fn(st)
		if err := SaveState(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// StartSession brings the advisor online (presence).
func (s *Service) StartSession(ctx context.Context, advisorID string, typ Status, message string) (State, error) {
	now := s.clock().UTC()
	presenceID := uuid.NewString()
	return s.transition(ctx, advisorID, func(st State) State {
		return StartSession(st, typ, message, presenceID, now)
	})
}

// EndSession takes the advisor offline.
func (s *Service) EndSession(ctx context.Context, advisorID string) (State, error) {
	now := s.clock().UTC()
	return s.transition(ctx, advisorID, func(st State) State {
		return EndSession(st, now)
	})
}

// StartCallSession occupies a session slot for a newly accepted booking.
// Rejected with ErrNotAcceptingCalls when the admission predicate fails.
func (s *Service) StartCallSession(ctx context.Context, advisorID, bookingID string) (State, error) {
	if advisorID == "" || bookingID == "" {
		return State{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	log := logger.From(ctx)

	// Fast-path gate. Redis being down must not block admission; the
	// transactional check below is authoritative. The gate caps on the
	// row's own limit so advisors with a raised cap are not turned away
	// at the default.
	slotHeld := false
	if s.rdb != nil {
		limit := s.defaultMaxParallel
		if st, ok, err := GetState(ctx, s.db, advisorID); err != nil {
			log.Warn("advisor state read for slot gate failed", "advisor_id", advisorID, "err", err)
		} else if ok {
			limit = sessionCap(st.MaxParallelSessions, s.defaultMaxParallel)
		}
		ok, err := utils.AcquireSessionSlot(ctx, s.rdb, slotKey(advisorID), limit, s.slotTTL)
		if err != nil {
			log.Warn("session slot acquire failed, falling back to store", "advisor_id", advisorID, "err", err)
		} else if !ok {
			return State{}, ErrNotAcceptingCalls
		} else {
			slotHeld = true
		}
	}

	var rejected bool
	st, err := s.transition(ctx, advisorID, func(st State) State {
		if !CanAcceptNewCalls(st) {
			rejected = true
			return st
		}
		return StartCallSession(st, bookingID, now)
	})
	if err != nil || rejected {
		if slotHeld {
			_ = utils.ReleaseSessionSlot(ctx, s.rdb, slotKey(advisorID))
		}
		if err == nil {
			err = ErrNotAcceptingCalls
		}
		return State{}, err
	}
	return st, nil
}

// EndCallSession frees a session slot when a session finishes.
func (s *Service) EndCallSession(ctx context.Context, advisorID string) (State, error) {
	now := s.clock().UTC()
	st, err := s.transition(ctx, advisorID, func(st State) State {
		return EndCallSession(st, now)
	})
	if err != nil {
		return State{}, err
	}
	if s.rdb != nil {
		if rerr := utils.ReleaseSessionSlot(ctx, s.rdb, slotKey(advisorID)); rerr != nil {
			logger.From(ctx).Warn("session slot release failed", "advisor_id", advisorID, "err", rerr)
		}
	}
	return st, nil
}

// CanAcceptNewCalls reports whether the booking-creation flow may create a
// new booking for this advisor right now.
func (s *Service) CanAcceptNewCalls(ctx context.Context, advisorID string) (bool, State, error) {
	if advisorID == "" {
		return false, State{}, ErrInvalidArgument
	}
	st, ok, err := GetState(ctx, s.db, advisorID)
	if err != nil {
		return false, State{}, err
	}
	if !ok {
		return false, s.initialState(advisorID), nil
	}
	return CanAcceptNewCalls(st), st, nil
}

// Earnings returns the advisor's earnings accumulators.
func (s *Service) Earnings(ctx context.Context, advisorID string) (Earnings, error) {
	if advisorID == "" {
		return Earnings{}, ErrInvalidArgument
	}
	e, ok, err := GetEarnings(ctx, s.db, advisorID)
	if err != nil {
		return Earnings{}, err
	}
	if !ok {
		return Earnings{AdvisorID: advisorID}, nil
	}
	return e, nil
}
