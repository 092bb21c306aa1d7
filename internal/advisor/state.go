package advisor

import "time"

// The session state machine is expressed as pure transition functions:
// (State, event inputs) -> State. Callers persist the returned state
// atomically; the functions themselves never touch storage, which keeps
// every transition unit-testable.
//
// Invariants, after every transition:
// - 0 <= CurrentActiveSessions <= MaxParallelSessions
// - AcceptNewBookings == (CurrentActiveSessions < MaxParallelSessions)
//   && Status not in {busy, away}

type Status string

const (
	StatusOffline Status = "offline"
	StatusOnline  Status = "online"
	StatusBusy    Status = "busy"
	StatusAway    Status = "away"
)

// State is an advisor's availability and session-concurrency record.
type State struct {
	AdvisorID string `json:"advisor_id" db:"advisor_id"`

	IsActive      bool   `json:"is_active" db:"is_active"`
	Status        Status `json:"status" db:"status"`
	StatusMessage string `json:"status_message,omitempty" db:"status_message"`

	CurrentActiveSessions int `json:"current_active_sessions" db:"current_active_sessions"`
	MaxParallelSessions   int `json:"max_parallel_sessions" db:"max_parallel_sessions"`

	AcceptNewBookings bool `json:"accept_new_bookings" db:"accept_new_bookings"`

	// CurrentSessionID tracks the most recent booking/session; cleared only
	// when the active-session count returns to zero.
	CurrentSessionID string `json:"current_session_id,omitempty" db:"current_session_id"`

	// Presence accounting.
	SessionCount       int64     `json:"session_count" db:"session_count"`
	TotalActiveSeconds int64     `json:"total_active_seconds" db:"total_active_seconds"`
	SessionStartedAt   time.Time `json:"session_started_at,omitempty" db:"session_started_at"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func recomputeAccept(s State) bool {
	if s.MaxParallelSessions <= 0 {
		return false
	}
	return s.CurrentActiveSessions < s.MaxParallelSessions &&
		s.Status != StatusBusy && s.Status != StatusAway
}

// StartSession brings an advisor online (presence). typ may be any non-offline
// status; busy/away presence blocks new bookings immediately.
func StartSession(s State, typ Status, message, presenceID string, now time.Time) State {
	if typ == "" || typ == StatusOffline {
		typ = StatusOnline
	}
	s.IsActive = true
	s.Status = typ
	s.StatusMessage = message
	s.SessionCount++
	s.CurrentSessionID = presenceID
	s.SessionStartedAt = now
	s.AcceptNewBookings = recomputeAccept(s)
	s.UpdatedAt = now
	return s
}

// EndSession takes an advisor offline, accumulating total active time and
// resetting the active-session counters.
func EndSession(s State, now time.Time) State {
	if !s.SessionStartedAt.IsZero() && now.After(s.SessionStartedAt) {
		s.TotalActiveSeconds += int64(now.Sub(s.SessionStartedAt).Seconds())
	}
	s.IsActive = false
	s.Status = StatusOffline
	s.StatusMessage = ""
	s.CurrentActiveSessions = 0
	s.CurrentSessionID = ""
	s.SessionStartedAt = time.Time{}
	s.AcceptNewBookings = false
	s.UpdatedAt = now
	return s
}

// StartCallSession occupies one session slot. The count is capped at
// MaxParallelSessions; reaching capacity flips the advisor to busy.
func StartCallSession(s State, bookingID string, now time.Time) State {
	if s.CurrentActiveSessions < s.MaxParallelSessions {
		s.CurrentActiveSessions++
	}
	s.CurrentSessionID = bookingID
	if s.CurrentActiveSessions >= s.MaxParallelSessions {
		s.Status = StatusBusy
	} else {
		s.Status = StatusOnline
	}
	s.AcceptNewBookings = recomputeAccept(s)
	s.UpdatedAt = now
	return s
}

// EndCallSession frees one session slot (floored at zero). Dropping below
// capacity restores online; the current session id clears only when the
// count reaches zero.
func EndCallSession(s State, now time.Time) State {
	if s.CurrentActiveSessions > 0 {
		s.CurrentActiveSessions--
	}
	if s.CurrentActiveSessions >= s.MaxParallelSessions {
		s.Status = StatusBusy
	} else if s.Status == StatusBusy {
		s.Status = StatusOnline
	}
	if s.CurrentActiveSessions == 0 {
		s.CurrentSessionID = ""
	}
	s.AcceptNewBookings = recomputeAccept(s)
	s.UpdatedAt = now
	return s
}

// CanAcceptNewCalls is the admission predicate consulted by the
// booking-creation flow before a new booking is created.
func CanAcceptNewCalls(s State) bool {
	return s.IsActive &&
		s.AcceptNewBookings &&
		s.CurrentActiveSessions < s.MaxParallelSessions &&
		s.Status != StatusBusy && s.Status != StatusAway
}
