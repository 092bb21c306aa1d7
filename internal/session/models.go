package session

import "time"

// Session represents one call/chat session record.
//
// Sessions are created by the call-start flow, mutated to "ended" by the
// transport layer, and are immutable after settlement. The session's kind
// only selects which event stream it arrives on; settlement logic is
// identical across kinds.
//
// Money invariant reminder: usage charging references booking_id/session_id
// in the wallet ledger rather than mutating money fields here.

type Session struct {
	ID        string `json:"id" db:"id"`
	Kind      Kind   `json:"kind" db:"kind"`
	BookingID string `json:"booking_id" db:"booking_id"`

	// CallID is the transport-layer call identifier, carried for traceability.
	CallID string `json:"call_id,omitempty" db:"call_id"`

	Status Status `json:"status" db:"status"`

	// DurationSeconds is the elapsed session duration in seconds.
	DurationSeconds int `json:"duration" db:"duration_seconds"`

	// RatePerMinuteMinor is the agreed per-minute rate in minor units.
	// Present for instant bookings only; zero otherwise.
	RatePerMinuteMinor int64 `json:"rate_per_minute_minor,omitempty" db:"rate_per_minute_minor"`

	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindChat  Kind = "chat"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindVideo, KindAudio, KindChat:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusOngoing   Status = "ongoing"
	StatusEnded     Status = "ended"
)

// StatusChange is the event emitted by the session store on every status
// transition. It carries the before/after documents so consumers can gate
// on the transition itself, not just the current state.
type StatusChange struct {
	Kind   Kind    `json:"kind"`
	Before Session `json:"before"`
	After  Session `json:"after"`
}
