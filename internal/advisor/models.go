package advisor

import "time"

// Earnings are monotonic accumulators, credited only inside a successful
// settlement transaction. TodayMinor resets when the day bucket rolls over.
type Earnings struct {
	AdvisorID string `json:"advisor_id" db:"advisor_id"`

	TotalLifetimeMinor int64 `json:"total_lifetime_minor" db:"total_lifetime_minor"`
	TodayMinor         int64 `json:"today_minor" db:"today_minor"`

	// PendingMinor is the earned-but-not-withdrawn balance.
	PendingMinor int64 `json:"pending_minor" db:"pending_minor"`

	// EarningsDate is the UTC day bucket TodayMinor refers to.
	EarningsDate time.Time `json:"earnings_date" db:"earnings_date"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
