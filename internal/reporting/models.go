package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SessionsSummaryRequest requests aggregated session metrics.

type SessionsSummaryRequest struct {
	Range TimeRange `json:"range"`

	// Kind optionally narrows to one session kind.
	Kind string `json:"kind,omitempty"`
}

type SessionsSummary struct {
	Kind string `json:"kind,omitempty"`

	TotalSessions     int `json:"total_sessions"`
	EndedSessions     int `json:"ended_sessions"`
	OngoingSessions   int `json:"ongoing_sessions"`
	InitiatedSessions int `json:"initiated_sessions"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

// SpendSummaryRequest requests a user's aggregated spend.
// Spend is derived from immutable wallet ledger entries.

type SpendSummaryRequest struct {
	UserID string    `json:"user_id"`
	Range  TimeRange `json:"range"`
}

type SpendSummary struct {
	UserID string `json:"user_id"`

	TotalDebitMinor  int64 `json:"total_debit_minor"`
	TotalCreditMinor int64 `json:"total_credit_minor"`
	NetDeltaMinor    int64 `json:"net_delta_minor"`

	SessionChargeMinor int64 `json:"session_charge_minor"`
	TopUpMinor         int64 `json:"topup_minor"`

	FailedCharges int `json:"failed_charges"`
}

// EarningsSummaryRequest requests an advisor's aggregated settled earnings.

type EarningsSummaryRequest struct {
	AdvisorID string    `json:"advisor_id"`
	Range     TimeRange `json:"range"`
}

type EarningsSummary struct {
	AdvisorID string `json:"advisor_id"`

	SettledMinor int64 `json:"settled_minor"`
	PendingMinor int64 `json:"pending_minor"`

	SettledSessions int `json:"settled_sessions"`
	PendingSessions int `json:"pending_sessions"`
}
