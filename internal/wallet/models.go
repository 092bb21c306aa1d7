package wallet

import "time"

// Wallet is a user's spendable balance.
// Invariant: the balance never mutates without a corresponding ledger entry,
// and only inside a settlement or top-up transaction.
type Wallet struct {
	UserID string `json:"user_id" db:"user_id"`

	// BalanceMinor is the canonical balance in minor units (e.g., cents).
	// A deprecated legacy_wallet_balance_minor column may still exist for
	// read compatibility; it is handled at the repository boundary only.
	BalanceMinor int64 `json:"balance_minor" db:"balance_minor"`

	TotalSpentMinor   int64     `json:"total_spent_minor" db:"total_spent_minor"`
	TransactionCount  int64     `json:"transaction_count" db:"transaction_count"`
	LastTransactionAt time.Time `json:"last_transaction_at" db:"last_transaction_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LedgerEntry is an immutable append-only record of one party's side of a
// money movement: the payer's debit or the advisor's credit.
type LedgerEntry struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"owner_id" db:"owner_id"`

	Direction Direction `json:"direction" db:"direction"`

	// Status reflects the settlement outcome this entry belongs to.
	// Advisor credits of failed settlements stay pending.
	Status EntryStatus `json:"status" db:"status"`

	// AmountMinor is always non-negative; Direction carries the sign.
	AmountMinor int64 `json:"amount_minor" db:"amount_minor"`

	Category Category `json:"category" db:"category"`

	BookingID string `json:"booking_id,omitempty" db:"booking_id"`
	SessionID string `json:"session_id,omitempty" db:"session_id"`

	Description string `json:"description,omitempty" db:"description"`

	// IdempotencyKey is required for safe retries of money-posting operations.
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

type EntryStatus string

const (
	EntryStatusSuccess EntryStatus = "success"
	EntryStatusFailed  EntryStatus = "failed"
	EntryStatusPending EntryStatus = "pending"
)

type Category string

const (
	CategorySessionCharge  Category = "session_charge"
	CategoryAdvisorEarning Category = "advisor_earning"
	CategoryTopUp          Category = "topup"
)
