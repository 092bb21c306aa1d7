package wallet

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

// walletRow emulates driver scan conversion for one wallets row. A nil value
// stands for SQL NULL and only converts into a Null* destination, matching
// database/sql behavior.
type walletRow struct {
	vals []any
}

func (r walletRow) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: %d dests for %d values", len(dest), len(r.vals))
	}
	for i, d := range dest {
		v := r.vals[i]
		switch p := d.(type) {
		case *string:
			if v == nil {
				return fmt.Errorf("column %d: cannot scan NULL into *string", i)
			}
			*p = v.(string)
		case *int64:
			if v == nil {
				return fmt.Errorf("column %d: cannot scan NULL into *int64", i)
			}
			*p = v.(int64)
		case *time.Time:
			if v == nil {
				return fmt.Errorf("column %d: cannot scan NULL into *time.Time", i)
			}
			*p = v.(time.Time)
		case *sql.NullTime:
			if v == nil {
				*p = sql.NullTime{}
			} else {
				*p = sql.NullTime{Time: v.(time.Time), Valid: true}
			}
		default:
			return fmt.Errorf("column %d: unsupported dest %T", i, d)
		}
	}
	return nil
}

func TestScanWalletRow_NullLastTransaction(t *testing.T) {
	// Rows migrated from the legacy schema carry NULL last_transaction_at
	// until their first transaction here; the scan must not reject them.
	created := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	w, err := scanWalletRow(walletRow{vals: []any{
		"u1", int64(12500), int64(0), int64(0), nil, created, created,
	}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if w.UserID != "u1" || w.BalanceMinor != 12500 {
		t.Fatalf("wallet = %+v", w)
	}
	if !w.LastTransactionAt.IsZero() {
		t.Fatalf("last transaction = %v, want zero", w.LastTransactionAt)
	}
}

func TestScanWalletRow_PopulatedLastTransaction(t *testing.T) {
	created := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	last := created.Add(48 * time.Hour)
	w, err := scanWalletRow(walletRow{vals: []any{
		"u1", int64(900), int64(100), int64(3), last, created, last,
	}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !w.LastTransactionAt.Equal(last) {
		t.Fatalf("last transaction = %v, want %v", w.LastTransactionAt, last)
	}
	if w.TransactionCount != 3 {
		t.Fatalf("transaction count = %d", w.TransactionCount)
	}
}
