package reporting

import (
	"context"
	"database/sql"
	"time"

	"advisor-platform/internal/session"
	"advisor-platform/internal/wallet"
)

// PostgresRepo reads reporting sources straight from the durable stores:
// the sessions table and the append-only wallet ledger.

type PostgresRepo struct {
	db       *sql.DB
	sessions *session.Store

	// ledgerLimit caps one owner's entries per query.
	ledgerLimit int
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{
		db:          db,
		sessions:    session.NewStore(db),
		ledgerLimit: 10000,
	}
}

func (r *PostgresRepo) ListSessions(ctx context.Context, from, to time.Time, kind string) ([]session.Session, error) {
	return r.sessions.ListByRange(ctx, from, to, kind)
}

func (r *PostgresRepo) ListLedger(ctx context.Context, ownerID string, from, to time.Time) ([]wallet.LedgerEntry, error) {
	return wallet.ListLedgerByOwner(ctx, r.db, ownerID, from, to, r.ledgerLimit)
}
