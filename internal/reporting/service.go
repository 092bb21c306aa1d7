package reporting

import (
	"context"
	"errors"
	"time"

	"advisor-platform/internal/session"
	"advisor-platform/internal/wallet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// Implementations should query immutable sources when possible (wallet
// ledger, session records).

type Repository interface {
	ListSessions(ctx context.Context, from, to time.Time, kind string) ([]session.Session, error)
	ListLedger(ctx context.Context, ownerID string, from, to time.Time) ([]wallet.LedgerEntry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validRange(r TimeRange) bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (s *Service) SessionsSummary(ctx context.Context, req SessionsSummaryRequest) (SessionsSummary, error) {
	if !validRange(req.Range) {
		return SessionsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return SessionsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListSessions(ctx, req.Range.From, req.Range.To, req.Kind)
	if err != nil {
		return SessionsSummary{}, err
	}

	out := SessionsSummary{Kind: req.Kind}
	for _, sess := range rows {
		out.TotalSessions++
		out.TotalDurationSeconds += sess.DurationSeconds
		switch sess.Status {
		case session.StatusEnded:
			out.EndedSessions++
		case session.StatusOngoing:
			out.OngoingSessions++
		case session.StatusInitiated:
			out.InitiatedSessions++
		}
	}
	if out.TotalSessions > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalSessions
	}
	return out, nil
}

func (s *Service) SpendSummary(ctx context.Context, req SpendSummaryRequest) (SpendSummary, error) {
	if req.UserID == "" || !validRange(req.Range) {
		return SpendSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return SpendSummary{}, errors.New("reporting: repository not configured")
	}

	entries, err := s.repo.ListLedger(ctx, req.UserID, req.Range.From, req.Range.To)
	if err != nil {
		return SpendSummary{}, err
	}

	out := SpendSummary{UserID: req.UserID}
	for _, e := range entries {
		if e.Status == wallet.EntryStatusFailed {
			if e.Direction == wallet.DirectionDebit {
				out.FailedCharges++
			}
			continue
		}
		if e.Status != wallet.EntryStatusSuccess {
			continue
		}

		switch e.Direction {
		case wallet.DirectionDebit:
			out.TotalDebitMinor += e.AmountMinor
		case wallet.DirectionCredit:
			out.TotalCreditMinor += e.AmountMinor
		}

		switch e.Category {
		case wallet.CategorySessionCharge:
			out.SessionChargeMinor += e.AmountMinor
		case wallet.CategoryTopUp:
			out.TopUpMinor += e.AmountMinor
		}
	}
	out.NetDeltaMinor = out.TotalCreditMinor - out.TotalDebitMinor
	return out, nil
}

func (s *Service) EarningsSummary(ctx context.Context, req EarningsSummaryRequest) (EarningsSummary, error) {
	if req.AdvisorID == "" || !validRange(req.Range) {
		return EarningsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return EarningsSummary{}, errors.New("reporting: repository not configured")
	}

	entries, err := s.repo.ListLedger(ctx, req.AdvisorID, req.Range.From, req.Range.To)
	if err != nil {
		return EarningsSummary{}, err
	}

	out := EarningsSummary{AdvisorID: req.AdvisorID}
	for _, e := range entries {
		if e.Direction != wallet.DirectionCredit || e.Category != wallet.CategoryAdvisorEarning {
			continue
		}
		switch e.Status {
		case wallet.EntryStatusSuccess:
			out.SettledMinor += e.AmountMinor
			out.SettledSessions++
		case wallet.EntryStatusPending:
			out.PendingMinor += e.AmountMinor
			out.PendingSessions++
		}
	}
	return out, nil
}
