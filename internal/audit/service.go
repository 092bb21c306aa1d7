package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to end users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogSettlement records one settlement attempt's terminal outcome.
func (s *Service) LogSettlement(ctx context.Context, bookingID, sessionID, advisorID, userID, outcome string, amountMinor int64, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeSettlement,
		BookingID:   bookingID,
		SessionID:   sessionID,
		AdvisorID:   advisorID,
		UserID:      userID,
		Outcome:     outcome,
		AmountMinor: amountMinor,
		Message:     message,
	})
}

// LogTopUp records a wallet top-up.
func (s *Service) LogTopUp(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeTopUp,
		UserID:      userID,
		AmountMinor: amountMinor,
		Metadata:    `{"idempotency_key":"` + idempotencyKey + `"}`,
	})
}

// LogAdminAction records an admin action (including hidden roles).
func (s *Service) LogAdminAction(ctx context.Context, actorUserID, actorRole, ip, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
	})
}
