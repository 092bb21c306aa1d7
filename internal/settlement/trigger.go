package settlement

import (
	"context"

	"advisor-platform/internal/session"
	"advisor-platform/pkg/logger"
)

// Trigger turns session status-change events into settlement attempts.
// It fires exactly once per transition into "ended": changes whose after
// status is not ended, and replays where the before status was already
// ended, are ignored. The coordinator's completion marker backstops the
// at-least-once event delivery underneath this gate.
type Trigger struct {
	coord *Coordinator
}

func NewTrigger(coord *Coordinator) *Trigger {
	return &Trigger{coord: coord}
}

// HandleStatusChange inspects one status-change event and settles when the
// session just ended. fired reports whether a settlement attempt ran.
func (t *Trigger) HandleStatusChange(ctx context.Context, ch session.StatusChange) (Result, bool, error) {
	if ch.After.Status != session.StatusEnded {
		return Result{}, false, nil
	}
	if ch.Before.Status == session.StatusEnded {
		// Replayed update of an already-ended session.
		logger.From(ctx).Debug("ignoring replayed ended event",
			"session_id", ch.After.ID, "booking_id", ch.After.BookingID)
		return Result{}, false, nil
	}

	res, err := t.coord.Settle(ctx, ch.After)
	return res, true, err
}
