package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"advisor-platform/internal/booking"
	"advisor-platform/internal/session"
	"advisor-platform/internal/settlement"
	"advisor-platform/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// StatusHandler consumes one status-change event. Satisfied by
// *settlement.Trigger.
type StatusHandler interface {
	HandleStatusChange(ctx context.Context, ch session.StatusChange) (settlement.Result, bool, error)
}

// CompletionPublisher is the completion side of Publisher.
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, rec CompletionRecord) error
}

// SessionSaver persists the latest session document. Satisfied by
// *session.Store.
type SessionSaver interface {
	SaveSession(ctx context.Context, s session.Session) error
}

// NewSessionReader builds a consumer-group reader over one session kind's
// status-change topic.
func NewSessionReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10,
		MaxBytes: 10e6,
		MaxWait:  100 * time.Millisecond,
	})
}

// Consumer drives the settlement trigger from a status-change topic.
//
// Delivery is at least once: offsets commit only after the handler returns,
// so a crash between settle and commit redelivers the event. The trigger's
// replay gate and the completion marker make redelivery harmless.
type Consumer struct {
	reader      *kafka.Reader
	handler     StatusHandler
	completions CompletionPublisher
	sessions    SessionSaver
	clock       func() time.Time
}

func NewConsumer(reader *kafka.Reader, handler StatusHandler, completions CompletionPublisher, sessions SessionSaver) *Consumer {
	return &Consumer{
		reader:      reader,
		handler:     handler,
		completions: completions,
		sessions:    sessions,
		clock:       time.Now,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.From(ctx)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if c.process(ctx, msg.Value, log) {
			if cerr := c.reader.CommitMessages(ctx, msg); cerr != nil {
				log.Error("offset commit failed", "topic", msg.Topic, "offset", msg.Offset, "err", cerr)
			}
		}
	}
}

// process handles one raw event and reports whether its offset may commit.
// A false return leaves the event for redelivery.
func (c *Consumer) process(ctx context.Context, value []byte, log *slog.Logger) bool {
	var ch session.StatusChange
	if err := json.Unmarshal(value, &ch); err != nil {
		// Malformed messages cannot become well-formed on redelivery.
		log.Error("dropping malformed status-change event", "err", err)
		return true
	}

	if c.sessions != nil {
		if err := c.sessions.SaveSession(ctx, ch.After); err != nil {
			// The document write and the settlement must both land
			// eventually; hold the offset.
			log.Error("session document save failed, will redeliver",
				"session_id", ch.After.ID, "err", err)
			return false
		}
	}

	res, fired, err := c.handler.HandleStatusChange(ctx, ch)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			// Aborted settlements need manual reconciliation; redelivering
			// the event cannot repair missing data.
			log.Error("settlement aborted, committing event",
				"booking_id", ch.After.BookingID, "session_id", ch.After.ID, "err", err)
			return true
		}
		// Transient store failure: redeliver.
		log.Error("status-change handling failed, will redeliver",
			"booking_id", ch.After.BookingID, "err", err)
		return false
	}

	if fired && !res.AlreadySettled && c.completions != nil {
		rec := CompletionRecord{
			BookingID:     res.BookingID,
			SessionID:     ch.After.ID,
			Kind:          string(ch.Kind),
			Outcome:       res.Outcome,
			AmountMinor:   res.AmountMinor,
			FailureReason: res.FailureReason,
			SettledAt:     c.clock().UTC(),
		}
		// The settlement is already durable; a publish failure only loses
		// the notification, never the money movement.
		if perr := c.completions.PublishCompletion(ctx, rec); perr != nil {
			log.Warn("completion publish failed", "booking_id", res.BookingID, "err", perr)
		}
	}
	return true
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
