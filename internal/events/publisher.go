package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advisor-platform/internal/session"
	"advisor-platform/internal/settlement"

	"github.com/segmentio/kafka-go"
)

// NewWriter builds the shared kafka writer. The topic is chosen per
// message; the hash balancer keyed by booking id keeps one booking's
// events on one partition, preserving their order.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		MaxAttempts:  10,
	}
}

// CompletionRecord is published after a settlement commits, for downstream
// consumers (notifications, reporting exports).
type CompletionRecord struct {
	BookingID     string             `json:"booking_id"`
	SessionID     string             `json:"session_id"`
	Kind          string             `json:"kind,omitempty"`
	Outcome       settlement.Outcome `json:"outcome"`
	AmountMinor   int64              `json:"amount_minor"`
	FailureReason string             `json:"failure_reason,omitempty"`
	SettledAt     time.Time          `json:"settled_at"`
}

// Publisher writes session status changes and settlement completion
// records to kafka.
type Publisher struct {
	writer          *kafka.Writer
	sessionTopic    func(kind string) string
	completionTopic string
}

func NewPublisher(writer *kafka.Writer, sessionTopic func(kind string) string, completionTopic string) *Publisher {
	return &Publisher{
		writer:          writer,
		sessionTopic:    sessionTopic,
		completionTopic: completionTopic,
	}
}

// PublishStatusChange enqueues one status-change event on the topic for its
// session kind, keyed by booking id.
func (p *Publisher) PublishStatusChange(ctx context.Context, ch session.StatusChange) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.sessionTopic(string(ch.Kind)),
		Key:   []byte(ch.After.BookingID),
		Value: payload,
	})
}

// PublishCompletion enqueues one settlement completion record.
func (p *Publisher) PublishCompletion(ctx context.Context, rec CompletionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal completion record: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.completionTopic,
		Key:   []byte(rec.BookingID),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
