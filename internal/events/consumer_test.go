package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"advisor-platform/internal/booking"
	"advisor-platform/internal/session"
	"advisor-platform/internal/settlement"
)

type fakeHandler struct {
	res   settlement.Result
	fired bool
	err   error
	calls int
}

func (f *fakeHandler) HandleStatusChange(ctx context.Context, ch session.StatusChange) (settlement.Result, bool, error) {
	f.calls++
	return f.res, f.fired, f.err
}

type fakeCompletions struct {
	recs []CompletionRecord
	err  error
}

func (f *fakeCompletions) PublishCompletion(ctx context.Context, rec CompletionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

type fakeSaver struct {
	saved []session.Session
	err   error
}

func (f *fakeSaver) SaveSession(ctx context.Context, s session.Session) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func encode(t *testing.T, ch session.StatusChange) []byte {
	t.Helper()
	b, err := json.Marshal(ch)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func endedChange(bookingID string) session.StatusChange {
	return session.StatusChange{
		Kind:   session.KindVideo,
		Before: session.Session{ID: "s1", BookingID: bookingID, Status: session.StatusOngoing},
		After:  session.Session{ID: "s1", BookingID: bookingID, Status: session.StatusEnded, DurationSeconds: 90},
	}
}

func TestConsumer_CommitsAndPublishesOnSettlement(t *testing.T) {
	h := &fakeHandler{
		res:   settlement.Result{Outcome: settlement.OutcomeSuccess, BookingID: "b1", AmountMinor: 9000},
		fired: true,
	}
	comp := &fakeCompletions{}
	saver := &fakeSaver{}
	c := NewConsumer(nil, h, comp, saver)

	commit := c.process(context.Background(), encode(t, endedChange("b1")), slog.Default())
	if !commit {
		t.Fatalf("expected commit")
	}
	if len(saver.saved) != 1 || saver.saved[0].ID != "s1" {
		t.Fatalf("session not saved: %+v", saver.saved)
	}
	if len(comp.recs) != 1 {
		t.Fatalf("completion records = %d, want 1", len(comp.recs))
	}
	if comp.recs[0].BookingID != "b1" || comp.recs[0].AmountMinor != 9000 {
		t.Fatalf("completion record = %+v", comp.recs[0])
	}
}

func TestConsumer_DropsMalformedEvents(t *testing.T) {
	h := &fakeHandler{}
	c := NewConsumer(nil, h, nil, nil)

	if !c.process(context.Background(), []byte("{not json"), slog.Default()) {
		t.Fatalf("malformed event must commit")
	}
	if h.calls != 0 {
		t.Fatalf("handler invoked for malformed event")
	}
}

func TestConsumer_HoldsOffsetOnTransientFailure(t *testing.T) {
	h := &fakeHandler{err: fmt.Errorf("store down")}
	c := NewConsumer(nil, h, nil, nil)

	if c.process(context.Background(), encode(t, endedChange("b1")), slog.Default()) {
		t.Fatalf("transient failure must not commit")
	}
}

func TestConsumer_CommitsAbortedSettlements(t *testing.T) {
	h := &fakeHandler{err: fmt.Errorf("resolve: %w", booking.ErrBookingNotFound), fired: true}
	c := NewConsumer(nil, h, nil, nil)

	if !c.process(context.Background(), encode(t, endedChange("ghost")), slog.Default()) {
		t.Fatalf("aborted settlement must commit; redelivery cannot help")
	}
}

func TestConsumer_HoldsOffsetWhenSessionSaveFails(t *testing.T) {
	h := &fakeHandler{}
	saver := &fakeSaver{err: errors.New("db down")}
	c := NewConsumer(nil, h, nil, saver)

	if c.process(context.Background(), encode(t, endedChange("b1")), slog.Default()) {
		t.Fatalf("save failure must not commit")
	}
	if h.calls != 0 {
		t.Fatalf("handler should not run when the document save fails")
	}
}

func TestConsumer_NoCompletionForReplays(t *testing.T) {
	h := &fakeHandler{
		res:   settlement.Result{Outcome: settlement.OutcomeSuccess, BookingID: "b1", AlreadySettled: true},
		fired: true,
	}
	comp := &fakeCompletions{}
	c := NewConsumer(nil, h, comp, nil)

	if !c.process(context.Background(), encode(t, endedChange("b1")), slog.Default()) {
		t.Fatalf("replay must commit")
	}
	if len(comp.recs) != 0 {
		t.Fatalf("replay published a completion record")
	}
}
