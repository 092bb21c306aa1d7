package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"advisor-platform/internal/session"

	"github.com/gin-gonic/gin"
)

type fakeSink struct {
	got []session.StatusChange
	err error
}

func (f *fakeSink) PublishStatusChange(ctx context.Context, ch session.StatusChange) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, ch)
	return nil
}

func webhookRouter(sink StatusSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWebhookHandler(sink)
	r.POST("/webhooks/sessions/:kind/status", h.SessionStatus)
	return r
}

func postStatus(t *testing.T, r *gin.Engine, kind string, payload statusChangePayload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/sessions/"+kind+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionStatusWebhook_Enqueues(t *testing.T) {
	sink := &fakeSink{}
	r := webhookRouter(sink)

	w := postStatus(t, r, "video", statusChangePayload{
		Before: session.Session{ID: "s1", BookingID: "b1", Status: session.StatusOngoing},
		After:  session.Session{ID: "s1", BookingID: "b1", Status: session.StatusEnded, DurationSeconds: 90},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if len(sink.got) != 1 {
		t.Fatalf("published %d events, want 1", len(sink.got))
	}
	ch := sink.got[0]
	if ch.Kind != session.KindVideo || ch.After.Kind != session.KindVideo {
		t.Fatalf("kind not stamped: %+v", ch)
	}
	if ch.After.Status != session.StatusEnded || ch.Before.Status != session.StatusOngoing {
		t.Fatalf("transition lost: %+v", ch)
	}
}

func TestSessionStatusWebhook_RejectsUnknownKind(t *testing.T) {
	sink := &fakeSink{}
	r := webhookRouter(sink)

	w := postStatus(t, r, "carrier-pigeon", statusChangePayload{
		After: session.Session{ID: "s1", BookingID: "b1", Status: session.StatusEnded},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(sink.got) != 0 {
		t.Fatalf("published despite bad kind")
	}
}

func TestSessionStatusWebhook_RejectsIncompletePayload(t *testing.T) {
	sink := &fakeSink{}
	r := webhookRouter(sink)

	w := postStatus(t, r, "chat", statusChangePayload{
		After: session.Session{ID: "s1", Status: session.StatusEnded},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSessionStatusWebhook_SinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("kafka down")}
	r := webhookRouter(sink)

	w := postStatus(t, r, "audio", statusChangePayload{
		Before: session.Session{ID: "s1", BookingID: "b1", Status: session.StatusOngoing},
		After:  session.Session{ID: "s1", BookingID: "b1", Status: session.StatusEnded},
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
