package events

import (
	"context"
	"net/http"

	"advisor-platform/internal/session"
	"advisor-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusSink receives validated status-change events from the webhook.
// Satisfied by *Publisher; tests substitute a fake.
type StatusSink interface {
	PublishStatusChange(ctx context.Context, ch session.StatusChange) error
}

// WebhookHandler is the provider-facing delivery adapter: the session
// transport calls it on every session status transition. It validates and
// forwards; no business logic is made here.
type WebhookHandler struct {
	sink StatusSink
}

func NewWebhookHandler(sink StatusSink) *WebhookHandler {
	return &WebhookHandler{sink: sink}
}

type statusChangePayload struct {
	Before session.Session `json:"before"`
	After  session.Session `json:"after"`
}

// SessionStatus handles POST /webhooks/sessions/:kind/status.
// The payload carries the before and after session documents so the
// transition itself, not just the current state, reaches the trigger.
func (h *WebhookHandler) SessionStatus(c *gin.Context) {
	kind := session.Kind(c.Param("kind"))
	if !session.ValidKind(kind) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown session kind"})
		return
	}

	var body statusChangePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.After.ID == "" || body.After.BookingID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "session id and booking_id required"})
		return
	}
	if body.After.Status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "after.status required"})
		return
	}

	ch := session.StatusChange{
		Kind:   kind,
		Before: body.Before,
		After:  body.After,
	}
	ch.Before.Kind = kind
	ch.After.Kind = kind

	if err := h.sink.PublishStatusChange(c.Request.Context(), ch); err != nil {
		logger.From(c.Request.Context()).Error("status-change enqueue failed",
			"session_id", ch.After.ID, "booking_id", ch.After.BookingID, "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event delivery unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
