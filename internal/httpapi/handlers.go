package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"advisor-platform/internal/advisor"
	"advisor-platform/internal/audit"
	"advisor-platform/internal/auth"
	"advisor-platform/internal/reporting"
	"advisor-platform/internal/wallet"
	"advisor-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth     *auth.Manager
	Wallet   *wallet.Service
	Advisors *advisor.Service
	Reports  *reporting.Service
	Audit    *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Wallet ---

func (h Handlers) GetWalletBalance(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	w, err := h.Wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h Handlers) TopUpWallet(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req wallet.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	entry, w, err := h.Wallet.TopUp(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "amount_minor and idempotency_key required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "topup failed"})
		return
	}
	if h.Audit != nil {
		if aerr := h.Audit.LogTopUp(c.Request.Context(), userID, entry.AmountMinor, entry.IdempotencyKey); aerr != nil {
			logger.From(c.Request.Context()).Warn("topup audit failed", "user_id", userID, "err", aerr)
		}
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "wallet": w})
}

func (h Handlers) ListWalletLedger(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	entries, err := h.Wallet.ListLedger(c.Request.Context(), userID, from, to, limit)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ledger lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// --- Advisor presence and sessions ---

type presenceRequest struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StartPresence brings the calling advisor online.
func (h Handlers) StartPresence(c *gin.Context) {
	advisorID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := h.Advisors.StartSession(c.Request.Context(), advisorID, advisor.Status(req.Status), req.Message)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "presence update failed"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// EndPresence takes the calling advisor offline.
func (h Handlers) EndPresence(c *gin.Context) {
	advisorID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	st, err := h.Advisors.EndSession(c.Request.Context(), advisorID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "presence update failed"})
		return
	}
	c.JSON(http.StatusOK, st)
}

type startCallRequest struct {
	BookingID string `json:"booking_id"`
}

// StartCall occupies one of the advisor's session slots for a new booking.
func (h Handlers) StartCall(c *gin.Context) {
	advisorID := c.Param("advisor_id")
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := h.Advisors.StartCallSession(c.Request.Context(), advisorID, req.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, advisor.ErrNotAcceptingCalls):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "advisor not accepting calls"})
		case errors.Is(err, advisor.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "advisor_id and booking_id required"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call start failed"})
		}
		return
	}
	c.JSON(http.StatusOK, st)
}

// EndCall frees one of the advisor's session slots. Settlement runs off the
// session status-change event, not this endpoint.
func (h Handlers) EndCall(c *gin.Context) {
	advisorID := c.Param("advisor_id")
	st, err := h.Advisors.EndCallSession(c.Request.Context(), advisorID)
	if err != nil {
		if errors.Is(err, advisor.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "advisor_id required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call end failed"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetAvailability reports whether an advisor can take a new booking.
func (h Handlers) GetAvailability(c *gin.Context) {
	advisorID := c.Param("advisor_id")
	accept, st, err := h.Advisors.CanAcceptNewCalls(c.Request.Context(), advisorID)
	if err != nil {
		if errors.Is(err, advisor.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "advisor_id required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "availability lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accept_new_bookings":     accept,
		"status":                  st.Status,
		"current_active_sessions": st.CurrentActiveSessions,
		"max_parallel_sessions":   st.MaxParallelSessions,
	})
}

// GetEarnings returns the calling advisor's earnings accumulators.
func (h Handlers) GetEarnings(c *gin.Context) {
	advisorID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	e, err := h.Advisors.Earnings(c.Request.Context(), advisorID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "earnings lookup failed"})
		return
	}
	c.JSON(http.StatusOK, e)
}

// --- Reporting ---

func (h Handlers) SessionsReport(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.SessionsSummary(c.Request.Context(), reporting.SessionsSummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
		Kind:  c.Query("kind"),
	})
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) SpendReport(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		userID, _ = auth.UserID(c.Request.Context())
	}
	out, err := h.Reports.SpendSummary(c.Request.Context(), reporting.SpendSummaryRequest{
		UserID: userID,
		Range:  reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) EarningsReport(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	advisorID := c.Query("advisor_id")
	if advisorID == "" {
		advisorID, _ = auth.UserID(c.Request.Context())
	}
	out, err := h.Reports.EarningsSummary(c.Request.Context(), reporting.EarningsSummaryRequest{
		AdvisorID: advisorID,
		Range:     reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func reportError(c *gin.Context, err error) {
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report request"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
}

// parseRange reads from/to query params as RFC 3339 timestamps. On failure
// it writes the 400 response and returns ok=false.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil || !to.After(from) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC3339 with to > from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
