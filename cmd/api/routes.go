package main

import (
	"database/sql"
	"net/http"
	"time"

	"advisor-platform/internal/events"
	"advisor-platform/internal/httpapi"
	"advisor-platform/internal/rbac"
	"advisor-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, webhooks *events.WebhookHandler, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Session transport webhooks (public).
	// NOTE: protect with provider signature validation in production.
	r.POST("/webhooks/sessions/:kind/status", webhooks.SessionStatus)

	// Token issuance.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	v1.Use(rbac.RequireIdentity())
	{
		// WALLET routes (the caller's own wallet)
		wallets := v1.Group("/wallet")
		{
			wallets.GET("/balance", h.GetWalletBalance)
			wallets.POST("/topup", h.TopUpWallet)
			wallets.GET("/ledger", h.ListWalletLedger)
		}

		// ADVISOR routes
		advisors := v1.Group("/advisors")
		{
			// Presence and earnings apply to the calling advisor.
			me := advisors.Group("/me")
			me.Use(rbac.RequireAnyRole(rbac.RoleAdvisor))
			{
				me.POST("/presence", h.StartPresence)
				me.DELETE("/presence", h.EndPresence)
				me.GET("/earnings", h.GetEarnings)
			}

			advisors.GET("/:advisor_id/availability", h.GetAvailability)

			// Call slots are driven by the booking flow.
			calls := advisors.Group("/:advisor_id/calls")
			calls.Use(rbac.RequireAnyRole(rbac.RoleUser, rbac.RoleAdvisor))
			{
				calls.POST("/start", h.StartCall)
				calls.POST("/end", h.EndCall)
			}
		}

		// REPORTING routes
		reports := v1.Group("/reports")
		{
			reports.GET("/sessions", rbac.RequireAnyRole(rbac.RoleSupport), h.SessionsReport)
			reports.GET("/spend", h.SpendReport)
			reports.GET("/earnings", rbac.RequireAnyRole(rbac.RoleAdvisor, rbac.RoleSupport), h.EarningsReport)
		}
	}
}
