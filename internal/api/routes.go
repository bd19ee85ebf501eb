// Package api is the thin HTTP façade over the detective orchestrator: two
// request shapes (single-agent, comprehensive), bearer-token auth and
// per-IP rate limiting, and nothing else — no CORS, static assets,
// websocket hub or persistence, per the façade's deliberately minimal scope.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghosthunter/detective/internal/detective"
)

type investigateRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	AgentID       string `json:"agent_id" binding:"required"`
}

type comprehensiveRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// Handler adapts the detective orchestrator to the two façade endpoints.
type Handler struct {
	orchestrator *detective.Orchestrator
}

// NewHandler builds a façade Handler over an already-constructed orchestrator.
func NewHandler(orchestrator *detective.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// SetupRouter wires the public health check plus the two authenticated,
// rate-limited investigation endpoints described in §6.
func SetupRouter(h *Handler, authToken string, rateLimitPerMin, rateLimitBurst int) *gin.Engine {
	r := gin.Default()

	r.GET("/api/v1/health", h.handleHealth)

	limiter := NewRateLimiter(rateLimitPerMin, rateLimitBurst)

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware(authToken))
	{
		protected.POST("/investigate", limiter.Middleware(), h.handleInvestigateSingle)
		protected.POST("/investigate/comprehensive", limiter.MiddlewareWithCost(len(detective.Personas)), h.handleInvestigateComprehensive)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational"})
}

// POST /api/v1/investigate { wallet_address, agent_id }
func (h *Handler) handleInvestigateSingle(c *gin.Context) {
	var req investigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	inv, err := h.orchestrator.Investigate(c.Request.Context(), req.WalletAddress, req.AgentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// POST /api/v1/investigate/comprehensive { wallet_address }
func (h *Handler) handleInvestigateComprehensive(c *gin.Context) {
	var req comprehensiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	inv, err := h.orchestrator.Comprehensive(c.Request.Context(), req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}
