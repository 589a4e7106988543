package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// PayoutHandler exposes the payout request/review/disbursement endpoints.
// Review and mark-paid are operator actions on the internal route group.
type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Request handles POST /api/v1/payouts
func (h *PayoutHandler) Request(c *gin.Context) {
	var req models.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.payouts.Request(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), middleware.GetUserID(c.Request.Context()), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}

// Get handles GET /api/v1/payouts/:id
func (h *PayoutHandler) Get(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.payouts.Get(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), payoutID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

// List handles GET /api/v1/payouts
func (h *PayoutHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	payouts, err := h.payouts.ListByTenant(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// Review handles POST /api/v1/payouts/:id/review
func (h *PayoutHandler) Review(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	var req models.ReviewPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.payouts.Review(c.Request.Context(), payoutID, middleware.GetUserID(c.Request.Context()), req.Approve, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

// MarkPaid handles POST /api/v1/payouts/:id/paid
func (h *PayoutHandler) MarkPaid(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	var req models.MarkPayoutPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.payouts.MarkPaid(c.Request.Context(), payoutID, middleware.GetUserID(c.Request.Context()), req.EvidenceRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}
