package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// PaymentHandler exposes payment attempt endpoints. Completion normally
// arrives via webhooks; the direct complete/fail endpoints serve operator
// tooling and providers without callbacks.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// Get handles GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	payment, err := h.payments.Get(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), paymentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Complete handles POST /api/v1/payments/:id/complete
func (h *PaymentHandler) Complete(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	var req models.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	// The scoped lookup hides other tenants' payments before settlement runs.
	if _, err := h.payments.Get(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), paymentID); err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.Complete(c.Request.Context(), paymentID, req.RawPayload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Fail handles POST /api/v1/payments/:id/fail
func (h *PaymentHandler) Fail(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if _, err := h.payments.Get(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), paymentID); err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.Fail(c.Request.Context(), paymentID, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
