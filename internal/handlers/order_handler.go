package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// OrderHandler exposes order creation and lifecycle endpoints.
type OrderHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := h.orders.ListByTenant(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Cancel handles POST /api/v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), orderID, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Payments handles GET /api/v1/orders/:id/payments
func (h *OrderHandler) Payments(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	payments, err := h.payments.ListByOrder(c.Request.Context(), middleware.GetTenantID(c.Request.Context()), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
