package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// TenantHandler exposes per-tenant payment configuration. Mutations live on
// the internal route group.
type TenantHandler struct {
	tenants *services.TenantModeService
}

func NewTenantHandler(tenants *services.TenantModeService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// GetConfig handles GET /api/v1/tenant/config
func (h *TenantHandler) GetConfig(c *gin.Context) {
	config, err := h.tenants.GetConfig(c.Request.Context(), middleware.GetTenantID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// SetMode handles PUT /internal/v1/tenants/:tenantId/mode
func (h *TenantHandler) SetMode(c *gin.Context) {
	var req models.SetPaymentModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	config, err := h.tenants.SetMode(c.Request.Context(), c.Param("tenantId"), req.Mode, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// SetPayoutLimit handles PUT /internal/v1/tenants/:tenantId/payout-limit
func (h *TenantHandler) SetPayoutLimit(c *gin.Context) {
	var req models.SetPayoutLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	config, err := h.tenants.SetDailyPayoutLimit(c.Request.Context(), c.Param("tenantId"), req.DailyLimit, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}
