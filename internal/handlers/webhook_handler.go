package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// WebhookHandler receives provider callbacks. The provider comes from the
// URL, the signature from the provider's own header, and the tenant hint from
// an optional query parameter for DELEGUE-mode endpoints.
type WebhookHandler struct {
	webhooks *services.WebhookService
}

func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive handles POST /webhooks/:provider
func (h *WebhookHandler) Receive(c *gin.Context) {
	providerType := models.ProviderType(strings.ToUpper(c.Param("provider")))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Message: "unreadable body"})
		return
	}

	signature := signatureHeader(c, providerType)
	tenantHint := c.Query("tenant")

	if err := h.webhooks.Receive(c.Request.Context(), providerType, tenantHint, body, signature); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// signatureHeader picks the provider's signature header.
func signatureHeader(c *gin.Context, providerType models.ProviderType) string {
	switch providerType {
	case models.ProviderStripe:
		return c.GetHeader("Stripe-Signature")
	case models.ProviderRazorpay:
		return c.GetHeader("X-Razorpay-Signature")
	case models.ProviderPayDunya:
		return c.GetHeader("X-PayDunya-Signature")
	default:
		return c.GetHeader("X-Signature")
	}
}
