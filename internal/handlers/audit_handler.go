package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// AuditHandler is the read-only export surface for the audit trail.
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Query handles GET /internal/v1/audit
func (h *AuditHandler) Query(c *gin.Context) {
	filter := models.AuditFilter{
		ActorType:  models.ActorType(c.Query("actorType")),
		ActorID:    c.Query("actorId"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
	}
	filter.Limit, filter.Offset = pagination(c)

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeBindError(c, err)
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeBindError(c, err)
			return
		}
		filter.To = t
	}

	records, total, err := h.audit.Query(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
	})
}
