package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// CredentialHandler manages provider credentials. All endpoints live on the
// internal route group; webhook secrets never appear in responses.
type CredentialHandler struct {
	credentials *services.CredentialService
}

func NewCredentialHandler(credentials *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

// Add handles POST /internal/v1/credentials
func (h *CredentialHandler) Add(c *gin.Context) {
	var req models.AddCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	scopeID := req.ScopeID
	if req.Scope == models.ScopeOwner {
		scopeID = models.OwnerScopeID
	}
	if scopeID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Message: "scopeId is required for tenant scope"})
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		writeBindError(c, err)
		return
	}

	cred, err := h.credentials.Add(c.Request.Context(), req.Scope, scopeID, req.Provider, payload, req.WebhookSecret, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cred)
}

// SetActive handles PUT /internal/v1/credentials/:id
func (h *CredentialHandler) SetActive(c *gin.Context) {
	credentialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBindError(c, err)
		return
	}

	var req models.SetCredentialActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	cred, err := h.credentials.SetActive(c.Request.Context(), credentialID, req.Active, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

// List handles GET /internal/v1/credentials
func (h *CredentialHandler) List(c *gin.Context) {
	scope := models.Scope(c.DefaultQuery("scope", string(models.ScopeOwner)))
	scopeID := c.DefaultQuery("scopeId", models.OwnerScopeID)

	creds, err := h.credentials.List(c.Request.Context(), scope, scopeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credentials": creds})
}
