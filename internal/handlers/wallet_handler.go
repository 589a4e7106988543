package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/services"
)

// WalletHandler exposes balance, ledger, and reconciliation endpoints.
// Tenants see their own wallet; the reconcile and unfreeze endpoints live on
// the internal route group.
type WalletHandler struct {
	wallets   *services.WalletService
	reconcile *services.ReconciliationService
	pivot     string
}

func NewWalletHandler(wallets *services.WalletService, reconcile *services.ReconciliationService, pivotCurrency string) *WalletHandler {
	return &WalletHandler{wallets: wallets, reconcile: reconcile, pivot: pivotCurrency}
}

// Get handles GET /api/v1/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.wallets.GetOrCreate(c.Request.Context(), models.ScopeTenant, middleware.GetTenantID(c.Request.Context()), h.pivot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":    wallet,
		"available": wallet.Available(),
	})
}

// Ledger handles GET /api/v1/wallet/ledger
func (h *WalletHandler) Ledger(c *gin.Context) {
	limit, offset := pagination(c)
	entries, err := h.wallets.Ledger(c.Request.Context(), models.ScopeTenant, middleware.GetTenantID(c.Request.Context()), h.pivot, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// walletKeyFromQuery reads the wallet key for operator endpoints; defaults to
// tenant scope in the pivot currency.
func (h *WalletHandler) walletKeyFromQuery(c *gin.Context) (models.Scope, string, string) {
	scope := models.Scope(c.DefaultQuery("scope", string(models.ScopeTenant)))
	scopeID := c.Query("scopeId")
	currency := c.DefaultQuery("currency", h.pivot)
	return scope, scopeID, currency
}

// Check handles POST /internal/v1/wallets/reconcile for a single wallet.
func (h *WalletHandler) Check(c *gin.Context) {
	scope, scopeID, currency := h.walletKeyFromQuery(c)
	if scopeID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Message: "scopeId is required"})
		return
	}

	report, err := h.reconcile.CheckWallet(c.Request.Context(), scope, scopeID, currency)
	if err != nil && report == nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if report.Drift {
		status = http.StatusConflict
	}
	c.JSON(status, report)
}

// Run handles POST /internal/v1/reconcile, a full sweep.
func (h *WalletHandler) Run(c *gin.Context) {
	report, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Unfreeze handles POST /internal/v1/wallets/unfreeze
func (h *WalletHandler) Unfreeze(c *gin.Context) {
	scope, scopeID, currency := h.walletKeyFromQuery(c)
	if scopeID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Message: "scopeId is required"})
		return
	}

	wallet, err := h.reconcile.Unfreeze(c.Request.Context(), scope, scopeID, currency, middleware.GetUserID(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
