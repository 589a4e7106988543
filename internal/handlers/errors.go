package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-service/internal/models"
)

// writeError maps domain sentinels onto HTTP statuses with the uniform error
// envelope. Unknown errors become an opaque 500; the detail goes to the logs,
// not the client.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "Internal error"

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrCurrencyUnsupported):
		status, code = http.StatusBadRequest, "Unsupported currency"
	case errors.Is(err, models.ErrSignatureInvalid):
		status, code = http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, models.ErrModeChangeForbidden):
		status, code = http.StatusForbidden, "Mode change forbidden"
	case errors.Is(err, models.ErrInvalidOrderTransition),
		errors.Is(err, models.ErrOrderAlreadyTerminal),
		errors.Is(err, models.ErrInvalidPayoutTransition):
		status, code = http.StatusConflict, "Invalid state transition"
	case errors.Is(err, models.ErrInsufficientFunds):
		status, code = http.StatusUnprocessableEntity, "Insufficient funds"
	case errors.Is(err, models.ErrOverUnlock):
		status, code = http.StatusUnprocessableEntity, "Unlock exceeds locked amount"
	case errors.Is(err, models.ErrDailyLimitExceeded):
		status, code = http.StatusUnprocessableEntity, "Daily payout limit exceeded"
	case errors.Is(err, models.ErrCredentialsNotConfigured):
		status, code = http.StatusUnprocessableEntity, "Provider credentials not configured"
	case errors.Is(err, models.ErrWalletFrozen):
		status, code = http.StatusLocked, "Wallet frozen"
	case errors.Is(err, models.ErrLedgerDrift):
		status, code = http.StatusServiceUnavailable, "Ledger drift detected"
	}

	resp := models.ErrorResponse{Error: code}
	if status < http.StatusInternalServerError {
		resp.Message = err.Error()
	}
	c.JSON(status, resp)
}

// writeBindError reports a malformed request body.
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Message: err.Error(),
	})
}
