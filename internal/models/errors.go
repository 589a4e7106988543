package models

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses; services wrap
// them with context via fmt.Errorf("...: %w", err).
var (
	// ErrInsufficientFunds: a debit or lock exceeds balance - locked.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverUnlock: an unlock exceeds the currently locked amount.
	ErrOverUnlock = errors.New("unlock exceeds locked amount")

	// ErrModeChangeForbidden: the platform tenant is permanently OWNER.
	ErrModeChangeForbidden = errors.New("payment mode change forbidden")

	// ErrCurrencyUnsupported: no FX rate available for the currency pair.
	ErrCurrencyUnsupported = errors.New("currency unsupported")

	// ErrInvalidOrderTransition: orders only move PENDING -> terminal.
	ErrInvalidOrderTransition = errors.New("invalid order transition")

	// ErrOrderAlreadyTerminal: raised internally on duplicate completion
	// paths; callers treat it as success, not failure.
	ErrOrderAlreadyTerminal = errors.New("order already terminal")

	// ErrInvalidPayoutTransition: payout state machine violation.
	ErrInvalidPayoutTransition = errors.New("invalid payout transition")

	// ErrDailyLimitExceeded: payout request over the tenant's daily cap.
	ErrDailyLimitExceeded = errors.New("daily payout limit exceeded")

	// ErrSignatureInvalid: webhook authenticity check failed.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrLedgerDrift: replay disagrees with the cached balance. Never
	// auto-corrected; the wallet is frozen until an operator reconciles.
	ErrLedgerDrift = errors.New("ledger drift detected")

	// ErrCredentialsNotConfigured: no active provider credential resolves
	// for the requested tenant/provider pair.
	ErrCredentialsNotConfigured = errors.New("provider credentials not configured")

	// ErrWalletFrozen: mutation attempted on a drift-frozen wallet.
	ErrWalletFrozen = errors.New("wallet frozen pending reconciliation")

	// ErrNotFound: entity lookup miss, normalized across repositories.
	ErrNotFound = errors.New("not found")
)
