package models

import "github.com/google/uuid"

// OrderLine is one priced line item on an order, in the order's native
// currency minor units.
type OrderLine struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
}

// CreateOrderRequest creates a settlement intent.
type CreateOrderRequest struct {
	CustomerID *uuid.UUID  `json:"customerId,omitempty"`
	Currency   string      `json:"currency" binding:"required,len=3"`
	Lines      []OrderLine `json:"lines" binding:"required,min=1,dive"`
}

// CreatePaymentRequest opens a payment attempt against an order.
type CreatePaymentRequest struct {
	OrderID     uuid.UUID    `json:"orderId" binding:"required"`
	Provider    ProviderType `json:"provider" binding:"required"`
	Channel     string       `json:"channel"`
	ProviderRef string       `json:"providerRef" binding:"required"`
}

// CompletePaymentRequest carries the raw provider payload of a direct
// capture.
type CompletePaymentRequest struct {
	RawPayload map[string]interface{} `json:"rawPayload"`
}

// CreatePayoutRequest asks to move tenant funds to an external channel.
type CreatePayoutRequest struct {
	Amount         int64                  `json:"amount" binding:"required,gt=0"`
	Channel        PayoutChannel          `json:"channel" binding:"required"`
	ChannelDetails map[string]interface{} `json:"channelDetails"`
}

// ReviewPayoutRequest resolves a pending payout.
type ReviewPayoutRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// MarkPayoutPaidRequest confirms an approved payout was disbursed.
type MarkPayoutPaidRequest struct {
	EvidenceRef string `json:"evidenceRef" binding:"required"`
}

// SetPaymentModeRequest switches a tenant between OWNER and DELEGUE.
type SetPaymentModeRequest struct {
	Mode PaymentMode `json:"mode" binding:"required,oneof=OWNER DELEGUE"`
}

// SetPayoutLimitRequest updates a tenant's daily payout cap.
type SetPayoutLimitRequest struct {
	DailyLimit int64 `json:"dailyLimit" binding:"gte=0"`
}

// AddCredentialRequest links a provider account at owner or tenant scope.
type AddCredentialRequest struct {
	Scope         Scope                  `json:"scope" binding:"required,oneof=OWNER TENANT"`
	ScopeID       string                 `json:"scopeId"`
	Provider      ProviderType           `json:"provider" binding:"required"`
	Payload       map[string]interface{} `json:"payload" binding:"required"`
	WebhookSecret string                 `json:"webhookSecret"`
}

// SetCredentialActiveRequest enables or disables a credential.
type SetCredentialActiveRequest struct {
	Active bool `json:"active"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
