package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"wallet-service/internal/models"
)

// StripeAdapter verifies and parses Stripe webhook deliveries using
// Stripe's own webhook library.
type StripeAdapter struct{}

func NewStripeAdapter() *StripeAdapter {
	return &StripeAdapter{}
}

func (a *StripeAdapter) Type() models.ProviderType {
	return models.ProviderStripe
}

func (a *StripeAdapter) VerifySignature(creds Credentials, body []byte, signature string) error {
	if creds.WebhookSecret == "" {
		return models.ErrCredentialsNotConfigured
	}
	if err := webhook.ValidatePayload(body, signature, creds.WebhookSecret); err != nil {
		return fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
	}
	return nil
}

func (a *StripeAdapter) ParseEvent(body []byte) (*Event, error) {
	var ev stripe.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse stripe event: %w", err)
	}

	out := &Event{
		ID:   ev.ID,
		Kind: EventUnknown,
		Raw:  body,
	}

	switch ev.Type {
	case "payment_intent.succeeded", "charge.captured", "checkout.session.completed":
		out.Kind = EventPaymentCaptured
	case "payment_intent.payment_failed", "charge.failed":
		out.Kind = EventPaymentFailed
	}

	if ev.Data != nil && ev.Data.Object != nil {
		if id, ok := ev.Data.Object["id"].(string); ok {
			out.ProviderRef = id
		}
		if amount, ok := ev.Data.Object["amount"].(float64); ok {
			out.Amount = int64(amount)
		}
		if currency, ok := ev.Data.Object["currency"].(string); ok {
			out.Currency = strings.ToUpper(currency)
		}
	}

	return out, nil
}
