package provider

import (
	"encoding/json"
	"fmt"

	"github.com/razorpay/razorpay-go/utils"

	"wallet-service/internal/models"
)

// RazorpayAdapter verifies and parses Razorpay webhook deliveries.
type RazorpayAdapter struct{}

func NewRazorpayAdapter() *RazorpayAdapter {
	return &RazorpayAdapter{}
}

func (a *RazorpayAdapter) Type() models.ProviderType {
	return models.ProviderRazorpay
}

func (a *RazorpayAdapter) VerifySignature(creds Credentials, body []byte, signature string) error {
	if creds.WebhookSecret == "" {
		return models.ErrCredentialsNotConfigured
	}
	if !utils.VerifyWebhookSignature(string(body), signature, creds.WebhookSecret) {
		return models.ErrSignatureInvalid
	}
	return nil
}

// razorpayWebhook is the envelope Razorpay posts. Razorpay carries the
// event id in a header rather than the body, so the event name plus the
// payment entity id serves as the dedup key.
type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Method   string `json:"method"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (a *RazorpayAdapter) ParseEvent(body []byte) (*Event, error) {
	var wh razorpayWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("failed to parse razorpay event: %w", err)
	}

	out := &Event{
		ID:          fmt.Sprintf("%s:%s", wh.Event, wh.Payload.Payment.Entity.ID),
		Kind:        EventUnknown,
		ProviderRef: wh.Payload.Payment.Entity.ID,
		Channel:     wh.Payload.Payment.Entity.Method,
		Amount:      wh.Payload.Payment.Entity.Amount,
		Currency:    wh.Payload.Payment.Entity.Currency,
		Raw:         body,
	}

	switch wh.Event {
	case "payment.captured":
		out.Kind = EventPaymentCaptured
	case "payment.failed":
		out.Kind = EventPaymentFailed
	}

	return out, nil
}
