package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"wallet-service/internal/models"
)

// PayDunyaAdapter handles PayDunya, the mobile-money/card aggregator used
// for XOF collections. PayDunya signs callbacks with an HMAC-SHA256 of the
// raw body keyed by the account's webhook secret, hex encoded.
type PayDunyaAdapter struct{}

func NewPayDunyaAdapter() *PayDunyaAdapter {
	return &PayDunyaAdapter{}
}

func (a *PayDunyaAdapter) Type() models.ProviderType {
	return models.ProviderPayDunya
}

func (a *PayDunyaAdapter) VerifySignature(creds Credentials, body []byte, signature string) error {
	if creds.WebhookSecret == "" {
		return models.ErrCredentialsNotConfigured
	}
	mac := hmac.New(sha256.New, []byte(creds.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return models.ErrSignatureInvalid
	}
	return nil
}

type paydunyaWebhook struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Invoice   struct {
		Token       string `json:"token"`
		TotalAmount int64  `json:"total_amount"`
		Currency    string `json:"currency"`
		Channel     string `json:"channel"`
	} `json:"invoice"`
}

func (a *PayDunyaAdapter) ParseEvent(body []byte) (*Event, error) {
	var wh paydunyaWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("failed to parse paydunya event: %w", err)
	}

	out := &Event{
		ID:          wh.EventID,
		Kind:        EventUnknown,
		ProviderRef: wh.Invoice.Token,
		Channel:     wh.Invoice.Channel,
		Amount:      wh.Invoice.TotalAmount,
		Currency:    strings.ToUpper(wh.Invoice.Currency),
		Raw:         body,
	}

	switch wh.EventType {
	case "invoice.completed":
		out.Kind = EventPaymentCaptured
	case "invoice.failed", "invoice.cancelled":
		out.Kind = EventPaymentFailed
	}

	return out, nil
}
