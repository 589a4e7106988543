package provider

import (
	"encoding/json"

	"wallet-service/internal/models"
)

// EventKind is the provider-neutral classification of a webhook callback.
type EventKind string

const (
	EventPaymentCaptured EventKind = "payment.captured"
	EventPaymentFailed   EventKind = "payment.failed"
	EventUnknown         EventKind = "unknown"
)

// Event is the parsed, provider-neutral view of one callback.
type Event struct {
	// ID is the provider's event id, the idempotency key together with the
	// provider type.
	ID   string
	Kind EventKind

	// ProviderRef is the provider-side transaction reference the event is
	// about, used to find the matching Payment.
	ProviderRef string
	Channel     string
	Amount      int64
	Currency    string

	Raw json.RawMessage
}

// Credentials is the secret material resolved from the provider registry
// for one adapter call.
type Credentials struct {
	Payload       map[string]interface{}
	WebhookSecret string
}

// Adapter abstracts one external payment provider. Adding a provider means
// implementing this interface and registering it with the Factory; no
// existing code changes.
type Adapter interface {
	Type() models.ProviderType

	// VerifySignature authenticates a raw webhook body. It must be called
	// before ParseEvent and must not have side effects.
	VerifySignature(creds Credentials, body []byte, signature string) error

	// ParseEvent extracts the provider-neutral event from a verified body.
	ParseEvent(body []byte) (*Event, error)
}
