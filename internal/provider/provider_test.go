package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestFactoryRegistersBuiltins(t *testing.T) {
	f := NewFactory()

	for _, pt := range []models.ProviderType{models.ProviderStripe, models.ProviderRazorpay, models.ProviderPayDunya} {
		a, err := f.Get(pt)
		require.NoError(t, err)
		assert.Equal(t, pt, a.Type())
	}

	_, err := f.Get(models.ProviderType("UNKNOWN"))
	assert.Error(t, err)
}

func TestFactoryRegisterIsAdditive(t *testing.T) {
	f := NewFactory()
	before := len(f.Types())

	f.Register(&PayDunyaAdapter{})
	assert.Len(t, f.Types(), before)
}

func hmacHex(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPayDunyaSignature(t *testing.T) {
	a := NewPayDunyaAdapter()
	body := []byte(`{"event_id":"evt-1"}`)
	creds := Credentials{WebhookSecret: "secret"}

	assert.NoError(t, a.VerifySignature(creds, body, hmacHex(body, "secret")))
	assert.ErrorIs(t, a.VerifySignature(creds, body, hmacHex(body, "other")), models.ErrSignatureInvalid)
	assert.ErrorIs(t, a.VerifySignature(Credentials{}, body, hmacHex(body, "secret")), models.ErrCredentialsNotConfigured)
}

func TestPayDunyaParseEvent(t *testing.T) {
	a := NewPayDunyaAdapter()
	body := []byte(`{"event_id":"evt-7","event_type":"invoice.completed","invoice":{"token":"inv-7","total_amount":2500,"currency":"xof","channel":"wave"}}`)

	ev, err := a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt-7", ev.ID)
	assert.Equal(t, EventPaymentCaptured, ev.Kind)
	assert.Equal(t, "inv-7", ev.ProviderRef)
	assert.Equal(t, int64(2500), ev.Amount)
	assert.Equal(t, "XOF", ev.Currency)
	assert.Equal(t, "wave", ev.Channel)

	body = []byte(`{"event_id":"evt-8","event_type":"invoice.cancelled","invoice":{"token":"inv-8"}}`)
	ev, err = a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, ev.Kind)

	body = []byte(`{"event_id":"evt-9","event_type":"invoice.created","invoice":{"token":"inv-9"}}`)
	ev, err = a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Kind)
}

func TestStripeParseEvent(t *testing.T) {
	a := NewStripeAdapter()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":4200,"currency":"eur"}}}`)

	ev, err := a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventPaymentCaptured, ev.Kind)
	assert.Equal(t, "pi_1", ev.ProviderRef)
	assert.Equal(t, int64(4200), ev.Amount)
	assert.Equal(t, "EUR", ev.Currency)

	body = []byte(`{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2"}}}`)
	ev, err = a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, ev.Kind)
}

func TestRazorpayParseEvent(t *testing.T) {
	a := NewRazorpayAdapter()
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","amount":9900,"currency":"INR","method":"upi"}}}}`)

	ev, err := a.ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, ev.Kind)
	assert.Equal(t, "pay_1", ev.ProviderRef)
	assert.NotEmpty(t, ev.ID)
}
