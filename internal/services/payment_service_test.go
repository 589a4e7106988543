package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestPaymentCreateIdempotentOnProviderRef(t *testing.T) {
	env := newTestEnv(t)
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 1000)

	first := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")
	second := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")

	assert.Equal(t, first.ID, second.ID)
}

func TestPaymentCreateRequiresCredential(t *testing.T) {
	env := newTestEnv(t)
	order := env.makeOrder(t, "t1", 1000)

	_, err := env.payments.Create(context.Background(), "t1", &models.CreatePaymentRequest{
		OrderID:     order.ID,
		Provider:    models.ProviderStripe,
		ProviderRef: "pi_1",
	})
	assert.ErrorIs(t, err, models.ErrCredentialsNotConfigured)
}

func TestPaymentCompleteCreditsWalletOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 1000)
	payment := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")

	done, err := env.payments.Complete(ctx, payment.ID, map[string]interface{}{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)

	refreshed, err := env.orders.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, refreshed.Status)

	// Replay of the same completion must not credit again.
	_, err = env.payments.Complete(ctx, payment.ID, nil)
	require.NoError(t, err)

	w, err = env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)

	entries, err := env.store.ListLedgerEntriesByPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.LedgerCredit, entries[0].Type)
}

func TestPaymentCompleteAfterOrderTerminalNoCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 1000)
	p1 := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")
	p2 := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-2")

	_, err := env.payments.Complete(ctx, p1.ID, nil)
	require.NoError(t, err)

	// A second attempt completing against a paid order records the payment
	// without moving money.
	done, err := env.payments.Complete(ctx, p2.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)
}

func TestPaymentFailedAttemptCanStillComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 800)
	payment := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")

	failed, err := env.payments.Fail(ctx, payment.ID, "timeout")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.Status)

	refreshed, err := env.orders.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, refreshed.Status)

	// The provider's capture confirmation outranks the earlier failure, but
	// the order is terminal so no credit happens.
	done, err := env.payments.Complete(ctx, payment.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)

	_, err = env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPaymentFailDoesNotRegressCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 500)
	payment := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")

	_, err := env.payments.Complete(ctx, payment.ID, nil)
	require.NoError(t, err)

	after, err := env.payments.Fail(ctx, payment.ID, "late failure signal")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, after.Status)
}

func TestPaymentHiddenFromOtherTenants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedOwnerCredential(t, models.ProviderPayDunya, "whsec")
	order := env.makeOrder(t, "t1", 1000)
	payment := env.makePayment(t, "t1", order, models.ProviderPayDunya, "inv-1")

	_, err := env.payments.Get(ctx, "t2", payment.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.payments.ListByOrder(ctx, "t2", order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	mine, err := env.payments.Get(ctx, "t1", payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, mine.ID)

	attempts, err := env.payments.ListByOrder(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}
