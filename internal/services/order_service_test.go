package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestOrderCreateFreezesFXRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orders.Create(ctx, "t1", &models.CreateOrderRequest{
		Currency: "EUR",
		Lines: []models.OrderLine{
			{Description: "a", Amount: 300},
			{Description: "b", Amount: 200},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(500), order.NativeAmount)
	assert.Equal(t, int64(1000), order.PivotAmount)
	assert.Equal(t, 2.0, order.FXRateSnapshot)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.NotEmpty(t, order.Reference)
}

func TestOrderCreatePivotCurrencyIdentity(t *testing.T) {
	env := newTestEnv(t)
	order := env.makeOrder(t, "t1", 2500)

	assert.Equal(t, int64(2500), order.PivotAmount)
	assert.Equal(t, 1.0, order.FXRateSnapshot)
}

func TestOrderCreateUnsupportedCurrency(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.Create(context.Background(), "t1", &models.CreateOrderRequest{
		Currency: "GBP",
		Lines:    []models.OrderLine{{Description: "a", Amount: 100}},
	})
	assert.ErrorIs(t, err, models.ErrCurrencyUnsupported)
}

func TestOrderCancelIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.makeOrder(t, "t1", 100)

	cancelled, err := env.orders.Cancel(ctx, "t1", order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	_, err = env.orders.Cancel(ctx, "t1", order.ID, "u1")
	assert.ErrorIs(t, err, models.ErrOrderAlreadyTerminal)
}

func TestOrderHiddenFromOtherTenants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.makeOrder(t, "t1", 500)

	_, err := env.orders.Get(ctx, "t2", order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.orders.Cancel(ctx, "t2", order.ID, "u2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The owner still sees a pending order.
	mine, err := env.orders.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, mine.Status)
}

func TestOrderCreateRefusalAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orders.Create(ctx, "t1", &models.CreateOrderRequest{
		Currency: "GBP",
		Lines:    []models.OrderLine{{Description: "a", Amount: 100}},
	})
	require.ErrorIs(t, err, models.ErrCurrencyUnsupported)

	records, _, err := env.audit.Query(ctx, models.AuditFilter{EntityType: "order"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "order.create_refused", records[0].Action)
}

func TestOrderPivotAmountSurvivesRateMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orders.Create(ctx, "t1", &models.CreateOrderRequest{
		Currency: "EUR",
		Lines:    []models.OrderLine{{Description: "a", Amount: 500}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), order.PivotAmount)

	env.rates["EUR:XOF"] = 3.5

	// The stored conversion does not follow the market.
	refreshed, err := env.orders.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), refreshed.PivotAmount)
	assert.Equal(t, 2.0, refreshed.FXRateSnapshot)

	// New orders convert at the new rate.
	next, err := env.orders.Create(ctx, "t1", &models.CreateOrderRequest{
		Currency: "EUR",
		Lines:    []models.OrderLine{{Description: "b", Amount: 500}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1750), next.PivotAmount)
	assert.Equal(t, 3.5, next.FXRateSnapshot)
}
