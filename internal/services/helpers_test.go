package services

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
	"wallet-service/internal/provider"
	"wallet-service/internal/repository"
)

const testPivot = "XOF"

// testEnv wires every service over the in-memory store with a static FX
// table (EUR -> XOF at 2.0 keeps the arithmetic readable).
type testEnv struct {
	store       *repository.MemoryStore
	rates       map[string]float64
	audit       *AuditService
	wallets     *WalletService
	fx          *FXService
	tenants     *TenantModeService
	credentials *CredentialService
	orders      *OrderService
	payments    *PaymentService
	payouts     *PayoutService
	webhooks    *WebhookService
	recon       *ReconciliationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	rateTable := map[string]float64{"EUR:XOF": 2.0}
	rates := NewStaticRateProvider(rateTable)

	env := &testEnv{store: store, rates: rateTable}
	env.audit = NewAuditService(store, logger)
	env.wallets = NewWalletService(store, logger)
	env.fx = NewFXService(rates, testPivot, nil, logger)
	env.tenants = NewTenantModeService(store, env.audit, logger)
	env.credentials = NewCredentialService(store, env.tenants, env.audit, logger)
	env.orders = NewOrderService(store, env.fx, env.audit, logger)
	env.payments = NewPaymentService(store, env.wallets, env.credentials, env.audit, nil, testPivot, logger)
	env.payouts = NewPayoutService(store, env.wallets, env.tenants, env.audit, nil, testPivot, logger)
	env.webhooks = NewWebhookService(store, provider.NewFactory(), env.credentials, env.payments, env.audit, logger)
	env.recon = NewReconciliationService(store, env.audit, nil, logger)
	return env
}

// seedOwnerCredential installs a platform-scope credential so OWNER mode
// tenants can open payments against the given provider.
func (e *testEnv) seedOwnerCredential(t *testing.T, providerType models.ProviderType, webhookSecret string) *models.ProviderCredential {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{"api_key": "test-key"})
	require.NoError(t, err)
	cred, err := e.credentials.Add(context.Background(), models.ScopeOwner, models.OwnerScopeID, providerType, payload, webhookSecret, "admin-1")
	require.NoError(t, err)
	return cred
}

// credit funds a tenant wallet directly through the wallet service.
func (e *testEnv) credit(t *testing.T, tenantID string, amount int64) {
	t.Helper()
	_, err := e.wallets.Credit(context.Background(), models.ScopeTenant, tenantID, testPivot, amount, models.EntryRef{})
	require.NoError(t, err)
}

// makeOrder creates a pivot-currency order with one line.
func (e *testEnv) makeOrder(t *testing.T, tenantID string, amount int64) *models.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), tenantID, &models.CreateOrderRequest{
		Currency: testPivot,
		Lines:    []models.OrderLine{{Description: "item", Amount: amount}},
	})
	require.NoError(t, err)
	return order
}

// makePayment opens a payment attempt against an order.
func (e *testEnv) makePayment(t *testing.T, tenantID string, order *models.Order, providerType models.ProviderType, providerRef string) *models.Payment {
	t.Helper()
	payment, err := e.payments.Create(context.Background(), tenantID, &models.CreatePaymentRequest{
		OrderID:     order.ID,
		Provider:    providerType,
		ProviderRef: providerRef,
	})
	require.NoError(t, err)
	return payment
}
