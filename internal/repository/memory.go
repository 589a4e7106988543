package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallet-service/internal/models"
)

// MemoryStore is an in-memory Store used by unit tests and local
// development. Transactions are serialized on a single mutex, which is a
// stricter guarantee than the per-wallet row locks of the SQL store, so any
// interleaving bug it surfaces also exists against PostgreSQL. Rollback is
// not simulated.
type MemoryStore struct {
	txMu sync.Mutex // serializes WithTransaction bodies
	mu   sync.Mutex // guards the maps below

	wallets     map[string]*models.Wallet
	ledger      []models.LedgerEntry
	orders      map[uuid.UUID]*models.Order
	payments    map[uuid.UUID]*models.Payment
	payouts     map[uuid.UUID]*models.PayoutRequest
	tenants     map[string]*models.TenantPaymentConfig
	credentials map[uuid.UUID]*models.ProviderCredential
	webhooks    map[string]*models.WebhookEvent
	audits      []models.AuditRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:     make(map[string]*models.Wallet),
		orders:      make(map[uuid.UUID]*models.Order),
		payments:    make(map[uuid.UUID]*models.Payment),
		payouts:     make(map[uuid.UUID]*models.PayoutRequest),
		tenants:     make(map[string]*models.TenantPaymentConfig),
		credentials: make(map[uuid.UUID]*models.ProviderCredential),
		webhooks:    make(map[string]*models.WebhookEvent),
	}
}

var _ Store = (*MemoryStore)(nil)

func walletKey(scope models.Scope, scopeID, currency string) string {
	return string(scope) + "/" + scopeID + "/" + currency
}

func webhookKey(provider models.ProviderType, eventID string) string {
	return string(provider) + "/" + eventID
}

func (m *MemoryStore) WithTransaction(_ context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// ---- wallets & ledger ----

func (m *MemoryStore) GetWalletForUpdate(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	return m.GetWallet(ctx, scope, scopeID, currency)
}

func (m *MemoryStore) GetWallet(_ context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletKey(scope, scopeID, currency)]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MemoryStore) CreateWallet(_ context.Context, wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = wallet.CreatedAt
	cp := *wallet
	m.wallets[walletKey(wallet.Scope, wallet.ScopeID, wallet.Currency)] = &cp
	return nil
}

func (m *MemoryStore) UpdateWallet(_ context.Context, wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet.UpdatedAt = time.Now()
	cp := *wallet
	m.wallets[walletKey(wallet.Scope, wallet.ScopeID, wallet.Currency)] = &cp
	return nil
}

func (m *MemoryStore) ListWallets(_ context.Context) ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) AppendLedgerEntry(_ context.Context, entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	m.ledger = append(m.ledger, *entry)
	return nil
}

func (m *MemoryStore) SumLedger(_ context.Context, scope models.Scope, scopeID, currency string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var balance, locked int64
	for _, e := range m.ledger {
		if e.Scope != scope || e.ScopeID != scopeID || e.Currency != currency {
			continue
		}
		switch e.Type {
		case models.LedgerCredit:
			balance += e.Amount
		case models.LedgerDebit:
			balance -= e.Amount
		case models.LedgerLock:
			locked += e.Amount
		case models.LedgerUnlock:
			locked -= e.Amount
		}
	}
	return balance, locked, nil
}

func (m *MemoryStore) ListLedgerEntries(_ context.Context, scope models.Scope, scopeID, currency string, limit, offset int) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range m.ledger {
		if e.Scope == scope && e.ScopeID == scopeID && e.Currency == currency {
			out = append(out, e)
		}
	}
	if limit > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, nil
}

func (m *MemoryStore) ListLedgerEntriesByPayment(_ context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range m.ledger {
		if e.PaymentID != nil && *e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- orders ----

func (m *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return m.GetOrder(ctx, orderID)
}

func (m *MemoryStore) UpdateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return models.ErrNotFound
	}
	order.UpdatedAt = time.Now()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemoryStore) ListOrdersByTenant(_ context.Context, tenantID string, limit, offset int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.TenantID == tenantID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// ---- payments ----

func (m *MemoryStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *MemoryStore) GetPayment(_ context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetPaymentByProviderRef(_ context.Context, provider models.ProviderType, providerRef string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Provider == provider && strings.EqualFold(p.ProviderRef, providerRef) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryStore) UpdatePayment(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return models.ErrNotFound
	}
	payment.UpdatedAt = time.Now()
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *MemoryStore) ListPaymentsByOrder(_ context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- payouts ----

func (m *MemoryStore) CreatePayout(_ context.Context, payout *models.PayoutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	payout.CreatedAt = time.Now()
	payout.UpdatedAt = payout.CreatedAt
	cp := *payout
	m.payouts[payout.ID] = &cp
	return nil
}

func (m *MemoryStore) GetPayout(_ context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[payoutID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetPayoutForUpdate(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	return m.GetPayout(ctx, payoutID)
}

func (m *MemoryStore) UpdatePayout(_ context.Context, payout *models.PayoutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payouts[payout.ID]; !ok {
		return models.ErrNotFound
	}
	payout.UpdatedAt = time.Now()
	cp := *payout
	m.payouts[payout.ID] = &cp
	return nil
}

func (m *MemoryStore) ListPayoutsByTenant(_ context.Context, tenantID string, limit, offset int) ([]models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PayoutRequest
	for _, p := range m.payouts {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (m *MemoryStore) SumPayoutsRequestedSince(_ context.Context, tenantID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, p := range m.payouts {
		if p.TenantID == tenantID && !p.CreatedAt.Before(since) {
			total += p.Amount
		}
	}
	return total, nil
}

func (m *MemoryStore) ListApprovedPayoutsOlderThan(_ context.Context, cutoff time.Time) ([]models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PayoutRequest
	for _, p := range m.payouts {
		if p.Status == models.PayoutApproved && p.ReviewedAt != nil && p.ReviewedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewedAt.Before(*out[j].ReviewedAt) })
	return out, nil
}

// ---- tenant configs & credentials ----

func (m *MemoryStore) GetTenantConfig(_ context.Context, tenantID string) (*models.TenantPaymentConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.tenants[tenantID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) CreateTenantConfig(_ context.Context, config *models.TenantPaymentConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	config.CreatedAt = time.Now()
	config.UpdatedAt = config.CreatedAt
	cp := *config
	m.tenants[config.TenantID] = &cp
	return nil
}

func (m *MemoryStore) UpdateTenantConfig(_ context.Context, config *models.TenantPaymentConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[config.TenantID]; !ok {
		return models.ErrNotFound
	}
	config.UpdatedAt = time.Now()
	cp := *config
	m.tenants[config.TenantID] = &cp
	return nil
}

func (m *MemoryStore) CreateCredential(_ context.Context, cred *models.ProviderCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	cred.CreatedAt = time.Now()
	cred.UpdatedAt = cred.CreatedAt
	cp := *cred
	m.credentials[cred.ID] = &cp
	return nil
}

func (m *MemoryStore) GetCredential(_ context.Context, credentialID uuid.UUID) (*models.ProviderCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[credentialID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) UpdateCredential(_ context.Context, cred *models.ProviderCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credentials[cred.ID]; !ok {
		return models.ErrNotFound
	}
	cred.UpdatedAt = time.Now()
	cp := *cred
	m.credentials[cred.ID] = &cp
	return nil
}

func (m *MemoryStore) ListCredentials(_ context.Context, scope models.Scope, scopeID string) ([]models.ProviderCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProviderCredential
	for _, c := range m.credentials {
		if c.Scope == scope && c.ScopeID == scopeID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetActiveCredential(_ context.Context, scope models.Scope, scopeID string, provider models.ProviderType) (*models.ProviderCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.credentials {
		if c.Scope == scope && c.ScopeID == scopeID && c.Provider == provider && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// ---- webhook events & audit ----

func (m *MemoryStore) CreateWebhookEvent(_ context.Context, event *models.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.ReceivedAt = time.Now()
	cp := *event
	m.webhooks[webhookKey(event.Provider, event.EventID)] = &cp
	return nil
}

func (m *MemoryStore) GetWebhookEvent(_ context.Context, provider models.ProviderType, eventID string) (*models.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.webhooks[webhookKey(provider, eventID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) UpdateWebhookEvent(_ context.Context, event *models.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.webhooks[webhookKey(event.Provider, event.EventID)] = &cp
	return nil
}

func (m *MemoryStore) CreateAuditRecord(_ context.Context, record *models.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	m.audits = append(m.audits, *record)
	return nil
}

func (m *MemoryStore) QueryAuditRecords(_ context.Context, filter models.AuditFilter) ([]models.AuditRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range m.audits {
		if filter.ActorType != "" && r.ActorType != filter.ActorType {
			continue
		}
		if filter.ActorID != "" && r.ActorID != filter.ActorID {
			continue
		}
		if filter.EntityType != "" && r.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && r.EntityID != filter.EntityID {
			continue
		}
		if !filter.From.IsZero() && r.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !r.CreatedAt.Before(filter.To) {
			continue
		}
		out = append(out, r)
	}
	total := int64(len(out))
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return paginate(out, limit, filter.Offset), total, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
