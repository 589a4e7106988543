package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wallet-service/internal/models"
)

// Store aggregates all persistence operations behind one interface so
// services can compose multi-entity writes inside a single transaction.
type Store interface {
	// WithTransaction runs fn against a Store bound to one database
	// transaction. A returned error rolls everything back.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error

	WalletStore
	OrderStore
	PaymentStore
	PayoutStore
	TenantStore
	CredentialStore
	WebhookStore
	AuditStore
}

// WalletStore covers wallets and their append-only ledger.
type WalletStore interface {
	// GetWalletForUpdate locks the wallet row for the duration of the
	// surrounding transaction. Only meaningful inside WithTransaction.
	GetWalletForUpdate(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error)
	GetWallet(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error
	ListWallets(ctx context.Context) ([]models.Wallet, error)

	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	// SumLedger recomputes (balance, locked) from the ledger alone.
	SumLedger(ctx context.Context, scope models.Scope, scopeID, currency string) (int64, int64, error)
	ListLedgerEntries(ctx context.Context, scope models.Scope, scopeID, currency string, limit, offset int) ([]models.LedgerEntry, error)
	ListLedgerEntriesByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// GetOrderForUpdate locks the order row inside a transaction.
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.Order, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	GetPaymentByProviderRef(ctx context.Context, provider models.ProviderType, providerRef string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type PayoutStore interface {
	CreatePayout(ctx context.Context, payout *models.PayoutRequest) error
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error)
	GetPayoutForUpdate(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error)
	UpdatePayout(ctx context.Context, payout *models.PayoutRequest) error
	ListPayoutsByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.PayoutRequest, error)
	// SumPayoutsRequestedSince totals the amounts of all payout requests a
	// tenant created at or after the cutoff, regardless of later status.
	SumPayoutsRequestedSince(ctx context.Context, tenantID string, since time.Time) (int64, error)
	ListApprovedPayoutsOlderThan(ctx context.Context, cutoff time.Time) ([]models.PayoutRequest, error)
}

type TenantStore interface {
	GetTenantConfig(ctx context.Context, tenantID string) (*models.TenantPaymentConfig, error)
	CreateTenantConfig(ctx context.Context, config *models.TenantPaymentConfig) error
	UpdateTenantConfig(ctx context.Context, config *models.TenantPaymentConfig) error
}

type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *models.ProviderCredential) error
	GetCredential(ctx context.Context, credentialID uuid.UUID) (*models.ProviderCredential, error)
	UpdateCredential(ctx context.Context, cred *models.ProviderCredential) error
	ListCredentials(ctx context.Context, scope models.Scope, scopeID string) ([]models.ProviderCredential, error)
	GetActiveCredential(ctx context.Context, scope models.Scope, scopeID string, provider models.ProviderType) (*models.ProviderCredential, error)
}

type WebhookStore interface {
	CreateWebhookEvent(ctx context.Context, event *models.WebhookEvent) error
	GetWebhookEvent(ctx context.Context, provider models.ProviderType, eventID string) (*models.WebhookEvent, error)
	UpdateWebhookEvent(ctx context.Context, event *models.WebhookEvent) error
}

type AuditStore interface {
	CreateAuditRecord(ctx context.Context, record *models.AuditRecord) error
	QueryAuditRecords(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, int64, error)
}

// gormStore is the PostgreSQL implementation of Store.
type gormStore struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection in the Store interface.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound normalizes gorm's record-not-found to the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}
