package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentMode determines whose provider credentials a tenant's payments
// route through.
type PaymentMode string

const (
	// ModeOwner routes payments through the platform's own provider accounts.
	ModeOwner PaymentMode = "OWNER"
	// ModeDelegue routes payments through the tenant's own linked accounts.
	ModeDelegue PaymentMode = "DELEGUE"
)

// ProviderType identifies an external payment provider.
type ProviderType string

const (
	ProviderStripe   ProviderType = "STRIPE"
	ProviderRazorpay ProviderType = "RAZORPAY"
	ProviderPayDunya ProviderType = "PAYDUNYA"
)

// TenantPaymentConfig holds per-tenant payment routing configuration.
// Created at onboarding, never deleted; Enabled=false soft-disables.
type TenantPaymentConfig struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string      `gorm:"type:varchar(255);not null;unique" json:"tenantId"`
	Mode     PaymentMode `gorm:"type:varchar(10);not null;default:'OWNER'" json:"mode"`

	// IsPlatform marks the platform owner's own tenant record. A platform
	// tenant is permanently in OWNER mode.
	IsPlatform bool `gorm:"default:false" json:"isPlatform"`

	// DailyPayoutLimit caps the pivot-currency total a tenant may request
	// in payouts per UTC day. Zero means no payouts allowed.
	DailyPayoutLimit int64 `gorm:"type:bigint;not null;default:0" json:"dailyPayoutLimit"`

	Enabled bool `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (TenantPaymentConfig) TableName() string {
	return "tenant_payment_configs"
}

// ProviderCredential stores one provider account's keys, owned either by the
// platform (ScopeOwner) or by a tenant. Deactivated, never deleted, so the
// audit trail stays intact.
type ProviderCredential struct {
	ID       uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Scope    Scope        `gorm:"type:varchar(10);not null;index:idx_credentials_scope,priority:1" json:"scope"`
	ScopeID  string       `gorm:"type:varchar(255);not null;index:idx_credentials_scope,priority:2" json:"scopeId"`
	Provider ProviderType `gorm:"type:varchar(50);not null" json:"provider"`

	// Opaque provider payload (api keys, account ids). The webhook secret
	// is kept out of API responses.
	Payload       datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	WebhookSecret string         `gorm:"type:text" json:"-"`

	Active bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (ProviderCredential) TableName() string {
	return "provider_credentials"
}
