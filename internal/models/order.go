package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderStatus represents the order lifecycle. PENDING is the only
// non-terminal state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderFailed    OrderStatus = "FAILED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderFailed || s == OrderCancelled
}

// Order is a purchase/settlement intent. The pivot amount is computed once
// at creation from the FX rate of that moment and never changes afterwards.
type Order struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID   string     `gorm:"type:varchar(255);not null;index:idx_orders_tenant" json:"tenantId"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	Reference  string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`

	Currency     string `gorm:"type:varchar(3);not null" json:"currency"`
	NativeAmount int64  `gorm:"type:bigint;not null" json:"nativeAmount"`

	// Frozen at creation time.
	PivotAmount    int64   `gorm:"type:bigint;not null" json:"pivotAmount"`
	FXRateSnapshot float64 `gorm:"type:decimal(18,8);not null" json:"fxRateSnapshot"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index:idx_orders_status" json:"status"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_orders_created" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

// PaymentStatus represents a payment attempt's lifecycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is one provider attempt against an order. An order may carry many
// attempts but at most one COMPLETED.
type Payment struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_payments_order" json:"orderId"`

	Provider ProviderType `gorm:"type:varchar(50);not null;uniqueIndex:idx_payments_provider_ref,priority:1" json:"provider"`
	Channel  string       `gorm:"type:varchar(50)" json:"channel,omitempty"`

	// ProviderRef is the provider-side transaction id, unique per provider.
	ProviderRef string `gorm:"type:varchar(255);not null;uniqueIndex:idx_payments_provider_ref,priority:2" json:"providerRef"`

	Status     PaymentStatus  `gorm:"type:varchar(20);not null;index:idx_payments_status" json:"status"`
	RawPayload datatypes.JSON `gorm:"type:jsonb" json:"rawPayload,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
	FailureNote string     `gorm:"type:text" json:"failureNote,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}
