package models

import (
	"time"

	"github.com/google/uuid"
)

// Scope identifies the owner of a wallet/ledger namespace.
type Scope string

const (
	ScopeOwner  Scope = "OWNER"
	ScopeTenant Scope = "TENANT"
)

// OwnerScopeID is the fixed scope id used for all platform-owned wallets.
const OwnerScopeID = "platform"

// LedgerEntryType represents the kind of signed movement recorded in the ledger.
type LedgerEntryType string

const (
	LedgerCredit LedgerEntryType = "CREDIT"
	LedgerDebit  LedgerEntryType = "DEBIT"
	LedgerLock   LedgerEntryType = "LOCK"
	LedgerUnlock LedgerEntryType = "UNLOCK"
)

// Wallet caches the current balance for one (scope, scope id, currency) key.
// The ledger is the source of truth; Balance/Locked are projections updated
// in the same transaction as every ledger append.
//
// Amounts are minor units of the pivot currency.
type Wallet struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Scope    Scope     `gorm:"type:varchar(10);not null;uniqueIndex:idx_wallets_key,priority:1" json:"scope"`
	ScopeID  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_wallets_key,priority:2" json:"scopeId"`
	Currency string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_wallets_key,priority:3" json:"currency"`

	Balance int64 `gorm:"type:bigint;not null;default:0" json:"balance"`
	Locked  int64 `gorm:"type:bigint;not null;default:0" json:"locked"`

	// Frozen is set when reconciliation detects ledger drift. A frozen
	// wallet rejects all mutations until an operator reconciles it.
	Frozen   bool       `gorm:"default:false" json:"frozen"`
	FrozenAt *time.Time `json:"frozenAt,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Available returns the spendable portion of the balance.
func (w *Wallet) Available() int64 {
	return w.Balance - w.Locked
}

// LedgerEntry is one immutable signed movement. Rows are append-only: they
// are never updated or deleted after insert.
type LedgerEntry struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Scope    Scope           `gorm:"type:varchar(10);not null;index:idx_ledger_key,priority:1" json:"scope"`
	ScopeID  string          `gorm:"type:varchar(255);not null;index:idx_ledger_key,priority:2" json:"scopeId"`
	Currency string          `gorm:"type:varchar(3);not null;index:idx_ledger_key,priority:3" json:"currency"`
	Type     LedgerEntryType `gorm:"type:varchar(10);not null" json:"type"`

	// Amount in pivot-currency minor units, always positive; Type carries
	// the direction.
	Amount int64 `gorm:"type:bigint;not null" json:"amount"`

	// Snapshot of the originating operation.
	OriginalCurrency string  `gorm:"type:varchar(3)" json:"originalCurrency,omitempty"`
	OriginalAmount   int64   `gorm:"type:bigint" json:"originalAmount,omitempty"`
	FXRate           float64 `gorm:"type:decimal(18,8)" json:"fxRate,omitempty"`

	OrderID   *uuid.UUID `gorm:"type:uuid;index" json:"orderId,omitempty"`
	PaymentID *uuid.UUID `gorm:"type:uuid;index" json:"paymentId,omitempty"`
	PayoutID  *uuid.UUID `gorm:"type:uuid;index" json:"payoutId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_ledger_created" json:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// EntryRef carries the provenance metadata attached to a ledger entry.
type EntryRef struct {
	OriginalCurrency string
	OriginalAmount   int64
	FXRate           float64
	OrderID          *uuid.UUID
	PaymentID        *uuid.UUID
	PayoutID         *uuid.UUID
}
