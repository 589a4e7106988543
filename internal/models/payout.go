package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PayoutStatus represents the payout state machine:
// PENDING -> APPROVED -> PAID, or PENDING -> REJECTED.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "PENDING"
	PayoutApproved PayoutStatus = "APPROVED"
	PayoutRejected PayoutStatus = "REJECTED"
	PayoutPaid     PayoutStatus = "PAID"
)

// PayoutChannel is the destination a tenant chose for the funds.
type PayoutChannel string

const (
	ChannelBankTransfer PayoutChannel = "BANK_TRANSFER"
	ChannelMobileMoney  PayoutChannel = "MOBILE_MONEY"
	ChannelWave         PayoutChannel = "WAVE"
)

// PayoutRequest moves tenant funds out of the platform. The requested amount
// stays locked on the tenant wallet from request until review resolves it.
type PayoutRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_payouts_tenant" json:"tenantId"`

	// Amount in pivot-currency minor units.
	Amount   int64  `gorm:"type:bigint;not null" json:"amount"`
	Currency string `gorm:"type:varchar(3);not null" json:"currency"`

	Channel        PayoutChannel  `gorm:"type:varchar(30);not null" json:"channel"`
	ChannelDetails datatypes.JSON `gorm:"type:jsonb" json:"channelDetails,omitempty"`

	Status PayoutStatus `gorm:"type:varchar(20);not null;index:idx_payouts_status" json:"status"`

	RequesterID string     `gorm:"type:varchar(255);not null" json:"requesterId"`
	ReviewerID  string     `gorm:"type:varchar(255)" json:"reviewerId,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	EvidenceRef string     `gorm:"type:varchar(500)" json:"evidenceRef,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_payouts_created" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (PayoutRequest) TableName() string {
	return "payout_requests"
}
