package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEvent records one provider callback for idempotency. Once Processed
// is true the row is never mutated again.
type WebhookEvent struct {
	ID       uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Provider ProviderType `gorm:"type:varchar(50);not null;uniqueIndex:idx_webhook_events_key,priority:1" json:"provider"`

	// EventID is the provider-assigned event id, the idempotency key
	// together with Provider.
	EventID   string `gorm:"type:varchar(255);not null;uniqueIndex:idx_webhook_events_key,priority:2" json:"eventId"`
	EventType string `gorm:"type:varchar(100);not null;index:idx_webhook_events_type" json:"eventType"`

	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`

	Processed       bool       `gorm:"default:false;index:idx_webhook_events_processed" json:"processed"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processingError,omitempty"`
	RetryCount      int        `gorm:"default:0" json:"retryCount"`

	ReceivedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_webhook_events_received" json:"receivedAt"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
