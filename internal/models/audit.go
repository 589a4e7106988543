package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActorType classifies who performed an audited action.
type ActorType string

const (
	ActorUser     ActorType = "USER"
	ActorAdmin    ActorType = "ADMIN"
	ActorSystem   ActorType = "SYSTEM"
	ActorProvider ActorType = "PROVIDER"
)

// AuditRecord is one append-only entry in the compliance trail. Failed
// state changes are recorded too, with the failure reason in Snapshot.
type AuditRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ActorType ActorType `gorm:"type:varchar(20);not null;index:idx_audit_actor,priority:1" json:"actorType"`
	ActorID   string    `gorm:"type:varchar(255);not null;index:idx_audit_actor,priority:2" json:"actorId"`

	Action     string `gorm:"type:varchar(100);not null;index:idx_audit_action" json:"action"`
	EntityType string `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1" json:"entityType"`
	EntityID   string `gorm:"type:varchar(255);index:idx_audit_entity,priority:2" json:"entityId,omitempty"`

	Snapshot datatypes.JSON `gorm:"type:jsonb" json:"snapshot,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created" json:"createdAt"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}

// AuditFilter narrows an audit export query. Zero values mean "any".
type AuditFilter struct {
	ActorType  ActorType
	ActorID    string
	EntityType string
	EntityID   string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
