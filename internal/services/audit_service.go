package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// AuditService appends to the compliance trail. Writes are best-effort:
// a failed audit insert is logged loudly but never fails the business
// operation that triggered it.
type AuditService struct {
	store  repository.Store
	logger *logrus.Entry
}

func NewAuditService(store repository.Store, logger *logrus.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger.WithField("component", "audit"),
	}
}

// Record appends one audit entry. Snapshot is marshaled to JSON; pass the
// failure reason under the "error" key for refused actions.
func (s *AuditService) Record(ctx context.Context, actorType models.ActorType, actorID, action, entityType, entityID string, snapshot map[string]interface{}) {
	var payload datatypes.JSON
	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			s.logger.WithError(err).WithField("action", action).Error("Failed to marshal audit snapshot")
		} else {
			payload = data
		}
	}

	record := &models.AuditRecord{
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Snapshot:   payload,
	}
	if err := s.store.CreateAuditRecord(ctx, record); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"entity": entityType,
		}).Error("Failed to write audit record")
	}
}

// Query is the read-only export surface for compliance tooling.
func (s *AuditService) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, int64, error) {
	return s.store.QueryAuditRecords(ctx, filter)
}
