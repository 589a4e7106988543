package repository

import (
	"context"

	"wallet-service/internal/models"
)

func (s *gormStore) CreateWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *gormStore) GetWebhookEvent(ctx context.Context, provider models.ProviderType, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		First(&event).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

func (s *gormStore) UpdateWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	return s.db.WithContext(ctx).Save(event).Error
}

func (s *gormStore) CreateAuditRecord(ctx context.Context, record *models.AuditRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *gormStore) QueryAuditRecords(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditRecord{})

	if filter.ActorType != "" {
		q = q.Where("actor_type = ?", filter.ActorType)
	}
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var records []models.AuditRecord
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
