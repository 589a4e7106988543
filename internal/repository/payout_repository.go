package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"wallet-service/internal/models"
)

func (s *gormStore) CreatePayout(ctx context.Context, payout *models.PayoutRequest) error {
	return s.db.WithContext(ctx).Create(payout).Error
}

func (s *gormStore) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	if err := s.db.WithContext(ctx).First(&payout, "id = ?", payoutID).Error; err != nil {
		return nil, notFound(err)
	}
	return &payout, nil
}

func (s *gormStore) GetPayoutForUpdate(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payout, "id = ?", payoutID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &payout, nil
}

func (s *gormStore) UpdatePayout(ctx context.Context, payout *models.PayoutRequest) error {
	payout.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(payout).Error
}

func (s *gormStore) ListPayoutsByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (s *gormStore) SumPayoutsRequestedSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *gormStore) ListApprovedPayoutsOlderThan(ctx context.Context, cutoff time.Time) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	err := s.db.WithContext(ctx).
		Where("status = ? AND reviewed_at < ?", models.PayoutApproved, cutoff).
		Order("reviewed_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
