package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wallet-service/internal/models"
)

func (s *gormStore) GetTenantConfig(ctx context.Context, tenantID string) (*models.TenantPaymentConfig, error) {
	var config models.TenantPaymentConfig
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&config).Error; err != nil {
		return nil, notFound(err)
	}
	return &config, nil
}

func (s *gormStore) CreateTenantConfig(ctx context.Context, config *models.TenantPaymentConfig) error {
	return s.db.WithContext(ctx).Create(config).Error
}

func (s *gormStore) UpdateTenantConfig(ctx context.Context, config *models.TenantPaymentConfig) error {
	config.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(config).Error
}

func (s *gormStore) CreateCredential(ctx context.Context, cred *models.ProviderCredential) error {
	return s.db.WithContext(ctx).Create(cred).Error
}

func (s *gormStore) GetCredential(ctx context.Context, credentialID uuid.UUID) (*models.ProviderCredential, error) {
	var cred models.ProviderCredential
	if err := s.db.WithContext(ctx).First(&cred, "id = ?", credentialID).Error; err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}

func (s *gormStore) UpdateCredential(ctx context.Context, cred *models.ProviderCredential) error {
	cred.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(cred).Error
}

func (s *gormStore) ListCredentials(ctx context.Context, scope models.Scope, scopeID string) ([]models.ProviderCredential, error) {
	var creds []models.ProviderCredential
	err := s.db.WithContext(ctx).
		Where("scope = ? AND scope_id = ?", scope, scopeID).
		Order("created_at ASC").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *gormStore) GetActiveCredential(ctx context.Context, scope models.Scope, scopeID string, provider models.ProviderType) (*models.ProviderCredential, error) {
	var cred models.ProviderCredential
	err := s.db.WithContext(ctx).
		Where("scope = ? AND scope_id = ? AND provider = ? AND active = true", scope, scopeID, provider).
		First(&cred).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}
