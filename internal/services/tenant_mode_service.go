package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// TenantModeService manages per-tenant payment configuration: the
// OWNER/DELEGUE mode switch and the daily payout limit.
type TenantModeService struct {
	store  repository.Store
	audit  *AuditService
	logger *logrus.Entry
}

func NewTenantModeService(store repository.Store, audit *AuditService, logger *logrus.Logger) *TenantModeService {
	return &TenantModeService{
		store:  store,
		audit:  audit,
		logger: logger.WithField("component", "tenant_mode"),
	}
}

// GetConfig returns the tenant's payment config, creating a default OWNER
// mode row on first access.
func (s *TenantModeService) GetConfig(ctx context.Context, tenantID string) (*models.TenantPaymentConfig, error) {
	config, err := s.store.GetTenantConfig(ctx, tenantID)
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	config = &models.TenantPaymentConfig{
		TenantID: tenantID,
		Mode:     models.ModeOwner,
		Enabled:  true,
	}
	if err := s.store.CreateTenantConfig(ctx, config); err != nil {
		if existing, getErr := s.store.GetTenantConfig(ctx, tenantID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return config, nil
}

// SetMode switches a tenant between OWNER and DELEGUE. The platform tenant
// can never leave OWNER mode; refusals are audited.
func (s *TenantModeService) SetMode(ctx context.Context, tenantID string, mode models.PaymentMode, actorID string) (*models.TenantPaymentConfig, error) {
	if mode != models.ModeOwner && mode != models.ModeDelegue {
		return nil, fmt.Errorf("unknown payment mode %q", mode)
	}

	config, err := s.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if config.IsPlatform && mode != models.ModeOwner {
		s.audit.Record(ctx, models.ActorAdmin, actorID, "tenant.mode_change_refused", "tenant_config", tenantID, map[string]interface{}{
			"requested_mode": mode,
		})
		return nil, fmt.Errorf("platform tenant mode is fixed: %w", models.ErrModeChangeForbidden)
	}

	previous := config.Mode
	config.Mode = mode
	if err := s.store.UpdateTenantConfig(ctx, config); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActorAdmin, actorID, "tenant.mode_changed", "tenant_config", tenantID, map[string]interface{}{
		"from": previous,
		"to":   mode,
	})
	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"from":      previous,
		"to":        mode,
	}).Info("Tenant payment mode changed")
	return config, nil
}

// SetDailyPayoutLimit updates the per-day payout cap in pivot minor units.
// A zero limit blocks payouts entirely.
func (s *TenantModeService) SetDailyPayoutLimit(ctx context.Context, tenantID string, limit int64, actorID string) (*models.TenantPaymentConfig, error) {
	if limit < 0 {
		return nil, fmt.Errorf("daily payout limit must not be negative, got %d", limit)
	}

	config, err := s.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	previous := config.DailyPayoutLimit
	config.DailyPayoutLimit = limit
	if err := s.store.UpdateTenantConfig(ctx, config); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActorAdmin, actorID, "tenant.payout_limit_changed", "tenant_config", tenantID, map[string]interface{}{
		"from": previous,
		"to":   limit,
	})
	return config, nil
}
