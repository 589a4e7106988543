package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// CredentialService manages provider credentials and resolves which
// credential a given tenant's traffic should use, according to the tenant's
// payment mode.
type CredentialService struct {
	store  repository.Store
	tenant *TenantModeService
	audit  *AuditService
	logger *logrus.Entry
}

func NewCredentialService(store repository.Store, tenant *TenantModeService, audit *AuditService, logger *logrus.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		tenant: tenant,
		audit:  audit,
		logger: logger.WithField("component", "credentials"),
	}
}

// Add registers a provider credential under a scope. Only one credential per
// (scope, scope id, provider) is active at a time; adding a new one
// deactivates the previous.
func (s *CredentialService) Add(ctx context.Context, scope models.Scope, scopeID string, provider models.ProviderType, payload datatypes.JSON, webhookSecret, actorID string) (*models.ProviderCredential, error) {
	cred := &models.ProviderCredential{
		Scope:         scope,
		ScopeID:       scopeID,
		Provider:      provider,
		Payload:       payload,
		WebhookSecret: webhookSecret,
		Active:        true,
	}

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		existing, err := tx.GetActiveCredential(ctx, scope, scopeID, provider)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if existing != nil {
			existing.Active = false
			if err := tx.UpdateCredential(ctx, existing); err != nil {
				return err
			}
		}
		return tx.CreateCredential(ctx, cred)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActorAdmin, actorID, "credential.added", "provider_credential", cred.ID.String(), map[string]interface{}{
		"scope":    scope,
		"scope_id": scopeID,
		"provider": provider,
	})
	return cred, nil
}

// SetActive toggles a credential without deleting it.
func (s *CredentialService) SetActive(ctx context.Context, credentialID uuid.UUID, active bool, actorID string) (*models.ProviderCredential, error) {
	cred, err := s.store.GetCredential(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	cred.Active = active
	if err := s.store.UpdateCredential(ctx, cred); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, models.ActorAdmin, actorID, "credential.toggled", "provider_credential", cred.ID.String(), map[string]interface{}{
		"active": active,
	})
	return cred, nil
}

// List returns the credentials under a scope, secrets excluded by the model's
// JSON tags.
func (s *CredentialService) List(ctx context.Context, scope models.Scope, scopeID string) ([]models.ProviderCredential, error) {
	return s.store.ListCredentials(ctx, scope, scopeID)
}

// ResolveCredential picks the credential a tenant's payment should use.
// OWNER mode tenants route through the platform's credential; DELEGUE
// tenants must have their own. There is no cross-mode fallback.
func (s *CredentialService) ResolveCredential(ctx context.Context, tenantID string, provider models.ProviderType) (*models.ProviderCredential, error) {
	config, err := s.tenant.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	scope := models.ScopeOwner
	scopeID := models.OwnerScopeID
	if config.Mode == models.ModeDelegue {
		scope = models.ScopeTenant
		scopeID = tenantID
	}

	cred, err := s.store.GetActiveCredential(ctx, scope, scopeID, provider)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: no active %s credential for %s scope %s", models.ErrCredentialsNotConfigured, provider, scope, scopeID)
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// ResolveWebhookCredential resolves the credential whose secret should verify
// an inbound webhook. An empty tenant hint means the platform's endpoint.
func (s *CredentialService) ResolveWebhookCredential(ctx context.Context, tenantHint string, provider models.ProviderType) (*models.ProviderCredential, error) {
	if tenantHint == "" {
		cred, err := s.store.GetActiveCredential(ctx, models.ScopeOwner, models.OwnerScopeID, provider)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active %s credential for owner", models.ErrCredentialsNotConfigured, provider)
		}
		return cred, err
	}
	return s.ResolveCredential(ctx, tenantHint, provider)
}
