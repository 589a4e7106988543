package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestTenantConfigLazyDefaultsToOwnerMode(t *testing.T) {
	env := newTestEnv(t)

	config, err := env.tenants.GetConfig(context.Background(), "t-new")
	require.NoError(t, err)
	assert.Equal(t, models.ModeOwner, config.Mode)
	assert.Equal(t, int64(0), config.DailyPayoutLimit)
	assert.True(t, config.Enabled)
}

func TestTenantModeSwitch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	config, err := env.tenants.SetMode(ctx, "t1", models.ModeDelegue, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeDelegue, config.Mode)

	config, err = env.tenants.SetMode(ctx, "t1", models.ModeOwner, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeOwner, config.Mode)
}

func TestPlatformTenantModeIsFixed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.CreateTenantConfig(ctx, &models.TenantPaymentConfig{
		TenantID:   "platform",
		Mode:       models.ModeOwner,
		IsPlatform: true,
		Enabled:    true,
	}))

	_, err := env.tenants.SetMode(ctx, "platform", models.ModeDelegue, "admin-1")
	assert.ErrorIs(t, err, models.ErrModeChangeForbidden)

	// The refusal itself lands in the audit trail.
	records, _, err := env.audit.Query(ctx, models.AuditFilter{
		EntityType: "tenant_config",
		EntityID:   "platform",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tenant.mode_change_refused", records[0].Action)
}

func TestCredentialResolutionFollowsMode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ownerCred := env.seedOwnerCredential(t, models.ProviderStripe, "owner-secret")

	tenantPayload := []byte(`{"api_key":"tenant-key"}`)
	tenantCred, err := env.credentials.Add(ctx, models.ScopeTenant, "t1", models.ProviderStripe, tenantPayload, "tenant-secret", "admin-1")
	require.NoError(t, err)

	// OWNER mode resolves the platform credential.
	resolved, err := env.credentials.ResolveCredential(ctx, "t1", models.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, ownerCred.ID, resolved.ID)

	// DELEGUE mode resolves the tenant's own.
	_, err = env.tenants.SetMode(ctx, "t1", models.ModeDelegue, "admin-1")
	require.NoError(t, err)

	resolved, err = env.credentials.ResolveCredential(ctx, "t1", models.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, tenantCred.ID, resolved.ID)
}

func TestDelegueWithoutCredentialNoFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedOwnerCredential(t, models.ProviderStripe, "owner-secret")
	_, err := env.tenants.SetMode(ctx, "t1", models.ModeDelegue, "admin-1")
	require.NoError(t, err)

	// The owner credential must not leak into DELEGUE tenants.
	_, err = env.credentials.ResolveCredential(ctx, "t1", models.ProviderStripe)
	assert.ErrorIs(t, err, models.ErrCredentialsNotConfigured)
}

func TestAddCredentialDeactivatesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedOwnerCredential(t, models.ProviderPayDunya, "secret-1")
	second := env.seedOwnerCredential(t, models.ProviderPayDunya, "secret-2")

	resolved, err := env.store.GetActiveCredential(ctx, models.ScopeOwner, models.OwnerScopeID, models.ProviderPayDunya)
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved.ID)

	stale, err := env.store.GetCredential(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stale.Active)
}
