package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestReconcileHealthyWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 5000)

	report, err := env.recon.CheckWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.False(t, report.Drift)
	assert.Equal(t, report.CachedBalance, report.LedgerBalance)
}

func TestReconcileDriftFreezesWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 5000)

	// Corrupt the cache behind the ledger's back.
	w, err := env.store.GetWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	w.Balance = 9999
	require.NoError(t, env.store.UpdateWallet(ctx, w))

	report, err := env.recon.CheckWallet(ctx, models.ScopeTenant, "t1", testPivot)
	assert.ErrorIs(t, err, models.ErrLedgerDrift)
	require.NotNil(t, report)
	assert.True(t, report.Drift)
	assert.Equal(t, int64(9999), report.CachedBalance)
	assert.Equal(t, int64(5000), report.LedgerBalance)

	// Cache is never auto-corrected, the wallet just freezes.
	w, err = env.store.GetWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.True(t, w.Frozen)
	assert.Equal(t, int64(9999), w.Balance)

	_, err = env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 100, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrWalletFrozen)
}

func TestReconcileRunSweepsAllWallets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)
	env.credit(t, "t2", 2000)

	w, err := env.store.GetWallet(ctx, models.ScopeTenant, "t2", testPivot)
	require.NoError(t, err)
	w.Balance = 1
	require.NoError(t, env.store.UpdateWallet(ctx, w))

	report, err := env.recon.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Wallets, 2)
	assert.Equal(t, 1, report.DriftCount)
}

func TestUnfreezeRequiresAgreement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 5000)

	w, err := env.store.GetWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	w.Balance = 9999
	require.NoError(t, env.store.UpdateWallet(ctx, w))

	_, err = env.recon.CheckWallet(ctx, models.ScopeTenant, "t1", testPivot)
	assert.ErrorIs(t, err, models.ErrLedgerDrift)

	// Still drifted: unfreeze refused.
	_, err = env.recon.Unfreeze(ctx, models.ScopeTenant, "t1", testPivot, "admin-1")
	assert.ErrorIs(t, err, models.ErrLedgerDrift)

	// Operator repairs the cache to match the ledger, then unfreeze works.
	w, err = env.store.GetWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	w.Balance = 5000
	require.NoError(t, env.store.UpdateWallet(ctx, w))

	unfrozen, err := env.recon.Unfreeze(ctx, models.ScopeTenant, "t1", testPivot, "admin-1")
	require.NoError(t, err)
	assert.False(t, unfrozen.Frozen)

	_, err = env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 100, models.EntryRef{})
	require.NoError(t, err)
}
