package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func TestWalletCreditAndReplayAgree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w, err := env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 1500, models.EntryRef{})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), w.Balance)

	w, err = env.wallets.Debit(ctx, models.ScopeTenant, "t1", testPivot, 500, models.EntryRef{})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)

	balance, locked, err := env.wallets.Replay(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, w.Balance, balance)
	assert.Equal(t, w.Locked, locked)
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)

	_, err := env.wallets.Debit(ctx, models.ScopeTenant, "t1", testPivot, 1001, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	// The failed debit must leave no ledger entry.
	balance, _, err := env.wallets.Replay(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestWalletLockedFundsNotSpendable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)

	_, err := env.wallets.Lock(ctx, models.ScopeTenant, "t1", testPivot, 700, models.EntryRef{})
	require.NoError(t, err)

	// Only 300 is available even though the balance reads 1000.
	_, err = env.wallets.Debit(ctx, models.ScopeTenant, "t1", testPivot, 400, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	w, err := env.wallets.Debit(ctx, models.ScopeTenant, "t1", testPivot, 300, models.EntryRef{})
	require.NoError(t, err)
	assert.Equal(t, int64(700), w.Balance)
	assert.Equal(t, int64(700), w.Locked)
	assert.Equal(t, int64(0), w.Available())
}

func TestWalletOverUnlockRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)

	_, err := env.wallets.Lock(ctx, models.ScopeTenant, "t1", testPivot, 200, models.EntryRef{})
	require.NoError(t, err)

	_, err = env.wallets.Unlock(ctx, models.ScopeTenant, "t1", testPivot, 201, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrOverUnlock)
}

func TestWalletFrozenRejectsMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)

	w, err := env.store.GetWallet(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	w.Frozen = true
	require.NoError(t, env.store.UpdateWallet(ctx, w))

	_, err = env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 100, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrWalletFrozen)
	_, err = env.wallets.Debit(ctx, models.ScopeTenant, "t1", testPivot, 100, models.EntryRef{})
	assert.ErrorIs(t, err, models.ErrWalletFrozen)
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 0, models.EntryRef{})
	assert.Error(t, err)
	_, err = env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, -5, models.EntryRef{})
	assert.Error(t, err)
}

func TestWalletConcurrentCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.wallets.Credit(ctx, models.ScopeTenant, "t1", testPivot, 100, models.EntryRef{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), w.Balance)

	entries, err := env.wallets.Ledger(ctx, models.ScopeTenant, "t1", testPivot, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestWalletLazyCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w, err := env.wallets.GetOrCreate(ctx, models.ScopeTenant, "fresh", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, int64(0), w.Locked)
	assert.False(t, w.Frozen)
}
