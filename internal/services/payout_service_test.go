package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/models"
)

func setPayoutLimit(t *testing.T, env *testEnv, tenantID string, limit int64) {
	t.Helper()
	_, err := env.tenants.SetDailyPayoutLimit(context.Background(), tenantID, limit, "admin-1")
	require.NoError(t, err)
}

func requestPayout(t *testing.T, env *testEnv, tenantID string, amount int64) (*models.PayoutRequest, error) {
	t.Helper()
	return env.payouts.Request(context.Background(), tenantID, "u1", &models.CreatePayoutRequest{
		Amount:  amount,
		Channel: models.ChannelMobileMoney,
	})
}

func TestPayoutFullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 50000)

	// Lock 4000 on request.
	payout, err := requestPayout(t, env, "t1", 4000)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutPending, payout.Status)

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), w.Balance)
	assert.Equal(t, int64(4000), w.Locked)
	assert.Equal(t, int64(6000), w.Available())

	// Reject releases the lock.
	rejected, err := env.payouts.Review(ctx, payout.ID, "admin-1", false, "wrong account")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutRejected, rejected.Status)

	w, _ = env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	assert.Equal(t, int64(0), w.Locked)
	assert.Equal(t, int64(10000), w.Available())

	// Re-request, approve, and disburse.
	payout, err = requestPayout(t, env, "t1", 4000)
	require.NoError(t, err)

	approved, err := env.payouts.Review(ctx, payout.ID, "admin-1", true, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutApproved, approved.Status)

	w, _ = env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	assert.Equal(t, int64(4000), w.Locked)

	paid, err := env.payouts.MarkPaid(ctx, payout.ID, "admin-1", "wire-ref-77")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutPaid, paid.Status)
	assert.Equal(t, "wire-ref-77", paid.EvidenceRef)
	require.NotNil(t, paid.PaidAt)

	w, _ = env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	assert.Equal(t, int64(6000), w.Balance)
	assert.Equal(t, int64(0), w.Locked)

	// Ledger replay agrees with the cache after the whole dance.
	balance, locked, err := env.wallets.Replay(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance)
	assert.Equal(t, int64(0), locked)
}

func TestPayoutDailyCapCountsAllRequests(t *testing.T) {
	env := newTestEnv(t)
	env.credit(t, "t1", 100000)
	setPayoutLimit(t, env, "t1", 5000)

	_, err := requestPayout(t, env, "t1", 3000)
	require.NoError(t, err)

	// 3000 + 3000 > 5000, even though the first is still pending.
	_, err = requestPayout(t, env, "t1", 3000)
	assert.ErrorIs(t, err, models.ErrDailyLimitExceeded)

	// 2000 fits exactly.
	_, err = requestPayout(t, env, "t1", 2000)
	require.NoError(t, err)
}

func TestPayoutRejectedRequestsStillCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 100000)
	setPayoutLimit(t, env, "t1", 5000)

	payout, err := requestPayout(t, env, "t1", 4000)
	require.NoError(t, err)
	_, err = env.payouts.Review(ctx, payout.ID, "admin-1", false, "no")
	require.NoError(t, err)

	// The rejected 4000 stays in the day's total.
	_, err = requestPayout(t, env, "t1", 2000)
	assert.ErrorIs(t, err, models.ErrDailyLimitExceeded)
}

func TestPayoutZeroLimitBlocksAll(t *testing.T) {
	env := newTestEnv(t)
	env.credit(t, "t1", 10000)

	_, err := requestPayout(t, env, "t1", 1)
	assert.ErrorIs(t, err, models.ErrDailyLimitExceeded)
}

func TestPayoutRefusedCapLeavesNoLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 100)

	_, err := requestPayout(t, env, "t1", 500)
	assert.ErrorIs(t, err, models.ErrDailyLimitExceeded)

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Locked)

	balance, locked, err := env.wallets.Replay(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
	assert.Equal(t, int64(0), locked)
}

func TestPayoutInsufficientAvailableFunds(t *testing.T) {
	env := newTestEnv(t)
	env.credit(t, "t1", 1000)
	setPayoutLimit(t, env, "t1", 50000)

	_, err := requestPayout(t, env, "t1", 800)
	require.NoError(t, err)

	// 200 available, 300 requested.
	_, err = requestPayout(t, env, "t1", 300)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestPayoutInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 50000)

	payout, err := requestPayout(t, env, "t1", 1000)
	require.NoError(t, err)

	// PENDING cannot be marked paid.
	_, err = env.payouts.MarkPaid(ctx, payout.ID, "admin-1", "ref")
	assert.ErrorIs(t, err, models.ErrInvalidPayoutTransition)

	_, err = env.payouts.Review(ctx, payout.ID, "admin-1", true, "")
	require.NoError(t, err)

	// APPROVED cannot be reviewed again.
	_, err = env.payouts.Review(ctx, payout.ID, "admin-1", false, "")
	assert.ErrorIs(t, err, models.ErrInvalidPayoutTransition)

	_, err = env.payouts.MarkPaid(ctx, payout.ID, "admin-1", "ref")
	require.NoError(t, err)

	// PAID is terminal.
	_, err = env.payouts.MarkPaid(ctx, payout.ID, "admin-1", "ref-2")
	assert.ErrorIs(t, err, models.ErrInvalidPayoutTransition)
}

func TestPayoutHiddenFromOtherTenants(t *testing.T) {
	env := newTestEnv(t)
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 50000)

	payout, err := requestPayout(t, env, "t1", 4000)
	require.NoError(t, err)

	_, err = env.payouts.Get(context.Background(), "t2", payout.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	mine, err := env.payouts.Get(context.Background(), "t1", payout.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.ID, mine.ID)
}

func TestPayoutConcurrentRequestsRespectDailyCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 5000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = requestPayout(t, env, "t1", 3000)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrDailyLimitExceeded)
		}
	}
	assert.Equal(t, 1, succeeded)

	w, err := env.wallets.Get(ctx, models.ScopeTenant, "t1", testPivot)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), w.Locked)
}

func TestPayoutRefusedTransitionsAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.credit(t, "t1", 10000)
	setPayoutLimit(t, env, "t1", 50000)

	payout, err := requestPayout(t, env, "t1", 4000)
	require.NoError(t, err)

	// Disbursing before review is refused and leaves a trail.
	_, err = env.payouts.MarkPaid(ctx, payout.ID, "op-1", "wire-1")
	require.ErrorIs(t, err, models.ErrInvalidPayoutTransition)

	_, err = env.payouts.Review(ctx, payout.ID, "admin-1", true, "ok")
	require.NoError(t, err)

	// A second review of an approved payout is refused too.
	_, err = env.payouts.Review(ctx, payout.ID, "admin-1", false, "late")
	require.ErrorIs(t, err, models.ErrInvalidPayoutTransition)

	records, _, err := env.audit.Query(ctx, models.AuditFilter{
		EntityType: "payout",
		EntityID:   payout.ID.String(),
	})
	require.NoError(t, err)

	actions := make(map[string]int)
	for _, r := range records {
		actions[r.Action]++
	}
	assert.Equal(t, 1, actions["payout.mark_paid_refused"])
	assert.Equal(t, 1, actions["payout.review_refused"])
}
