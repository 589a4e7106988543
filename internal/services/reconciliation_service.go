package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-service/internal/events"
	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// staleApprovedAfter is how long an APPROVED payout may wait for disbursement
// before a reconciliation run flags it.
const staleApprovedAfter = 72 * time.Hour

// ReconciliationService replays ledgers against cached balances. A mismatch
// is drift: the wallet freezes and an operator investigates. The cache is
// never auto-corrected because either side could be the wrong one.
type ReconciliationService struct {
	store     repository.Store
	audit     *AuditService
	publisher *events.Publisher
	logger    *logrus.Entry
	now       func() time.Time
}

func NewReconciliationService(store repository.Store, audit *AuditService, publisher *events.Publisher, logger *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{
		store:     store,
		audit:     audit,
		publisher: publisher,
		logger:    logger.WithField("component", "reconciliation"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WalletReport is the outcome of checking one wallet.
type WalletReport struct {
	Scope         models.Scope `json:"scope"`
	ScopeID       string       `json:"scopeId"`
	Currency      string       `json:"currency"`
	CachedBalance int64        `json:"cachedBalance"`
	LedgerBalance int64        `json:"ledgerBalance"`
	CachedLocked  int64        `json:"cachedLocked"`
	LedgerLocked  int64        `json:"ledgerLocked"`
	Drift         bool         `json:"drift"`
}

// RunReport summarizes one reconciliation sweep.
type RunReport struct {
	CheckedAt    time.Time              `json:"checkedAt"`
	Wallets      []WalletReport         `json:"wallets"`
	DriftCount   int                    `json:"driftCount"`
	StalePayouts []models.PayoutRequest `json:"stalePayouts"`
}

// CheckWallet replays one wallet's ledger under the row lock and freezes the
// wallet on mismatch. Returns ErrLedgerDrift alongside the report when drift
// was found.
func (s *ReconciliationService) CheckWallet(ctx context.Context, scope models.Scope, scopeID, currency string) (*WalletReport, error) {
	var report WalletReport
	var drift bool

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		wallet, err := tx.GetWalletForUpdate(ctx, scope, scopeID, currency)
		if err != nil {
			return err
		}
		balance, locked, err := tx.SumLedger(ctx, scope, scopeID, currency)
		if err != nil {
			return err
		}

		report = WalletReport{
			Scope:         scope,
			ScopeID:       scopeID,
			Currency:      currency,
			CachedBalance: wallet.Balance,
			LedgerBalance: balance,
			CachedLocked:  wallet.Locked,
			LedgerLocked:  locked,
		}
		if wallet.Balance == balance && wallet.Locked == locked {
			return nil
		}

		report.Drift = true
		drift = true
		if !wallet.Frozen {
			now := s.now()
			wallet.Frozen = true
			wallet.FrozenAt = &now
			if err := tx.UpdateWallet(ctx, wallet); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if drift {
		s.logger.WithFields(logrus.Fields{
			"scope":          scope,
			"scope_id":       scopeID,
			"currency":       currency,
			"cached_balance": report.CachedBalance,
			"ledger_balance": report.LedgerBalance,
		}).Error("Ledger drift detected, wallet frozen")

		s.audit.Record(ctx, models.ActorSystem, "reconciliation", "wallet.drift_frozen", "wallet", fmt.Sprintf("%s/%s/%s", scope, scopeID, currency), map[string]interface{}{
			"cached_balance": report.CachedBalance,
			"ledger_balance": report.LedgerBalance,
			"cached_locked":  report.CachedLocked,
			"ledger_locked":  report.LedgerLocked,
		})
		s.publisher.LedgerDrift(events.DriftEvent{
			Scope:         string(scope),
			ScopeID:       scopeID,
			Currency:      currency,
			CachedBalance: report.CachedBalance,
			LedgerBalance: report.LedgerBalance,
			CachedLocked:  report.CachedLocked,
			LedgerLocked:  report.LedgerLocked,
		})
		return &report, models.ErrLedgerDrift
	}
	return &report, nil
}

// Run sweeps every wallet and lists APPROVED payouts that have sat
// undisbursed past the staleness window. Stale payouts are surfaced for an
// operator, never auto-released.
func (s *ReconciliationService) Run(ctx context.Context) (*RunReport, error) {
	wallets, err := s.store.ListWallets(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{CheckedAt: s.now()}
	for _, w := range wallets {
		wr, err := s.CheckWallet(ctx, w.Scope, w.ScopeID, w.Currency)
		if err != nil && !errors.Is(err, models.ErrLedgerDrift) {
			return nil, err
		}
		if wr.Drift {
			report.DriftCount++
		}
		report.Wallets = append(report.Wallets, *wr)
	}

	stale, err := s.store.ListApprovedPayoutsOlderThan(ctx, s.now().Add(-staleApprovedAfter))
	if err != nil {
		return nil, err
	}
	report.StalePayouts = stale

	s.logger.WithFields(logrus.Fields{
		"wallets":       len(report.Wallets),
		"drift":         report.DriftCount,
		"stale_payouts": len(stale),
	}).Info("Reconciliation run complete")
	return report, nil
}

// Unfreeze lifts a freeze once the ledger and cache agree again. Refuses
// while they still differ.
func (s *ReconciliationService) Unfreeze(ctx context.Context, scope models.Scope, scopeID, currency, operatorID string) (*models.Wallet, error) {
	var out *models.Wallet
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		wallet, err := tx.GetWalletForUpdate(ctx, scope, scopeID, currency)
		if err != nil {
			return err
		}
		if !wallet.Frozen {
			out = wallet
			return nil
		}
		balance, locked, err := tx.SumLedger(ctx, scope, scopeID, currency)
		if err != nil {
			return err
		}
		if wallet.Balance != balance || wallet.Locked != locked {
			return fmt.Errorf("cannot unfreeze, ledger still disagrees with cache: %w", models.ErrLedgerDrift)
		}
		wallet.Frozen = false
		wallet.FrozenAt = nil
		if err := tx.UpdateWallet(ctx, wallet); err != nil {
			return err
		}
		out = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActorAdmin, operatorID, "wallet.unfrozen", "wallet", fmt.Sprintf("%s/%s/%s", scope, scopeID, currency), nil)
	return out, nil
}
