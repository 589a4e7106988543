package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// WalletService owns balances and the ledger.
//
// Money invariants:
//   - no balance update without a ledger entry, appended first, in the
//     same transaction
//   - the ledger is append-only; the cached balance is a projection
//   - 0 <= locked <= balance at every commit point
//
// Serialization is per wallet key (scope, scope id, currency) via a row
// lock taken for the duration of the mutation transaction. Different
// wallets never contend.
type WalletService struct {
	store  repository.Store
	logger *logrus.Entry
}

func NewWalletService(store repository.Store, logger *logrus.Logger) *WalletService {
	return &WalletService{
		store:  store,
		logger: logger.WithField("component", "wallet"),
	}
}

// GetOrCreate returns the wallet for a key, creating a zero-balance row on
// first use.
func (s *WalletService) GetOrCreate(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	wallet, err := s.store.GetWallet(ctx, scope, scopeID, currency)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	wallet = &models.Wallet{Scope: scope, ScopeID: scopeID, Currency: currency}
	if err := s.store.CreateWallet(ctx, wallet); err != nil {
		// Lost a create race; the row exists now.
		if existing, getErr := s.store.GetWallet(ctx, scope, scopeID, currency); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) Get(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	return s.store.GetWallet(ctx, scope, scopeID, currency)
}

// Credit adds funds. Ref should carry the originating payment/order.
func (s *WalletService) Credit(ctx context.Context, scope models.Scope, scopeID, currency string, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	return s.apply(ctx, scope, scopeID, currency, models.LedgerCredit, amount, ref)
}

// Debit removes available funds; fails with ErrInsufficientFunds when the
// amount exceeds balance - locked.
func (s *WalletService) Debit(ctx context.Context, scope models.Scope, scopeID, currency string, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	return s.apply(ctx, scope, scopeID, currency, models.LedgerDebit, amount, ref)
}

// Lock reserves available funds for an in-flight payout.
func (s *WalletService) Lock(ctx context.Context, scope models.Scope, scopeID, currency string, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	return s.apply(ctx, scope, scopeID, currency, models.LedgerLock, amount, ref)
}

// Unlock releases a reservation; fails with ErrOverUnlock beyond the
// currently locked amount.
func (s *WalletService) Unlock(ctx context.Context, scope models.Scope, scopeID, currency string, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	return s.apply(ctx, scope, scopeID, currency, models.LedgerUnlock, amount, ref)
}

func (s *WalletService) apply(ctx context.Context, scope models.Scope, scopeID, currency string, typ models.LedgerEntryType, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	var out *models.Wallet
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		wallet, err := s.ApplyTx(ctx, tx, scope, scopeID, currency, typ, amount, ref)
		if err != nil {
			return err
		}
		out = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTx performs one ledger mutation inside an existing transaction so
// callers can compose it with their own writes (payout rows, order status).
// The wallet row lock is acquired here and held until the transaction ends.
func (s *WalletService) ApplyTx(ctx context.Context, tx repository.Store, scope models.Scope, scopeID, currency string, typ models.LedgerEntryType, amount int64, ref models.EntryRef) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger amount must be positive, got %d", amount)
	}

	wallet, err := tx.GetWalletForUpdate(ctx, scope, scopeID, currency)
	if errors.Is(err, models.ErrNotFound) {
		wallet = &models.Wallet{Scope: scope, ScopeID: scopeID, Currency: currency}
		if err := tx.CreateWallet(ctx, wallet); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		wallet, err = tx.GetWalletForUpdate(ctx, scope, scopeID, currency)
	}
	if err != nil {
		return nil, err
	}

	if wallet.Frozen {
		return nil, fmt.Errorf("wallet %s/%s/%s: %w", scope, scopeID, currency, models.ErrWalletFrozen)
	}

	switch typ {
	case models.LedgerDebit, models.LedgerLock:
		if amount > wallet.Available() {
			return nil, fmt.Errorf("%w: need %d, available %d", models.ErrInsufficientFunds, amount, wallet.Available())
		}
	case models.LedgerUnlock:
		if amount > wallet.Locked {
			return nil, fmt.Errorf("%w: unlock %d, locked %d", models.ErrOverUnlock, amount, wallet.Locked)
		}
	}

	entry := &models.LedgerEntry{
		Scope:            scope,
		ScopeID:          scopeID,
		Currency:         currency,
		Type:             typ,
		Amount:           amount,
		OriginalCurrency: ref.OriginalCurrency,
		OriginalAmount:   ref.OriginalAmount,
		FXRate:           ref.FXRate,
		OrderID:          ref.OrderID,
		PaymentID:        ref.PaymentID,
		PayoutID:         ref.PayoutID,
	}
	if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	switch typ {
	case models.LedgerCredit:
		wallet.Balance += amount
	case models.LedgerDebit:
		wallet.Balance -= amount
	case models.LedgerLock:
		wallet.Locked += amount
	case models.LedgerUnlock:
		wallet.Locked -= amount
	}
	if err := tx.UpdateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to update wallet projection: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"scope":    scope,
		"scope_id": scopeID,
		"currency": currency,
		"type":     typ,
		"amount":   amount,
	}).Debug("Ledger entry appended")

	return wallet, nil
}

// Replay recomputes (balance, locked) from the ledger alone.
func (s *WalletService) Replay(ctx context.Context, scope models.Scope, scopeID, currency string) (int64, int64, error) {
	return s.store.SumLedger(ctx, scope, scopeID, currency)
}

// Ledger returns the journal for one wallet in append order.
func (s *WalletService) Ledger(ctx context.Context, scope models.Scope, scopeID, currency string, limit, offset int) ([]models.LedgerEntry, error) {
	return s.store.ListLedgerEntries(ctx, scope, scopeID, currency, limit, offset)
}
