package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"wallet-service/internal/models"
)

func (s *gormStore) GetWalletForUpdate(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ? AND scope_id = ? AND currency = ?", scope, scopeID, currency).
		First(&wallet).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &wallet, nil
}

func (s *gormStore) GetWallet(ctx context.Context, scope models.Scope, scopeID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Where("scope = ? AND scope_id = ? AND currency = ?", scope, scopeID, currency).
		First(&wallet).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &wallet, nil
}

func (s *gormStore) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return s.db.WithContext(ctx).Create(wallet).Error
}

func (s *gormStore) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	wallet.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(wallet).Error
}

func (s *gormStore) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

func (s *gormStore) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// SumLedger derives (balance, locked) purely from ledger rows:
// balance = credits - debits, locked = locks - unlocks.
func (s *gormStore) SumLedger(ctx context.Context, scope models.Scope, scopeID, currency string) (int64, int64, error) {
	type sums struct {
		Balance int64
		Locked  int64
	}
	var out sums
	err := s.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select(`
			COALESCE(SUM(CASE type WHEN 'CREDIT' THEN amount WHEN 'DEBIT' THEN -amount ELSE 0 END), 0) AS balance,
			COALESCE(SUM(CASE type WHEN 'LOCK' THEN amount WHEN 'UNLOCK' THEN -amount ELSE 0 END), 0) AS locked`).
		Where("scope = ? AND scope_id = ? AND currency = ?", scope, scopeID, currency).
		Scan(&out).Error
	if err != nil {
		return 0, 0, err
	}
	return out.Balance, out.Locked, nil
}

func (s *gormStore) ListLedgerEntries(ctx context.Context, scope models.Scope, scopeID, currency string, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	q := s.db.WithContext(ctx).
		Where("scope = ? AND scope_id = ? AND currency = ?", scope, scopeID, currency).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormStore) ListLedgerEntriesByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
