package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wallet-service/internal/events"
	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// PayoutService drives the payout state machine
// (PENDING -> APPROVED/REJECTED, APPROVED -> PAID) and keeps the wallet's
// locked amount in step with it. Funds lock at request time, release on
// rejection, and convert to a debit when the payout is confirmed paid.
type PayoutService struct {
	store     repository.Store
	wallets   *WalletService
	tenant    *TenantModeService
	audit     *AuditService
	publisher *events.Publisher
	pivot     string
	logger    *logrus.Entry
	now       func() time.Time
}

func NewPayoutService(store repository.Store, wallets *WalletService, tenant *TenantModeService, audit *AuditService, publisher *events.Publisher, pivotCurrency string, logger *logrus.Logger) *PayoutService {
	return &PayoutService{
		store:     store,
		wallets:   wallets,
		tenant:    tenant,
		audit:     audit,
		publisher: publisher,
		pivot:     pivotCurrency,
		logger:    logger.WithField("component", "payouts"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Request locks the requested amount and creates a PENDING payout. The daily
// cap counts every request the tenant created this UTC day, whatever became
// of it, so a reject-and-retry loop cannot stretch the limit. Cap and funds
// checks happen before anything is written; a refusal leaves no trace beyond
// the audit trail.
func (s *PayoutService) Request(ctx context.Context, tenantID, requesterID string, req *models.CreatePayoutRequest) (*models.PayoutRequest, error) {
	config, err := s.tenant.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var details []byte
	if req.ChannelDetails != nil {
		details, err = json.Marshal(req.ChannelDetails)
		if err != nil {
			return nil, fmt.Errorf("invalid channel details: %w", err)
		}
	}

	payout := &models.PayoutRequest{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Amount:         req.Amount,
		Currency:       s.pivot,
		Channel:        req.Channel,
		ChannelDetails: details,
		Status:         models.PayoutPending,
		RequesterID:    requesterID,
	}

	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		// Serialize on the wallet row before reading the day total; two
		// concurrent requests must not both pass the cap on a stale sum.
		// A missing wallet has no funds and fails at the lock below anyway.
		if _, err := tx.GetWalletForUpdate(ctx, models.ScopeTenant, tenantID, s.pivot); err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}

		dayStart := s.dayStart()
		requested, err := tx.SumPayoutsRequestedSince(ctx, tenantID, dayStart)
		if err != nil {
			return err
		}
		if requested+req.Amount > config.DailyPayoutLimit {
			return fmt.Errorf("%w: requested %d today, limit %d", models.ErrDailyLimitExceeded, requested+req.Amount, config.DailyPayoutLimit)
		}

		ref := models.EntryRef{PayoutID: &payout.ID}
		if _, err := s.wallets.ApplyTx(ctx, tx, models.ScopeTenant, tenantID, s.pivot, models.LedgerLock, req.Amount, ref); err != nil {
			return err
		}
		return tx.CreatePayout(ctx, payout)
	})
	if err != nil {
		s.audit.Record(ctx, models.ActorUser, requesterID, "payout.request_refused", "payout", payout.ID.String(), map[string]interface{}{
			"tenant_id": tenantID,
			"amount":    req.Amount,
			"error":     err.Error(),
		})
		return nil, err
	}

	s.audit.Record(ctx, models.ActorUser, requesterID, "payout.requested", "payout", payout.ID.String(), map[string]interface{}{
		"tenant_id": tenantID,
		"amount":    req.Amount,
		"channel":   req.Channel,
	})
	s.publisher.PayoutRequested(events.PayoutEvent{
		TenantID: tenantID,
		PayoutID: payout.ID.String(),
		Amount:   payout.Amount,
		Currency: payout.Currency,
		Status:   string(payout.Status),
		Channel:  string(payout.Channel),
	})
	s.logger.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"tenant_id": tenantID,
		"amount":    req.Amount,
	}).Info("Payout requested, funds locked")
	return payout, nil
}

// Review approves or rejects a pending payout. Rejection releases the lock
// in the same transaction that flips the status.
func (s *PayoutService) Review(ctx context.Context, payoutID uuid.UUID, reviewerID string, approve bool, notes string) (*models.PayoutRequest, error) {
	var out *models.PayoutRequest
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		payout, err := tx.GetPayoutForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutPending {
			return fmt.Errorf("payout %s is %s: %w", payoutID, payout.Status, models.ErrInvalidPayoutTransition)
		}

		now := s.now()
		payout.ReviewerID = reviewerID
		payout.Notes = notes
		payout.ReviewedAt = &now
		if approve {
			payout.Status = models.PayoutApproved
		} else {
			payout.Status = models.PayoutRejected
			ref := models.EntryRef{PayoutID: &payout.ID}
			if _, err := s.wallets.ApplyTx(ctx, tx, models.ScopeTenant, payout.TenantID, s.pivot, models.LedgerUnlock, payout.Amount, ref); err != nil {
				return err
			}
		}
		if err := tx.UpdatePayout(ctx, payout); err != nil {
			return err
		}
		out = payout
		return nil
	})
	if err != nil {
		s.audit.Record(ctx, models.ActorAdmin, reviewerID, "payout.review_refused", "payout", payoutID.String(), map[string]interface{}{
			"approve": approve,
			"error":   err.Error(),
		})
		return nil, err
	}

	action := "payout.rejected"
	if approve {
		action = "payout.approved"
	}
	s.audit.Record(ctx, models.ActorAdmin, reviewerID, action, "payout", payoutID.String(), map[string]interface{}{
		"tenant_id": out.TenantID,
		"amount":    out.Amount,
		"notes":     notes,
	})
	s.publisher.PayoutReviewed(events.PayoutEvent{
		TenantID: out.TenantID,
		PayoutID: out.ID.String(),
		Amount:   out.Amount,
		Currency: out.Currency,
		Status:   string(out.Status),
	})
	return out, nil
}

// MarkPaid records external disbursement of an approved payout: the lock is
// released and the same amount debited, in one transaction, so the balance
// drops exactly once.
func (s *PayoutService) MarkPaid(ctx context.Context, payoutID uuid.UUID, operatorID, evidenceRef string) (*models.PayoutRequest, error) {
	var out *models.PayoutRequest
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		payout, err := tx.GetPayoutForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutApproved {
			return fmt.Errorf("payout %s is %s: %w", payoutID, payout.Status, models.ErrInvalidPayoutTransition)
		}

		ref := models.EntryRef{PayoutID: &payout.ID}
		if _, err := s.wallets.ApplyTx(ctx, tx, models.ScopeTenant, payout.TenantID, s.pivot, models.LedgerUnlock, payout.Amount, ref); err != nil {
			return err
		}
		if _, err := s.wallets.ApplyTx(ctx, tx, models.ScopeTenant, payout.TenantID, s.pivot, models.LedgerDebit, payout.Amount, ref); err != nil {
			return err
		}

		now := s.now()
		payout.Status = models.PayoutPaid
		payout.EvidenceRef = evidenceRef
		payout.PaidAt = &now
		if err := tx.UpdatePayout(ctx, payout); err != nil {
			return err
		}
		out = payout
		return nil
	})
	if err != nil {
		s.audit.Record(ctx, models.ActorAdmin, operatorID, "payout.mark_paid_refused", "payout", payoutID.String(), map[string]interface{}{
			"evidence_ref": evidenceRef,
			"error":        err.Error(),
		})
		return nil, err
	}

	s.audit.Record(ctx, models.ActorAdmin, operatorID, "payout.paid", "payout", payoutID.String(), map[string]interface{}{
		"tenant_id":    out.TenantID,
		"amount":       out.Amount,
		"evidence_ref": evidenceRef,
	})
	s.publisher.PayoutPaid(events.PayoutEvent{
		TenantID: out.TenantID,
		PayoutID: out.ID.String(),
		Amount:   out.Amount,
		Currency: out.Currency,
		Status:   string(out.Status),
	})
	s.logger.WithFields(logrus.Fields{
		"payout_id": payoutID,
		"amount":    out.Amount,
	}).Info("Payout disbursed")
	return out, nil
}

// Get returns a payout only to its owning tenant; anyone else sees not found.
func (s *PayoutService) Get(ctx context.Context, tenantID string, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	payout, err := s.store.GetPayout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.TenantID != tenantID {
		return nil, fmt.Errorf("payout %s: %w", payoutID, models.ErrNotFound)
	}
	return payout, nil
}

func (s *PayoutService) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.PayoutRequest, error) {
	return s.store.ListPayoutsByTenant(ctx, tenantID, limit, offset)
}

func (s *PayoutService) dayStart() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
