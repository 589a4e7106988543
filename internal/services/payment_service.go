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

// PaymentService records provider payment attempts and settles them into the
// ledger. Settlement is idempotent on (provider, provider ref): replays of a
// capture credit the wallet exactly once.
type PaymentService struct {
	store       repository.Store
	wallets     *WalletService
	credentials *CredentialService
	audit       *AuditService
	publisher   *events.Publisher
	pivot       string
	logger      *logrus.Entry
}

func NewPaymentService(store repository.Store, wallets *WalletService, credentials *CredentialService, audit *AuditService, publisher *events.Publisher, pivotCurrency string, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		store:       store,
		wallets:     wallets,
		credentials: credentials,
		audit:       audit,
		publisher:   publisher,
		pivot:       pivotCurrency,
		logger:      logger.WithField("component", "payments"),
	}
}

// Create opens a payment attempt against a pending order. A second create
// with the same (provider, provider ref) returns the existing attempt.
func (s *PaymentService) Create(ctx context.Context, tenantID string, req *models.CreatePaymentRequest) (*models.Payment, error) {
	existing, err := s.store.GetPaymentByProviderRef(ctx, req.Provider, req.ProviderRef)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("order %s is %s: %w", order.ID, order.Status, models.ErrOrderAlreadyTerminal)
	}

	// The tenant must have a usable credential for this provider before an
	// attempt is opened; failing here beats failing at capture time.
	if _, err := s.credentials.ResolveCredential(ctx, tenantID, req.Provider); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		Provider:    req.Provider,
		Channel:     req.Channel,
		ProviderRef: req.ProviderRef,
		Status:      models.PaymentPending,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		// Lost a create race on the provider ref.
		if dup, getErr := s.store.GetPaymentByProviderRef(ctx, req.Provider, req.ProviderRef); getErr == nil {
			return dup, nil
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":   payment.ID,
		"order_id":     order.ID,
		"provider":     req.Provider,
		"provider_ref": req.ProviderRef,
	}).Info("Payment attempt opened")
	return payment, nil
}

// Get returns a payment only when its order belongs to the calling tenant;
// payments carry no tenant column, the order does.
func (s *PaymentService) Get(ctx context.Context, tenantID string, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, fmt.Errorf("payment %s: %w", paymentID, models.ErrNotFound)
	}
	return payment, nil
}

func (s *PaymentService) GetByProviderRef(ctx context.Context, provider models.ProviderType, providerRef string) (*models.Payment, error) {
	return s.store.GetPaymentByProviderRef(ctx, provider, providerRef)
}

// Complete settles a captured payment: exactly one wallet CREDIT, order to
// PAID, payment to COMPLETED, all in one transaction. Replays against an
// already-completed payment or an already-terminal order are successful
// no-ops with no second credit.
//
// A FAILED payment may still complete; the provider's capture confirmation
// outranks an earlier failure signal.
func (s *PaymentService) Complete(ctx context.Context, paymentID uuid.UUID, rawPayload map[string]interface{}) (*models.Payment, error) {
	var (
		out      *models.Payment
		settled  bool
		tenantID string
		pivotAmt int64
	)

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		payment, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentCompleted {
			out = payment
			return nil
		}

		order, err := tx.GetOrderForUpdate(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		tenantID = order.TenantID
		pivotAmt = order.PivotAmount

		if rawPayload != nil {
			if raw, marshalErr := json.Marshal(rawPayload); marshalErr == nil {
				payment.RawPayload = raw
			}
		}

		if order.Status.Terminal() {
			// Another attempt already settled (or cancelled) this order.
			// Record the completion without touching the wallet again.
			now := time.Now().UTC()
			payment.Status = models.PaymentCompleted
			payment.CompletedAt = &now
			if err := tx.UpdatePayment(ctx, payment); err != nil {
				return err
			}
			out = payment
			return nil
		}

		ref := models.EntryRef{
			OriginalCurrency: order.Currency,
			OriginalAmount:   order.NativeAmount,
			FXRate:           order.FXRateSnapshot,
			OrderID:          &order.ID,
			PaymentID:        &payment.ID,
		}
		if _, err := s.wallets.ApplyTx(ctx, tx, models.ScopeTenant, order.TenantID, s.pivot, models.LedgerCredit, order.PivotAmount, ref); err != nil {
			return err
		}

		if err := transitionOrderTx(ctx, tx, order, models.OrderPaid); err != nil {
			return err
		}

		now := time.Now().UTC()
		payment.Status = models.PaymentCompleted
		payment.CompletedAt = &now
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		out = payment
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		s.audit.Record(ctx, models.ActorProvider, string(out.Provider), "payment.completed", "payment", out.ID.String(), map[string]interface{}{
			"order_id":     out.OrderID,
			"provider_ref": out.ProviderRef,
			"pivot_amount": pivotAmt,
		})
		s.publisher.PaymentCompleted(events.PaymentEvent{
			TenantID:    tenantID,
			PaymentID:   out.ID.String(),
			OrderID:     out.OrderID.String(),
			Provider:    string(out.Provider),
			PivotAmount: pivotAmt,
			Currency:    s.pivot,
		})
		s.logger.WithFields(logrus.Fields{
			"payment_id": out.ID,
			"order_id":   out.OrderID,
			"amount":     pivotAmt,
		}).Info("Payment settled")
	}
	return out, nil
}

// Fail marks a pending payment attempt FAILED and, when it was the order's
// only open attempt, moves the order to FAILED. Completed payments never
// regress.
func (s *PaymentService) Fail(ctx context.Context, paymentID uuid.UUID, note string) (*models.Payment, error) {
	var (
		out      *models.Payment
		tenantID string
	)
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		payment, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentCompleted {
			out = payment
			return nil
		}
		if payment.Status == models.PaymentFailed {
			out = payment
			return nil
		}

		order, err := tx.GetOrderForUpdate(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		tenantID = order.TenantID

		now := time.Now().UTC()
		payment.Status = models.PaymentFailed
		payment.FailedAt = &now
		payment.FailureNote = note
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		if !order.Status.Terminal() {
			open, err := tx.ListPaymentsByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			anyOpen := false
			for _, p := range open {
				if p.ID != payment.ID && p.Status == models.PaymentPending {
					anyOpen = true
					break
				}
			}
			if !anyOpen {
				if err := transitionOrderTx(ctx, tx, order, models.OrderFailed); err != nil {
					return err
				}
			}
		}

		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Status == models.PaymentFailed {
		s.publisher.PaymentFailed(events.PaymentEvent{
			TenantID:  tenantID,
			PaymentID: out.ID.String(),
			OrderID:   out.OrderID.String(),
			Provider:  string(out.Provider),
			Reason:    note,
		})
	}
	return out, nil
}

func (s *PaymentService) ListByOrder(ctx context.Context, tenantID string, orderID uuid.UUID) ([]models.Payment, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	return s.store.ListPaymentsByOrder(ctx, orderID)
}
