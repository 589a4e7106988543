package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wallet-service/internal/models"
	"wallet-service/internal/repository"
)

// OrderService creates settlement intents and drives the one-way order
// status machine. The pivot amount and FX rate are frozen at creation so a
// later rate move never changes what the wallet is owed.
type OrderService struct {
	store  repository.Store
	fx     *FXService
	audit  *AuditService
	logger *logrus.Entry
}

func NewOrderService(store repository.Store, fx *FXService, audit *AuditService, logger *logrus.Logger) *OrderService {
	return &OrderService{
		store:  store,
		fx:     fx,
		audit:  audit,
		logger: logger.WithField("component", "orders"),
	}
}

// Create sums the lines in the native currency, converts once into the pivot
// currency, and persists the order with the conversion snapshot.
func (s *OrderService) Create(ctx context.Context, tenantID string, req *models.CreateOrderRequest) (*models.Order, error) {
	var native int64
	for _, line := range req.Lines {
		if line.Amount <= 0 {
			return nil, fmt.Errorf("order line amount must be positive, got %d", line.Amount)
		}
		native += line.Amount
	}

	currency := strings.ToUpper(req.Currency)
	pivot, rate, err := s.fx.ToPivot(ctx, currency, native)
	if err != nil {
		s.audit.Record(ctx, models.ActorUser, tenantID, "order.create_refused", "order", "", map[string]interface{}{
			"currency": currency,
			"native":   native,
			"error":    err.Error(),
		})
		return nil, err
	}

	order := &models.Order{
		TenantID:       tenantID,
		CustomerID:     req.CustomerID,
		Reference:      newOrderReference(),
		Currency:       currency,
		NativeAmount:   native,
		PivotAmount:    pivot,
		FXRateSnapshot: rate,
		Status:         models.OrderPending,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActorUser, tenantID, "order.created", "order", order.ID.String(), map[string]interface{}{
		"reference": order.Reference,
		"currency":  currency,
		"native":    native,
		"pivot":     pivot,
		"fx_rate":   rate,
	})
	s.logger.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"tenant_id": tenantID,
		"reference": order.Reference,
	}).Info("Order created")
	return order, nil
}

// Get returns an order only to its owning tenant; anyone else sees not found.
func (s *OrderService) Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.Order, error) {
	return s.store.ListOrdersByTenant(ctx, tenantID, limit, offset)
}

// Cancel moves a pending order to CANCELLED. Terminal orders stay put, and
// an order belonging to another tenant is indistinguishable from a missing one.
func (s *OrderService) Cancel(ctx context.Context, tenantID string, orderID uuid.UUID, actorID string) (*models.Order, error) {
	var out *models.Order
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.TenantID != tenantID {
			return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
		}
		if order.Status.Terminal() {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, models.ErrOrderAlreadyTerminal)
		}
		order.Status = models.OrderCancelled
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		s.audit.Record(ctx, models.ActorUser, actorID, "order.cancel_refused", "order", orderID.String(), map[string]interface{}{
			"tenant_id": tenantID,
			"error":     err.Error(),
		})
		return nil, err
	}
	s.audit.Record(ctx, models.ActorUser, actorID, "order.cancelled", "order", orderID.String(), nil)
	return out, nil
}

// transitionTx enforces the one-way machine inside a caller-held
// transaction: PENDING may move to any terminal state, nothing else moves.
func transitionOrderTx(ctx context.Context, tx repository.Store, order *models.Order, to models.OrderStatus) error {
	if order.Status.Terminal() {
		if order.Status == to {
			return models.ErrOrderAlreadyTerminal
		}
		return fmt.Errorf("order %s is already %s: %w", order.ID, order.Status, models.ErrInvalidOrderTransition)
	}
	if !to.Terminal() {
		return fmt.Errorf("order may only move to a terminal state, got %s: %w", to, models.ErrInvalidOrderTransition)
	}
	order.Status = to
	return tx.UpdateOrder(ctx, order)
}

func newOrderReference() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}
