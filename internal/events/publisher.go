package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects published by the wallet service.
const (
	SubjectPaymentCompleted = "wallet.payment.completed"
	SubjectPaymentFailed    = "wallet.payment.failed"
	SubjectPayoutRequested  = "wallet.payout.requested"
	SubjectPayoutReviewed   = "wallet.payout.reviewed"
	SubjectPayoutPaid       = "wallet.payout.paid"
	SubjectLedgerDrift      = "wallet.ledger.drift"
)

// Publisher emits domain events on NATS. A nil Publisher is valid and drops
// every event, so callers never need to guard their publish calls.
type Publisher struct {
	nc     *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS. Connection failure is returned to the
// caller; the service runs fine without events.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("wallet-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		nc:     nc,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

func (p *Publisher) publish(subject string, payload interface{}) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to marshal event")
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}

// PaymentEvent is the payload for payment lifecycle subjects.
type PaymentEvent struct {
	TenantID    string `json:"tenantId"`
	PaymentID   string `json:"paymentId"`
	OrderID     string `json:"orderId"`
	Provider    string `json:"provider"`
	PivotAmount int64  `json:"pivotAmount"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
}

// PayoutEvent is the payload for payout lifecycle subjects.
type PayoutEvent struct {
	TenantID string `json:"tenantId"`
	PayoutID string `json:"payoutId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Channel  string `json:"channel,omitempty"`
}

// DriftEvent is the payload for ledger drift alerts.
type DriftEvent struct {
	Scope         string `json:"scope"`
	ScopeID       string `json:"scopeId"`
	Currency      string `json:"currency"`
	CachedBalance int64  `json:"cachedBalance"`
	LedgerBalance int64  `json:"ledgerBalance"`
	CachedLocked  int64  `json:"cachedLocked"`
	LedgerLocked  int64  `json:"ledgerLocked"`
}

func (p *Publisher) PaymentCompleted(ev PaymentEvent) { p.publish(SubjectPaymentCompleted, ev) }
func (p *Publisher) PaymentFailed(ev PaymentEvent)    { p.publish(SubjectPaymentFailed, ev) }
func (p *Publisher) PayoutRequested(ev PayoutEvent)   { p.publish(SubjectPayoutRequested, ev) }
func (p *Publisher) PayoutReviewed(ev PayoutEvent)    { p.publish(SubjectPayoutReviewed, ev) }
func (p *Publisher) PayoutPaid(ev PayoutEvent)        { p.publish(SubjectPayoutPaid, ev) }
func (p *Publisher) LedgerDrift(ev DriftEvent)        { p.publish(SubjectLedgerDrift, ev) }
