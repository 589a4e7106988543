package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-service/internal/models"
	"wallet-service/internal/provider"
	"wallet-service/internal/repository"
)

// WebhookService ingests provider callbacks: verify the signature, dedupe on
// (provider, event id), then settle or fail the referenced payment. A replay
// of a processed event is acknowledged without side effects; a processing
// failure is returned so the provider retries.
type WebhookService struct {
	store       repository.Store
	factory     *provider.Factory
	credentials *CredentialService
	payments    *PaymentService
	audit       *AuditService
	logger      *logrus.Entry
}

func NewWebhookService(store repository.Store, factory *provider.Factory, credentials *CredentialService, payments *PaymentService, audit *AuditService, logger *logrus.Logger) *WebhookService {
	return &WebhookService{
		store:       store,
		factory:     factory,
		credentials: credentials,
		payments:    payments,
		audit:       audit,
		logger:      logger.WithField("component", "webhooks"),
	}
}

// Receive handles one raw webhook delivery. tenantHint is empty for the
// platform endpoint and carries the tenant id on per-tenant endpoints.
func (s *WebhookService) Receive(ctx context.Context, providerType models.ProviderType, tenantHint string, body []byte, signature string) error {
	adapter, err := s.factory.Get(providerType)
	if err != nil {
		return err
	}

	cred, err := s.credentials.ResolveWebhookCredential(ctx, tenantHint, providerType)
	if err != nil {
		return err
	}

	var payload map[string]interface{}
	if cred.Payload != nil {
		if err := json.Unmarshal(cred.Payload, &payload); err != nil {
			return fmt.Errorf("corrupt credential payload: %w", err)
		}
	}
	creds := provider.Credentials{Payload: payload, WebhookSecret: cred.WebhookSecret}

	// An unauthenticated body must leave zero trace: no event row, no
	// payment mutation. Log and reject.
	if err := adapter.VerifySignature(creds, body, signature); err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider":    providerType,
			"tenant_hint": tenantHint,
		}).Warn("Webhook signature verification failed")
		return fmt.Errorf("%s webhook: %w", providerType, models.ErrSignatureInvalid)
	}

	event, err := adapter.ParseEvent(body)
	if err != nil {
		return fmt.Errorf("failed to parse %s webhook: %w", providerType, err)
	}
	// An empty id would make every such event share one dedup key, so the
	// first one processed would swallow all the rest.
	if event.ID == "" {
		return fmt.Errorf("%s webhook event has no event id", providerType)
	}

	existing, err := s.store.GetWebhookEvent(ctx, providerType, event.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if existing != nil && existing.Processed {
		s.logger.WithFields(logrus.Fields{
			"provider": providerType,
			"event_id": event.ID,
		}).Debug("Duplicate webhook event acknowledged")
		return nil
	}

	record := existing
	if record == nil {
		record = &models.WebhookEvent{
			Provider:  providerType,
			EventID:   event.ID,
			EventType: string(event.Kind),
			Payload:   body,
		}
		if err := s.store.CreateWebhookEvent(ctx, record); err != nil {
			// Concurrent delivery of the same event; re-read its state.
			dup, getErr := s.store.GetWebhookEvent(ctx, providerType, event.ID)
			if getErr != nil {
				return err
			}
			if dup.Processed {
				return nil
			}
			record = dup
		}
	}

	if procErr := s.dispatch(ctx, providerType, event); procErr != nil {
		record.ProcessingError = procErr.Error()
		record.RetryCount++
		if err := s.store.UpdateWebhookEvent(ctx, record); err != nil {
			s.logger.WithError(err).Error("Failed to record webhook processing error")
		}
		return procErr
	}

	now := time.Now().UTC()
	record.Processed = true
	record.ProcessedAt = &now
	record.ProcessingError = ""
	if err := s.store.UpdateWebhookEvent(ctx, record); err != nil {
		s.logger.WithError(err).Error("Failed to mark webhook event processed")
	}

	s.audit.Record(ctx, models.ActorProvider, string(providerType), "webhook.processed", "webhook_event", record.ID.String(), map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Kind,
	})
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, providerType models.ProviderType, event *provider.Event) error {
	switch event.Kind {
	case provider.EventPaymentCaptured, provider.EventPaymentFailed:
	default:
		// Unknown kinds are stored and acknowledged so providers stop
		// retrying events this service does not act on.
		s.logger.WithField("event_id", event.ID).Debug("Ignoring webhook event kind")
		return nil
	}

	payment, err := s.payments.GetByProviderRef(ctx, providerType, event.ProviderRef)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("no payment for provider ref %s: %w", event.ProviderRef, err)
	}
	if err != nil {
		return err
	}

	switch event.Kind {
	case provider.EventPaymentCaptured:
		var raw map[string]interface{}
		_ = json.Unmarshal(event.Raw, &raw)
		_, err = s.payments.Complete(ctx, payment.ID, raw)
	case provider.EventPaymentFailed:
		_, err = s.payments.Fail(ctx, payment.ID, "provider reported failure")
	}
	return err
}
