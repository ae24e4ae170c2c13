package service

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
	"github.com/osvaldobrewjaria/fazumclube/pkg/payment"
)

// Webhook processing outcomes, used as metric labels
const (
	webhookProcessed = "processed"
	webhookDuplicate = "duplicate"
	webhookIgnored   = "ignored"
	webhookFailed    = "failed"
)

type WebhookService struct {
	gateway       payment.Gateway
	events        repository.WebhookEventRepository
	subscriptions *SubscriptionService
	metrics       *metrics.Collector
	logger        *zap.Logger
}

func NewWebhookService(
	gateway payment.Gateway,
	events repository.WebhookEventRepository,
	subscriptions *SubscriptionService,
	collector *metrics.Collector,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:       gateway,
		events:        events,
		subscriptions: subscriptions,
		metrics:       collector,
		logger:        logger.Named("webhook"),
	}
}

// Verify checks the signature and decodes the event. It is the only step
// whose failure is reported back to the gateway.
func (s *WebhookService) Verify(payload []byte, signature string) (*domain.WebhookEvent, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.RecordWebhookEvent("unknown", "rejected")
		return nil, errors.BadRequestf("invalid webhook: %v", err)
	}
	return event, nil
}

// Process handles a verified event once. Failures are logged and stored on
// the event record; they never propagate to the caller.
func (s *WebhookService) Process(ctx context.Context, event *domain.WebhookEvent) {
	log := s.logger.With(zap.String("event_id", event.ID), zap.String("type", event.Type))

	claimed, err := s.events.Record(ctx, event.ID, event.Type)
	if err != nil {
		log.Error("recording webhook event", zap.Error(err))
		s.metrics.RecordWebhookEvent(event.Kind.String(), webhookFailed)
		return
	}
	if !claimed {
		log.Info("duplicate webhook event skipped")
		s.metrics.RecordWebhookEvent(event.Kind.String(), webhookDuplicate)
		return
	}

	outcome := webhookProcessed
	procErr := s.dispatch(ctx, event)
	switch {
	case procErr != nil:
		outcome = webhookFailed
		log.Error("processing webhook event", zap.Error(procErr))
	case event.Kind == domain.WebhookIgnored:
		outcome = webhookIgnored
	}

	if err := s.events.MarkProcessed(ctx, event.ID, procErr); err != nil {
		log.Error("marking webhook event", zap.Error(err))
	}
	s.metrics.RecordWebhookEvent(event.Kind.String(), outcome)
}

func (s *WebhookService) dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	switch event.Kind {
	case domain.WebhookCheckoutCompleted:
		return s.subscriptions.ReconcileCheckoutCompleted(ctx, event.ObjectID)
	case domain.WebhookPaymentSucceeded:
		return s.subscriptions.ReconcilePaymentSucceeded(ctx, event.ObjectID)
	case domain.WebhookPaymentFailed:
		return s.subscriptions.ReconcilePaymentFailed(ctx, event.ObjectID)
	case domain.WebhookSubscriptionDeleted:
		return s.subscriptions.ReconcileSubscriptionDeleted(ctx, event.ObjectID)
	case domain.WebhookIgnored:
		return nil
	}
	return errors.NotSupportedf("webhook kind %d", event.Kind)
}
