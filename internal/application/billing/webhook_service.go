package billing

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/filehost/backend/internal/domain/shared"
	infrabilling "github.com/filehost/backend/internal/infrastructure/billing"
	"github.com/filehost/backend/internal/infrastructure/cache"
	"github.com/filehost/backend/internal/infrastructure/config"
)

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification or arrives without a signature header. The boundary maps it
// to a 400 so the provider retries delivery; no cache state is touched.
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "webhook signature verification failed")

// WebhookResult reports the outcome of processing one provider event
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// WebhookService verifies inbound provider events and invalidates the
// cache families the event affects. Event payloads are never trusted as
// state; the next aggregate read recomputes from a full scan.
type WebhookService struct {
	stripeCfg   *infrabilling.StripeConfig
	cache       *cache.TTLCache
	idempotency shared.IdempotencyStore
	cfg         config.BillingConfig
	logger      *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	stripeCfg *infrabilling.StripeConfig,
	ttlCache *cache.TTLCache,
	idempotency shared.IdempotencyStore,
	cfg config.BillingConfig,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		stripeCfg:   stripeCfg,
		cache:       ttlCache,
		idempotency: idempotency,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProcessEvent verifies the raw payload against its signature header,
// dedupes redelivered events, and routes the event type to the cache
// families it invalidates. Unhandled event types are acknowledged as
// no-ops so the provider stops retrying.
func (s *WebhookService) ProcessEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verifyEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	if event.ID != "" {
		fresh, err := s.idempotency.MarkProcessed(ctx, event.ID, s.cfg.WebhookIdempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			s.logger.Debug("Skipping redelivered webhook event",
				zap.String("event_id", event.ID))
			result.Duplicate = true
			result.Message = "Event already processed"
			return result, nil
		}
	}

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		s.cache.Delete(MetricsCacheKey)
		s.cache.Delete(PlanDistributionCacheKey)
		result.Processed = true

	case "invoice.payment_failed", "invoice.payment_succeeded":
		removed := s.cache.DeletePattern(FailedPaymentsCachePattern)
		s.cache.Delete(MetricsCacheKey)
		s.logger.Debug("Invalidated failed-payments cache family",
			zap.String("event_id", event.ID),
			zap.Int("keys_removed", removed))
		result.Processed = true

	default:
		result.Message = "Event type not handled"
	}

	s.logger.Info("Processed webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Bool("invalidated", result.Processed))
	return result, nil
}

// verifyEvent checks the signature over the exact raw bytes. An empty
// configured secret is a deliberate soft-pass that accepts the event
// unverified, for local development; it is logged loudly every time.
func (s *WebhookService) verifyEvent(payload []byte, signature string) (stripe.Event, error) {
	if s.stripeCfg.WebhookSecret == "" {
		s.logger.Warn("Webhook secret not configured, accepting event UNVERIFIED")
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, ErrInvalidSignature
		}
		return event, nil
	}

	if signature == "" {
		s.logger.Warn("Webhook request missing signature header")
		return stripe.Event{}, ErrInvalidSignature
	}

	event, err := webhook.ConstructEvent(payload, signature, s.stripeCfg.WebhookSecret)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed",
			zap.Error(err))
		return stripe.Event{}, ErrInvalidSignature
	}
	return event, nil
}
