package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/stripe/stripe-go/v82/webhook"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/metrics"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

const (
	// DefaultSignatureTolerance bounds the age of a signed webhook timestamp.
	DefaultSignatureTolerance = 5 * time.Minute
	// DefaultEventDedupeTTL is how long delivered event ids are remembered.
	DefaultEventDedupeTTL = 72 * time.Hour
)

// ErrInvalidSignature is returned when the signature header does not match the payload.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Webhook outcomes reported back to the HTTP layer. Every outcome is acknowledged.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"

	webhookRejected = "rejected"
)

// PaymentEventHandler reacts to one event type. summary holds the fields
// extracted for that type.
type PaymentEventHandler func(ctx context.Context, evt model.PaymentEvent, summary map[string]any) error

// summaryFields are JMESPath expressions evaluated against the event envelope.
var summaryFields = map[model.PaymentEventType]map[string]string{
	model.PaymentIntentSucceeded: {
		"object_id": "data.object.id",
		"amount":    "data.object.amount_received",
		"currency":  "data.object.currency",
		"customer":  "data.object.customer",
		"user_id":   "data.object.metadata.user_id",
	},
	model.PaymentIntentFailed: {
		"object_id": "data.object.id",
		"amount":    "data.object.amount",
		"currency":  "data.object.currency",
		"error":     "data.object.last_payment_error.message",
		"user_id":   "data.object.metadata.user_id",
	},
	model.ChargeSucceeded: {
		"object_id":      "data.object.id",
		"amount":         "data.object.amount",
		"currency":       "data.object.currency",
		"payment_intent": "data.object.payment_intent",
	},
}

// PaymentWebhookOptions groups dependencies for PaymentWebhookService.
type PaymentWebhookOptions struct {
	Secret    string
	Deduper   ports.EventDeduper // optional; nil disables redelivery detection
	Clock     ports.Clock
	Logger    *slog.Logger
	Metrics   statsd.Sink // optional
	Tolerance time.Duration
}

// PaymentWebhookService verifies and dispatches signed payment webhooks.
// It never touches sessions or roles.
type PaymentWebhookService struct {
	secret    string
	deduper   ports.EventDeduper
	now       func() time.Time
	logger    *slog.Logger
	metrics   statsd.Sink
	tolerance time.Duration
	handlers  map[model.PaymentEventType]PaymentEventHandler
}

// NewPaymentWebhookService builds the service. A missing secret is a configuration error.
func NewPaymentWebhookService(opts PaymentWebhookOptions) (*PaymentWebhookService, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, fmt.Errorf("%w: webhook secret is not set", domainauth.ErrConfiguration)
	}
	for typ, fields := range summaryFields {
		for name, expr := range fields {
			if _, err := jmespath.Compile(expr); err != nil {
				return nil, fmt.Errorf("compile summary %s.%s: %w", typ, name, err)
			}
		}
	}

	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}

	s := &PaymentWebhookService{
		secret:    opts.Secret,
		deduper:   opts.Deduper,
		now:       now,
		logger:    logger.With("component", "payment_webhook"),
		metrics:   opts.Metrics,
		tolerance: tolerance,
	}
	s.handlers = map[model.PaymentEventType]PaymentEventHandler{
		model.PaymentIntentSucceeded: s.logEvent("payment succeeded", slog.LevelInfo),
		model.PaymentIntentFailed:    s.logEvent("payment failed", slog.LevelWarn),
		model.ChargeSucceeded:        s.logEvent("charge succeeded", slog.LevelInfo),
	}
	return s, nil
}

// Handle replaces the handler for an event type. Not safe to call concurrently with Process.
func (s *PaymentWebhookService) Handle(typ model.PaymentEventType, h PaymentEventHandler) {
	s.handlers[typ] = h
}

// Process verifies the signature over the raw payload, then parses and
// dispatches the event. Only signature problems are returned as errors;
// every other outcome, a signed but unusable envelope included, is
// reported and should be acknowledged.
func (s *PaymentWebhookService) Process(ctx context.Context, payload []byte, sigHeader string) (string, error) {
	start := s.now()
	typ, status, err := s.process(ctx, payload, sigHeader)
	m := metrics.WebhookMetric{EventType: string(typ), Status: status, Duration: s.now().Sub(start)}
	if err != nil {
		m.Status = webhookRejected
	}
	metrics.EmitWebhook(s.metrics, m)
	return status, err
}

func (s *PaymentWebhookService) process(
	ctx context.Context,
	payload []byte,
	sigHeader string,
) (model.PaymentEventType, string, error) {
	if err := s.VerifySignature(payload, sigHeader); err != nil {
		return "", "", err
	}

	var evt model.PaymentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		s.logger.WarnContext(ctx, "malformed event acknowledged", "error", err)
		return "", WebhookIgnored, nil
	}
	if evt.ID == "" || evt.Type == "" {
		s.logger.WarnContext(ctx, "event without id or type acknowledged", "event_id", evt.ID)
		return evt.Type, WebhookIgnored, nil
	}
	log := s.logger.With("event_id", evt.ID, "event_type", evt.Type)

	recorded := false
	if s.deduper != nil {
		first, err := s.deduper.FirstSeen(ctx, evt.ID, DefaultEventDedupeTTL)
		switch {
		case err != nil:
			log.WarnContext(ctx, "event dedupe unavailable, processing anyway", "error", err)
		case !first:
			log.InfoContext(ctx, "duplicate event acknowledged")
			return evt.Type, WebhookDuplicate, nil
		default:
			recorded = true
		}
	}

	h, ok := s.handlers[evt.Type]
	if !ok {
		log.InfoContext(ctx, "unhandled event type acknowledged")
		return evt.Type, WebhookIgnored, nil
	}
	if err := h(ctx, evt, s.summarize(ctx, evt, payload)); err != nil {
		log.ErrorContext(ctx, "event handler failed", "error", err)
		// a resend of a failed event must not be swallowed as a duplicate
		if recorded {
			if fErr := s.deduper.Forget(ctx, evt.ID); fErr != nil {
				log.WarnContext(ctx, "forget failed event", "error", fErr)
			}
		}
		return evt.Type, WebhookFailed, nil
	}
	return evt.Type, WebhookProcessed, nil
}

func (s *PaymentWebhookService) summarize(ctx context.Context, evt model.PaymentEvent, payload []byte) map[string]any {
	fields := summaryFields[evt.Type]
	out := make(map[string]any, len(fields))
	if len(fields) == 0 {
		return out
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return out
	}
	for name, expr := range fields {
		v, err := jmespath.Search(expr, doc)
		if err != nil {
			s.logger.DebugContext(ctx, "summary field failed", "field", name, "error", err)
			continue
		}
		if v != nil {
			out[name] = v
		}
	}
	return out
}

func (s *PaymentWebhookService) logEvent(msg string, level slog.Level) PaymentEventHandler {
	return func(ctx context.Context, evt model.PaymentEvent, summary map[string]any) error {
		attrs := []any{"event_id", evt.ID, "created_at", evt.CreatedAt(), "livemode", evt.Livemode}
		for k, v := range summary {
			attrs = append(attrs, k, v)
		}
		s.logger.Log(ctx, level, msg, attrs...)
		return nil
	}
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header against payload.
// Any v1 entry may match; timestamps older than the tolerance are rejected.
func (s *PaymentWebhookService) VerifySignature(payload []byte, header string) error {
	if err := webhook.ValidatePayloadWithTolerance(payload, header, s.secret, s.tolerance); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return nil
}

// SignatureHeader builds a signature header for payload at ts. Used by
// tooling and tests to produce deliveries the service accepts.
func SignatureHeader(secret string, ts time.Time, payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	}).Header
}
