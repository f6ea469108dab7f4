package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

const (
	maxWebhookBody = 1 << 20
	// StripeSignatureHeader carries the timestamped HMAC of the payload.
	StripeSignatureHeader = "Stripe-Signature"
)

// WebhookServiceInterface processes verified payment webhook deliveries.
type WebhookServiceInterface interface {
	Process(ctx context.Context, payload []byte, sigHeader string) (string, error)
}

// WebhookHandlers receives payment provider webhooks.
type WebhookHandlers struct {
	Svc    WebhookServiceInterface
	Logger *slog.Logger
}

// Stripe verifies and processes a payment event.
// POST /api/webhooks/stripe.
func (h *WebhookHandlers) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "payload_too_large", Err: errors.New("request body too large")})
		return
	}

	status, err := h.Svc.Process(r.Context(), payload, r.Header.Get(StripeSignatureHeader))
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		h.logger().WarnContext(r.Context(), "webhook signature rejected", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_signature", Err: service.ErrInvalidSignature})
		return
	case err != nil:
		h.logger().ErrorContext(r.Context(), "webhook processing failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errors.New("internal server error")})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"received": true, "status": status})
}

func (h *WebhookHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
