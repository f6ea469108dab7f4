package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoohoo-guru/yoohoo-api/internal/data"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	authmocks "github.com/yoohoo-guru/yoohoo-api/internal/mocks/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

const webhookSecret = "whsec_http_test"

const chargePayload = `{"id":"evt_http_1","type":"charge.succeeded","created":1740830400,"data":{"object":{"id":"ch_1","amount":1500,"currency":"usd"}}}`

func newWebhookHandlers(t *testing.T) (*WebhookHandlers, *service.PaymentWebhookService) {
	t.Helper()
	svc, err := service.NewPaymentWebhookService(service.PaymentWebhookOptions{
		Secret:  webhookSecret,
		Deduper: authmocks.NewMemoryDeduper(),
		Clock:   data.NewFixedTimeProvider(testNow),
	})
	require.NoError(t, err)
	return &WebhookHandlers{Svc: svc}, svc
}

func webhookRequest(payload, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set(StripeSignatureHeader, sig)
	}
	return req
}

func TestWebhookHandlers_Stripe(t *testing.T) {
	h, svc := newWebhookHandlers(t)
	var handled int
	svc.Handle(model.ChargeSucceeded, func(context.Context, model.PaymentEvent, map[string]any) error {
		handled++
		return nil
	})
	sig := service.SignatureHeader(webhookSecret, time.Now(), []byte(chargePayload))

	rec := httptest.NewRecorder()
	h.Stripe(rec, webhookRequest(chargePayload, sig))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, service.WebhookProcessed, body["status"])

	// redelivery is acknowledged but not handled twice
	rec = httptest.NewRecorder()
	h.Stripe(rec, webhookRequest(chargePayload, sig))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.WebhookDuplicate, decodeBody(t, rec)["status"])
	assert.Equal(t, 1, handled)
}

func TestWebhookHandlers_RejectsBadSignature(t *testing.T) {
	h, _ := newWebhookHandlers(t)
	wrong := service.SignatureHeader("whsec_other", time.Now(), []byte(chargePayload))

	for name, sig := range map[string]string{"missing": "", "wrong secret": wrong, "garbage": "t=abc,v1=zz"} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Stripe(rec, webhookRequest(chargePayload, sig))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_signature", decodeBody(t, rec)["error"])
		})
	}
}

func TestWebhookHandlers_UnknownTypeAcknowledged(t *testing.T) {
	h, _ := newWebhookHandlers(t)
	payload := `{"id":"evt_2","type":"customer.created","created":1740830400,"data":{}}`

	rec := httptest.NewRecorder()
	h.Stripe(rec, webhookRequest(payload, service.SignatureHeader(webhookSecret, time.Now(), []byte(payload))))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.WebhookIgnored, decodeBody(t, rec)["status"])
}

func TestWebhookHandlers_MalformedEventAcknowledged(t *testing.T) {
	h, _ := newWebhookHandlers(t)
	payload := `{"type":"charge.succeeded"}`

	rec := httptest.NewRecorder()
	h.Stripe(rec, webhookRequest(payload, service.SignatureHeader(webhookSecret, time.Now(), []byte(payload))))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, service.WebhookIgnored, body["status"])
}
