package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type fakeProcessor struct {
	events []*stripe.Event
	err    error
}

func (f *fakeProcessor) ProcessEvent(event *stripe.Event) error {
	f.events = append(f.events, event)
	return f.err
}

func webhookApp(proc *fakeProcessor) *fiber.App {
	app := fiber.New()
	app.Post("/webhook", NewWebhookHandler(testWebhookSecret, proc).HandleStripe)
	return app
}

func signedRequest(t *testing.T, secret string, payload []byte) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleStripeRejectsMissingSignature(t *testing.T) {
	proc := &fakeProcessor{}
	app := webhookApp(proc)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, proc.events)
}

func TestHandleStripeRejectsBadSignature(t *testing.T) {
	proc := &fakeProcessor{}
	app := webhookApp(proc)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	req := signedRequest(t, "whsec_wrong", payload)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, proc.events)
}

func TestHandleStripeProcessesVerifiedEvent(t *testing.T) {
	proc := &fakeProcessor{}
	app := webhookApp(proc)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1"}}}`)
	resp, err := app.Test(signedRequest(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, proc.events, 1)
	assert.Equal(t, "evt_1", proc.events[0].ID)
	assert.Equal(t, stripe.EventType("customer.subscription.updated"), proc.events[0].Type)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"received":true}`, string(body))
}

func TestHandleStripeAcksWhenProcessingFails(t *testing.T) {
	proc := &fakeProcessor{err: assert.AnError}
	app := webhookApp(proc)

	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	resp, err := app.Test(signedRequest(t, testWebhookSecret, payload))
	require.NoError(t, err)

	// A signed event is always acknowledged; retries cannot fix a
	// processing bug and every write is idempotent.
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, proc.events, 1)
}

func TestHandleStripeUnconfiguredSecret(t *testing.T) {
	app := fiber.New()
	app.Post("/webhook", NewWebhookHandler("", &fakeProcessor{}).HandleStripe)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
