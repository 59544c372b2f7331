package payment_webhook_controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumehall/booking/clients"
	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/shared_models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("LOG_DIR", os.TempDir())
	logger.InitLoggers()
	os.Exit(m.Run())
}

func TestDecideConfirm(t *testing.T) {
	tests := []struct {
		status string
		want   ConfirmDecision
	}{
		{shared_models.BookingStatusPending, ConfirmApply},
		{shared_models.BookingStatusConfirmed, ConfirmAlreadyDone},
		{shared_models.BookingStatusCancelled, ConfirmNoEdge},
		{shared_models.BookingStatusRefunded, ConfirmNoEdge},
		{"garbage", ConfirmNoEdge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecideConfirm(tt.status), "status %q", tt.status)
	}
}

func TestDecidePaymentUpdate(t *testing.T) {
	assert.True(t, DecidePaymentUpdate(shared_models.BookingStatusPending))
	assert.False(t, DecidePaymentUpdate(shared_models.BookingStatusConfirmed))
	assert.False(t, DecidePaymentUpdate(shared_models.BookingStatusCancelled))
	assert.False(t, DecidePaymentUpdate(shared_models.BookingStatusRefunded))
}

func TestDecideRefund(t *testing.T) {
	full := DecideRefund(shared_models.BookingStatusConfirmed, 50000, 50000)
	assert.True(t, full.Full)
	assert.True(t, full.ApplyStatus)
	assert.Equal(t, shared_models.PaymentStatusRefunded, full.PaymentStatus)

	over := DecideRefund(shared_models.BookingStatusPending, 50000, 60000)
	assert.True(t, over.Full)
	assert.True(t, over.ApplyStatus)

	partial := DecideRefund(shared_models.BookingStatusConfirmed, 50000, 20000)
	assert.False(t, partial.Full)
	assert.False(t, partial.ApplyStatus)
	assert.Equal(t, shared_models.PaymentStatusPartiallyRefunded, partial.PaymentStatus)

	// A repeat of the same delivery decides the same way.
	assert.Equal(t, partial, DecideRefund(shared_models.BookingStatusConfirmed, 50000, 20000))
}

func TestDecideRefundAgainstCancelledKeepsStatus(t *testing.T) {
	// A provider-cancelled booking may still receive a refund for money
	// already captured. The refund fields are recorded but cancelled is
	// terminal: the booking never moves to refunded.
	outcome := DecideRefund(shared_models.BookingStatusCancelled, 50000, 50000)
	assert.True(t, outcome.Full)
	assert.False(t, outcome.ApplyStatus)
	assert.Equal(t, shared_models.PaymentStatusRefunded, outcome.PaymentStatus)
}

func TestDecideRefundRepeatAndStaleDeliveries(t *testing.T) {
	// A repeat full refund against an already refunded booking records the
	// same fields without re-taking the edge.
	repeat := DecideRefund(shared_models.BookingStatusRefunded, 50000, 50000)
	assert.True(t, repeat.Full)
	assert.False(t, repeat.ApplyStatus)
	assert.Equal(t, shared_models.PaymentStatusRefunded, repeat.PaymentStatus)

	// A partial refund arriving after the full one is stale: writing it
	// would regress the payment status, so nothing is written.
	stale := DecideRefund(shared_models.BookingStatusRefunded, 50000, 20000)
	assert.False(t, stale.Full)
	assert.False(t, stale.ApplyStatus)
	assert.Empty(t, stale.PaymentStatus)
}

const testSecret = "whsec_test_secret"

func postWebhook(t *testing.T, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	pc := NewPaymentWebhookController(nil)
	router.POST("/webhooks/payment", pc.HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signedHeaders(body []byte, timestamp string) map[string]string {
	return map[string]string{
		HeaderTimestamp: timestamp,
		HeaderSignature: clients.ComputeWebhookSignature(testSecret, timestamp, body),
	}
}

func TestHandleWebhookMissingSignatureHeaders(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	w := postWebhook(t, []byte(`{"type":"payment.succeeded"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MissingSignatureHeader", resp["code"])
}

func TestHandleWebhookSecretNotConfigured(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "")

	body := []byte(`{"type":"payment.succeeded"}`)
	headers := map[string]string{
		HeaderTimestamp: "1757000000",
		HeaderSignature: "deadbeef",
	}

	w := postWebhook(t, body, headers)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "WebhookSecretMissing", resp["code"])
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	body := []byte(`{"type":"payment.succeeded"}`)
	headers := map[string]string{
		HeaderTimestamp: "1757000000",
		HeaderSignature: clients.ComputeWebhookSignature("wrong_secret", "1757000000", body),
	}

	w := postWebhook(t, body, headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "InvalidSignature", resp["code"])
}

func TestHandleWebhookTamperedBody(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	signed := []byte(`{"type":"payment.succeeded"}`)
	headers := signedHeaders(signed, "1757000000")

	w := postWebhook(t, []byte(`{"type":"charge.refunded"}`), headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleWebhookUnrecognizedEventType(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	body := []byte(`{"id":"evt_1","type":"customer.subscription.created","data":{}}`)
	w := postWebhook(t, body, signedHeaders(body, "1757000000"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["received"])
}

func TestHandleWebhookInvalidPayload(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	for _, body := range [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"id":"evt_1","data":{}}`), // no type
	} {
		w := postWebhook(t, body, signedHeaders(body, "1757000000"))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestHandleWebhookMalformedEventData(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	// Recognized type, but the data block has no payment intent id. The
	// handler rejects it before any booking lookup.
	body := []byte(`{"id":"evt_2","type":"payment.succeeded","data":{"amount":5000}}`)
	w := postWebhook(t, body, signedHeaders(body, "1757000000"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "malformed event data", resp["error"])
}

func TestHandleWebhookRefundWithoutAnyIdentifier(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)

	// charge.refunded may name the booking through metadata instead of a
	// payment intent, so a missing intent alone is not malformed. Missing
	// both, or carrying an unparsable metadata id with no intent, is.
	for name, body := range map[string][]byte{
		"NoIdentifiers": []byte(`{"id":"evt_3","type":"charge.refunded","data":{"amount_refunded":5000}}`),
		"BadMetadataID": []byte(`{"id":"evt_4","type":"charge.refunded","data":{"amount_refunded":5000,"metadata":{"booking_id":"not-a-uuid"}}}`),
	} {
		t.Run(name, func(t *testing.T) {
			w := postWebhook(t, body, signedHeaders(body, "1757000000"))
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "malformed event data", resp["error"])
		})
	}
}
