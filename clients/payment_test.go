package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWebhookSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)

	sig := ComputeWebhookSignature("secret", "1757000000", body)
	assert.Len(t, sig, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", sig)

	// Deterministic for the same inputs, distinct for any changed input.
	assert.Equal(t, sig, ComputeWebhookSignature("secret", "1757000000", body))
	assert.NotEqual(t, sig, ComputeWebhookSignature("other", "1757000000", body))
	assert.NotEqual(t, sig, ComputeWebhookSignature("secret", "1757000001", body))
	assert.NotEqual(t, sig, ComputeWebhookSignature("secret", "1757000000", []byte(`{}`)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	sig := ComputeWebhookSignature("secret", "1757000000", body)

	assert.True(t, VerifyWebhookSignature("secret", "1757000000", sig, body))
	assert.False(t, VerifyWebhookSignature("wrong", "1757000000", sig, body))
	assert.False(t, VerifyWebhookSignature("secret", "1757000001", sig, body))
	assert.False(t, VerifyWebhookSignature("secret", "1757000000", sig, []byte(`tampered`)))
	assert.False(t, VerifyWebhookSignature("secret", "1757000000", "", body))
}

func TestNewPaymentClientRequiresKeys(t *testing.T) {
	t.Setenv("PAYMENT_KEY_ID", "")
	t.Setenv("PAYMENT_KEY_SECRET", "")

	_, err := NewPaymentClient()
	assert.Error(t, err)
}
