package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/razorpay/razorpay-go"
)

// PaymentClientWrapper is the narrow surface the booking workflow needs
// from the card-payment provider. The interface keeps the workflow testable
// without real provider calls.
type PaymentClientWrapper interface {
	// CreatePaymentIntent opens a charge for the given amount (minor
	// units) and returns the provider's intent id.
	CreatePaymentIntent(amount int64, currency, reference string, metadata map[string]interface{}) (string, error)
}

// PaymentClient implements PaymentClientWrapper on the provider SDK.
type PaymentClient struct {
	client *razorpay.Client
}

// NewPaymentClient builds the provider client from process configuration.
func NewPaymentClient() (*PaymentClient, error) {
	keyID := os.Getenv("PAYMENT_KEY_ID")
	keySecret := os.Getenv("PAYMENT_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("PAYMENT_KEY_ID and PAYMENT_KEY_SECRET must be set")
	}
	return &PaymentClient{client: razorpay.NewClient(keyID, keySecret)}, nil
}

// CreatePaymentIntent creates a provider order for the booking. The order
// id the provider returns is the payment-intent id the webhook handler
// later correlates on.
func (p *PaymentClient) CreatePaymentIntent(amount int64, currency, reference string, metadata map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  reference,
		"notes":    metadata,
	}
	order, err := p.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("provider order creation failed: %w", err)
	}

	intentID, ok := order["id"].(string)
	if !ok || intentID == "" {
		return "", fmt.Errorf("provider order response missing id")
	}
	return intentID, nil
}

// ComputeWebhookSignature computes the hex HMAC-SHA256 the provider signs
// webhook deliveries with: the signed payload is timestamp + "." + rawBody.
func ComputeWebhookSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a delivery's signature in constant time.
func VerifyWebhookSignature(secret, timestamp, signature string, body []byte) bool {
	expected := ComputeWebhookSignature(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
