package payment_webhook_controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumehall/booking/clients"
	"github.com/lumehall/booking/config"
	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/booking_models"
	"github.com/lumehall/booking/utils/mail"
)

// Signature header names the provider sends with every delivery. The
// signature is hex HMAC-SHA256 over timestamp + "." + rawBody.
const (
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderSignature = "X-Webhook-Signature"
)

// PaymentWebhookController consumes provider webhook events and drives the
// booking status machine: pending -> confirmed -> refunded, with
// pending -> cancelled as the only other edge. Deliveries are at-least-once
// and may repeat or arrive out of order; every transition is guarded by the
// booking's persisted state, so replays never double-apply.
type PaymentWebhookController struct {
	DB *pgxpool.Pool
}

// NewPaymentWebhookController creates a new PaymentWebhookController.
func NewPaymentWebhookController(db *pgxpool.Pool) *PaymentWebhookController {
	return &PaymentWebhookController{DB: db}
}

// WebhookEvent is the provider's event envelope.
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PaymentEventData is the payload shared by payment and refund events.
type PaymentEventData struct {
	PaymentIntentID string            `json:"payment_intent_id"`
	Amount          int64             `json:"amount"`
	AmountRefunded  int64             `json:"amount_refunded"`
	Currency        string            `json:"currency"`
	ErrorMessage    string            `json:"error_message"`
	Metadata        map[string]string `json:"metadata"`
}

// HandleWebhook is the single entry point for provider webhooks.
func (pc *PaymentWebhookController) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if status, code, msg := verifySignature(c, body); status != 0 {
		c.JSON(status, gin.H{"code": code, "error": msg})
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
		logger.ErrorLogger.Errorf("Invalid webhook payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx := c.Request.Context()

	var handleErr error
	switch event.Type {
	case EventPaymentSucceeded:
		handleErr = pc.handlePaymentSucceeded(ctx, event.Data)
	case EventPaymentFailed:
		handleErr = pc.handlePaymentFailed(ctx, event.Data)
	case EventPaymentCanceled:
		handleErr = pc.handlePaymentCanceled(ctx, event.Data)
	case EventPaymentRequiresAction:
		handleErr = pc.handleRequiresAction(ctx, event.Data)
	case EventChargeRefunded:
		handleErr = pc.handleChargeRefunded(ctx, event.Data)
	default:
		// Unrecognized event types must never fail the request.
		logger.InfoLogger.Infof("Ignoring unrecognized webhook event type %q", event.Type)
	}

	if handleErr != nil {
		respondWebhookError(c, event.Type, handleErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifySignature distinguishes the three signature failure cases: missing
// header, unconfigured secret, and verification failure. A zero status
// means the delivery is authentic.
func verifySignature(c *gin.Context, body []byte) (status int, code, msg string) {
	timestamp := c.GetHeader(HeaderTimestamp)
	signature := c.GetHeader(HeaderSignature)
	if timestamp == "" || signature == "" {
		logger.WarnLogger.Warn("Webhook delivery missing signature headers")
		return http.StatusBadRequest, "MissingSignatureHeader", "missing webhook signature headers"
	}

	secret := config.PaymentWebhookSecret()
	if secret == "" {
		logger.ErrorLogger.Error("PAYMENT_WEBHOOK_SECRET is not configured")
		return http.StatusInternalServerError, "WebhookSecretMissing", "webhook secret not configured"
	}

	if !clients.VerifyWebhookSignature(secret, timestamp, signature, body) {
		logger.WarnLogger.Warn("Webhook signature verification failed")
		return http.StatusUnauthorized, "InvalidSignature", "invalid webhook signature"
	}
	return 0, "", ""
}

var (
	errBadEventData    = errors.New("malformed event data")
	errBookingNotFound = errors.New("no booking for payment intent")
)

func parseEventData(data json.RawMessage) (*PaymentEventData, error) {
	var payload PaymentEventData
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errBadEventData
	}
	return &payload, nil
}

// parsePaymentEventData additionally requires the payment intent id, which
// every event except charge.refunded correlates on. Refund events may name
// the booking through metadata instead, so they validate in their handler.
func parsePaymentEventData(data json.RawMessage) (*PaymentEventData, error) {
	payload, err := parseEventData(data)
	if err != nil {
		return nil, err
	}
	if payload.PaymentIntentID == "" {
		return nil, errBadEventData
	}
	return payload, nil
}

// lookupByIntent resolves the booking through the stored payment intent id,
// never through a client-suppliable booking id, so a forged event cannot
// point the handler at an arbitrary booking.
func (pc *PaymentWebhookController) lookupByIntent(ctx context.Context, intentID string) (*booking_models.Booking, error) {
	booking, err := booking_models.GetBookingByPaymentIntentID(ctx, pc.DB, intentID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			return nil, errBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (pc *PaymentWebhookController) handlePaymentSucceeded(ctx context.Context, data json.RawMessage) error {
	payload, err := parsePaymentEventData(data)
	if err != nil {
		return err
	}
	booking, err := pc.lookupByIntent(ctx, payload.PaymentIntentID)
	if err != nil {
		return err
	}

	switch DecideConfirm(booking.Status) {
	case ConfirmAlreadyDone:
		logger.InfoLogger.Infof("Booking %s already confirmed, treating repeat delivery as no-op", booking.Reference)
		return nil
	case ConfirmNoEdge:
		logger.WarnLogger.Warnf("payment.succeeded for booking %s in state %s, ignoring", booking.Reference, booking.Status)
		return nil
	}

	applied, err := booking_models.MarkConfirmed(ctx, pc.DB, booking.ID, time.Now())
	if err != nil {
		return err
	}
	if !applied {
		// Another delivery confirmed it between our read and the guarded
		// update; same end state either way.
		logger.InfoLogger.Infof("Booking %s confirmed concurrently", booking.Reference)
		return nil
	}

	logger.InfoLogger.Infof("Booking %s confirmed (intent %s)", booking.Reference, payload.PaymentIntentID)
	go mail.SendBookingConfirmation(booking)
	return nil
}

func (pc *PaymentWebhookController) handlePaymentFailed(ctx context.Context, data json.RawMessage) error {
	payload, err := parsePaymentEventData(data)
	if err != nil {
		return err
	}
	booking, err := pc.lookupByIntent(ctx, payload.PaymentIntentID)
	if err != nil {
		return err
	}
	if !DecidePaymentUpdate(booking.Status) {
		logger.InfoLogger.Infof("Ignoring stale payment.failed for booking %s in state %s", booking.Reference, booking.Status)
		return nil
	}

	// The booking stays pending so the customer can retry payment.
	msg := payload.ErrorMessage
	if msg == "" {
		msg = "payment failed"
	}
	logger.WarnLogger.Warnf("Payment failed for booking %s: %s", booking.Reference, msg)
	return booking_models.RecordPaymentFailure(ctx, pc.DB, booking.ID, msg)
}

func (pc *PaymentWebhookController) handlePaymentCanceled(ctx context.Context, data json.RawMessage) error {
	payload, err := parsePaymentEventData(data)
	if err != nil {
		return err
	}
	booking, err := pc.lookupByIntent(ctx, payload.PaymentIntentID)
	if err != nil {
		return err
	}

	applied, err := booking_models.MarkCancelled(ctx, pc.DB, booking.ID)
	if err != nil {
		return err
	}
	if applied {
		logger.InfoLogger.Infof("Booking %s cancelled by provider", booking.Reference)
	}
	return nil
}

func (pc *PaymentWebhookController) handleRequiresAction(ctx context.Context, data json.RawMessage) error {
	payload, err := parsePaymentEventData(data)
	if err != nil {
		return err
	}
	booking, err := pc.lookupByIntent(ctx, payload.PaymentIntentID)
	if err != nil {
		return err
	}
	if !DecidePaymentUpdate(booking.Status) {
		logger.InfoLogger.Infof("Ignoring stale payment.requires_action for booking %s in state %s", booking.Reference, booking.Status)
		return nil
	}
	return booking_models.MarkRequiresAction(ctx, pc.DB, booking.ID)
}

func (pc *PaymentWebhookController) handleChargeRefunded(ctx context.Context, data json.RawMessage) error {
	payload, err := parseEventData(data)
	if err != nil {
		return err
	}

	// Refund events may carry the booking id in metadata; fall back to the
	// payment intent when they don't. One of the two must name the booking.
	var booking *booking_models.Booking
	var metaID uuid.UUID
	var hasMetaID bool
	if raw, ok := payload.Metadata["booking_id"]; ok {
		if id, parseErr := uuid.Parse(raw); parseErr == nil {
			metaID, hasMetaID = id, true
		}
	}
	if hasMetaID {
		b, err := booking_models.GetBookingByID(ctx, pc.DB, metaID)
		if err != nil && !errors.Is(err, booking_models.ErrBookingNotFound) {
			return err
		}
		booking = b
	}
	if booking == nil {
		if payload.PaymentIntentID == "" {
			if hasMetaID {
				return errBookingNotFound
			}
			return errBadEventData
		}
		b, err := pc.lookupByIntent(ctx, payload.PaymentIntentID)
		if err != nil {
			return err
		}
		booking = b
	}

	outcome := DecideRefund(booking.Status, booking.FinalAmount, payload.AmountRefunded)
	if outcome.PaymentStatus == "" {
		logger.InfoLogger.Infof("Ignoring stale partial refund for booking %s", booking.Reference)
		return nil
	}

	if outcome.ApplyStatus {
		applied, err := booking_models.MarkRefunded(ctx, pc.DB, booking.ID, payload.AmountRefunded, time.Now())
		if err != nil {
			return err
		}
		if applied {
			logger.InfoLogger.Infof("Booking %s fully refunded (%d)", booking.Reference, payload.AmountRefunded)
			return nil
		}
		// A concurrent transition closed the edge between our read and the
		// guarded update; record the fields like any terminal-state refund.
	}

	if err := booking_models.RecordRefund(ctx, pc.DB, booking.ID, outcome.PaymentStatus, payload.AmountRefunded, time.Now()); err != nil {
		return err
	}
	if outcome.Full {
		logger.InfoLogger.Infof("Refund recorded for booking %s in state %s (%d)",
			booking.Reference, booking.Status, payload.AmountRefunded)
	} else {
		logger.InfoLogger.Infof("Booking %s partially refunded (%d of %d)",
			booking.Reference, payload.AmountRefunded, booking.FinalAmount)
	}
	return nil
}

// respondWebhookError distinguishes lookup misses and malformed payloads
// (safe for the provider to drop) from persistence failures (the provider
// should retry the delivery).
func respondWebhookError(c *gin.Context, eventType string, err error) {
	switch {
	case errors.Is(err, errBadEventData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event data"})
	case errors.Is(err, errBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no booking for payment intent"})
	default:
		logger.ErrorLogger.Errorf("Webhook %s handling failed: %v", eventType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
	}
}
