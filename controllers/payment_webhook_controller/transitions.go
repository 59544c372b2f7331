package payment_webhook_controller

import (
	"github.com/lumehall/booking/models/shared_models"
)

// Provider event types the reconciliation machine recognizes. Anything else
// is acknowledged without touching state so new provider events never fail
// a delivery.
const (
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
	EventPaymentCanceled       = "payment.canceled"
	EventPaymentRequiresAction = "payment.requires_action"
	EventChargeRefunded        = "charge.refunded"
)

// ConfirmDecision says what a payment.succeeded delivery should do given
// the booking's current persisted status.
type ConfirmDecision int

const (
	// ConfirmApply transitions pending -> confirmed.
	ConfirmApply ConfirmDecision = iota
	// ConfirmAlreadyDone means the transition already happened; the
	// repeat delivery is acknowledged without mutating anything.
	ConfirmAlreadyDone
	// ConfirmNoEdge means no edge leaves the current state (cancelled or
	// refunded); the delivery is acknowledged and ignored.
	ConfirmNoEdge
)

// DecideConfirm implements the pending -> confirmed edge guard.
func DecideConfirm(currentStatus string) ConfirmDecision {
	switch currentStatus {
	case shared_models.BookingStatusPending:
		return ConfirmApply
	case shared_models.BookingStatusConfirmed:
		return ConfirmAlreadyDone
	default:
		return ConfirmNoEdge
	}
}

// DecidePaymentUpdate reports whether a non-terminal payment event
// (payment.failed, payment.requires_action) may touch the booking's payment
// status. Only pending bookings accept them; a delivery arriving after
// confirmation, cancellation or refund is stale and ignored.
func DecidePaymentUpdate(currentStatus string) bool {
	return currentStatus == shared_models.BookingStatusPending
}

// RefundOutcome describes how a charge.refunded delivery applies to a
// booking in its current state.
type RefundOutcome struct {
	// Full is true when the refunded amount covers the original charge.
	Full bool
	// ApplyStatus is true when the booking itself moves to refunded. Only
	// pending and confirmed bookings take that edge; cancelled and refunded
	// are terminal.
	ApplyStatus bool
	// PaymentStatus to record alongside the refund fields. Empty means the
	// delivery is stale (a partial refund after a full one) and nothing is
	// written.
	PaymentStatus string
}

// DecideRefund compares the refunded amount to the original charge and the
// booking's current state. Repeat deliveries produce the same outcome:
// refund fields are overwritten, never accumulated, and no edge leaves
// cancelled or refunded.
func DecideRefund(currentStatus string, originalAmount, amountRefunded int64) RefundOutcome {
	if amountRefunded >= originalAmount {
		return RefundOutcome{
			Full: true,
			ApplyStatus: currentStatus == shared_models.BookingStatusPending ||
				currentStatus == shared_models.BookingStatusConfirmed,
			PaymentStatus: shared_models.PaymentStatusRefunded,
		}
	}
	if currentStatus == shared_models.BookingStatusRefunded {
		return RefundOutcome{}
	}
	return RefundOutcome{PaymentStatus: shared_models.PaymentStatusPartiallyRefunded}
}
