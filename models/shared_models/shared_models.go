package shared_models

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx. Model
// functions take it so the booking workflow can run them inside its
// transaction while read-only endpoints pass the pool directly.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Booking lifecycle statuses. A booking is created pending; the payment
// reconciliation handler is the only writer of the other states.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRefunded  = "refunded"
)

// Provider-facing payment statuses recorded on the booking.
const (
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusFailed            = "failed"
	PaymentStatusCanceled          = "canceled"
	PaymentStatusRequiresAction    = "requires_action"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// Item kinds a booking line can reference.
const (
	ItemKindPackage = "package"
	ItemKindExtra   = "extra"
)

// Promo discount types.
const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// GenerateUUIDv7 generates a new UUIDv7.
func GenerateUUIDv7() (uuid.UUID, error) {
	return uuid.NewV7()
}
