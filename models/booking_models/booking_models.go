package booking_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/shared_models"
)

// Booking is a customer's reservation for one event date, with its payment
// lifecycle. Amounts are in the currency's minor unit and always satisfy
// final = total - discount.
type Booking struct {
	ID              uuid.UUID  `json:"id"`
	Reference       string     `json:"reference"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`
	GuestName       *string    `json:"guest_name,omitempty"`
	GuestEmail      *string    `json:"guest_email,omitempty"`
	EventDate       time.Time  `json:"event_date"`
	Status          string     `json:"status"`
	TotalAmount     int64      `json:"total_amount"`
	DiscountAmount  int64      `json:"discount_amount"`
	FinalAmount     int64      `json:"final_amount"`
	Currency        string     `json:"currency"`
	PaymentIntentID *string    `json:"payment_intent_id,omitempty"`
	PaymentStatus   *string    `json:"payment_status,omitempty"`
	PaymentError    *string    `json:"payment_error,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	RefundAmount    *int64     `json:"refund_amount,omitempty"`
	PromoCodeID     *uuid.UUID `json:"promo_code_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Items []BookingItem `json:"items,omitempty"`
}

// BookingItem is one line item within a booking.
type BookingItem struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ItemKind   string    `json:"item_kind"`
	ItemID     uuid.UUID `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Quantity   int       `json:"quantity"`
	UnitPrice  int64     `json:"unit_price"`
	TotalPrice int64     `json:"total_price"`
}

var ErrBookingNotFound = errors.New("booking not found")

// NewBooking builds a pending booking. The amount invariant is established
// here and never recomputed from client input.
func NewBooking(reference string, eventDate time.Time, total, discount int64, currency string) (*Booking, error) {
	if discount < 0 || discount > total {
		return nil, fmt.Errorf("discount %d out of range for total %d", discount, total)
	}
	id, err := shared_models.GenerateUUIDv7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for booking: %w", err)
	}
	now := time.Now()
	return &Booking{
		ID:             id,
		Reference:      reference,
		EventDate:      eventDate,
		Status:         shared_models.BookingStatusPending,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    total - discount,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsReferenceConflict reports whether err is a unique violation on the
// booking reference, the trigger for regenerate-and-retry.
func IsReferenceConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_reference_key"
}

// CreateBookingTx inserts a booking and its items inside the caller's
// transaction, so they commit or roll back together with the inventory
// decrements made earlier in the same transaction.
func CreateBookingTx(ctx context.Context, tx shared_models.Querier, booking *Booking) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (
			id, reference, customer_id, guest_name, guest_email, event_date,
			status, total_amount, discount_amount, final_amount, currency,
			promo_code_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		booking.ID, booking.Reference, booking.CustomerID, booking.GuestName, booking.GuestEmail,
		booking.EventDate, booking.Status, booking.TotalAmount, booking.DiscountAmount,
		booking.FinalAmount, booking.Currency, booking.PromoCodeID, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		if !IsReferenceConflict(err) {
			logger.ErrorLogger.Errorf("Failed to insert booking %s: %v", booking.Reference, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for i := range booking.Items {
		item := &booking.Items[i]
		if item.ID == uuid.Nil {
			id, err := shared_models.GenerateUUIDv7()
			if err != nil {
				return fmt.Errorf("failed to generate UUID for booking item: %w", err)
			}
			item.ID = id
		}
		item.BookingID = booking.ID

		_, err := tx.Exec(ctx, `
			INSERT INTO booking_items (id, booking_id, item_kind, item_id, item_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.BookingID, item.ItemKind, item.ItemID, item.ItemName,
			item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to insert booking item for %s: %v", booking.Reference, err)
			return fmt.Errorf("failed to create booking item: %w", err)
		}
	}
	return nil
}

const bookingColumns = `
	id, reference, customer_id, guest_name, guest_email, event_date,
	status, total_amount, discount_amount, final_amount, currency,
	payment_intent_id, payment_status, payment_error, paid_at, refunded_at,
	refund_amount, promo_code_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	err := row.Scan(
		&b.ID, &b.Reference, &b.CustomerID, &b.GuestName, &b.GuestEmail, &b.EventDate,
		&b.Status, &b.TotalAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
		&b.PaymentIntentID, &b.PaymentStatus, &b.PaymentError, &b.PaidAt, &b.RefundedAt,
		&b.RefundAmount, &b.PromoCodeID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return b, nil
}

// GetBookingByID fetches a booking and its items.
func GetBookingByID(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID) (*Booking, error) {
	booking, err := scanBooking(q.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if err != nil {
		return nil, err
	}
	if err := loadItems(ctx, q, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBookingByPaymentIntentID locates a booking by the payment provider's
// intent id. The reconciliation handler resolves succeeded payments through
// this, never through a client-suppliable booking id.
func GetBookingByPaymentIntentID(ctx context.Context, q shared_models.Querier, intentID string) (*Booking, error) {
	return scanBooking(q.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = $1`, intentID))
}

func loadItems(ctx context.Context, q shared_models.Querier, booking *Booking) error {
	rows, err := q.Query(ctx, `
		SELECT id, booking_id, item_kind, item_id, item_name, quantity, unit_price, total_price
		FROM booking_items WHERE booking_id = $1 ORDER BY item_kind, item_name`,
		booking.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.ItemKind, &item.ItemID,
			&item.ItemName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return fmt.Errorf("failed to scan booking item: %w", err)
		}
		booking.Items = append(booking.Items, item)
	}
	return rows.Err()
}

// SetPaymentIntent records the provider's intent id on a pending booking.
func SetPaymentIntent(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID, intentID string) error {
	tag, err := q.Exec(ctx,
		`UPDATE bookings SET payment_intent_id = $2, updated_at = NOW() WHERE id = $1`,
		bookingID, intentID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to set payment intent for booking %s: %v", bookingID, err)
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// MarkConfirmed flips a pending booking to confirmed. The status guard in
// the WHERE clause makes the transition idempotent under at-least-once
// webhook delivery: a repeat affects zero rows and reports applied=false.
func MarkConfirmed(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID, paidAt time.Time) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, payment_status = $3, paid_at = $4, updated_at = NOW()
		 WHERE id = $1 AND status = $5`,
		bookingID, shared_models.BookingStatusConfirmed, shared_models.PaymentStatusSucceeded,
		paidAt, shared_models.BookingStatusPending)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to confirm booking %s: %v", bookingID, err)
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordPaymentFailure keeps the booking pending (payment can be retried)
// and records the provider's error message. The status guard drops a stale
// delivery arriving after the booking left pending, so a confirmed booking
// never reports a failed payment.
func RecordPaymentFailure(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID, providerMessage string) error {
	_, err := q.Exec(ctx,
		`UPDATE bookings SET payment_status = $2, payment_error = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		bookingID, shared_models.PaymentStatusFailed, providerMessage, shared_models.BookingStatusPending)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record payment failure for booking %s: %v", bookingID, err)
		return fmt.Errorf("failed to record payment failure: %w", err)
	}
	return nil
}

// MarkCancelled transitions pending -> cancelled. No edge leaves cancelled.
func MarkCancelled(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, payment_status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		bookingID, shared_models.BookingStatusCancelled, shared_models.PaymentStatusCanceled,
		shared_models.BookingStatusPending)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to cancel booking %s: %v", bookingID, err)
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRequiresAction records that the provider needs further customer
// action. Booking status does not change, and only a pending booking takes
// the update.
func MarkRequiresAction(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`UPDATE bookings SET payment_status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		bookingID, shared_models.PaymentStatusRequiresAction, shared_models.BookingStatusPending)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record requires_action for booking %s: %v", bookingID, err)
		return fmt.Errorf("failed to record requires_action: %w", err)
	}
	return nil
}

// MarkRefunded flips a pending or confirmed booking to refunded and records
// the refund fields. The status guard keeps cancelled and refunded terminal:
// zero rows affected means no edge leaves the current state.
func MarkRefunded(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID, amount int64, at time.Time) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, payment_status = $3, refund_amount = $4, refunded_at = $5, updated_at = NOW()
		 WHERE id = $1 AND status IN ($6, $7)`,
		bookingID, shared_models.BookingStatusRefunded, shared_models.PaymentStatusRefunded,
		amount, at, shared_models.BookingStatusPending, shared_models.BookingStatusConfirmed)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to mark booking %s refunded: %v", bookingID, err)
		return false, fmt.Errorf("failed to mark booking refunded: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordRefund writes the refund fields without touching the booking status,
// for partial refunds and for refunds against a cancelled booking.
// refund_amount and refunded_at are overwritten on repeat delivery, not
// accumulated; an already-refunded booking is left alone so a stale partial
// delivery cannot regress its payment status.
func RecordRefund(ctx context.Context, q shared_models.Querier, bookingID uuid.UUID, paymentStatus string, amount int64, at time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE bookings
		 SET payment_status = $2, refund_amount = $3, refunded_at = $4, updated_at = NOW()
		 WHERE id = $1 AND status <> $5`,
		bookingID, paymentStatus, amount, at, shared_models.BookingStatusRefunded)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record refund for booking %s: %v", bookingID, err)
		return fmt.Errorf("failed to record refund: %w", err)
	}
	return nil
}

// GetAllBookings retrieves bookings with pagination and an optional status
// filter. Admin listing surface; no transition logic lives here.
func GetAllBookings(ctx context.Context, q shared_models.Querier, status string, page, limit int) ([]Booking, int, error) {
	offset := (page - 1) * limit

	var totalCount int
	var rows pgx.Rows
	var err error

	if status != "" {
		if err = q.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status = $1`, status).Scan(&totalCount); err == nil {
			rows, err = q.Query(ctx,
				`SELECT `+bookingColumns+` FROM bookings WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
				status, limit, offset)
		}
	} else {
		if err = q.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&totalCount); err == nil {
			rows, err = q.Query(ctx,
				`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
				limit, offset)
		}
	}
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to fetch bookings: %v", err)
		return nil, 0, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b := Booking{}
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.CustomerID, &b.GuestName, &b.GuestEmail, &b.EventDate,
			&b.Status, &b.TotalAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
			&b.PaymentIntentID, &b.PaymentStatus, &b.PaymentError, &b.PaidAt, &b.RefundedAt,
			&b.RefundAmount, &b.PromoCodeID, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, totalCount, rows.Err()
}
