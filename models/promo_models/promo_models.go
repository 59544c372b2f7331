package promo_models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/shared_models"
	"github.com/lumehall/booking/utils"
)

// PromoCode is a discount code. Codes are stored uppercase and matched
// case-insensitively. discount_value is percent points for percentage codes
// and minor units for fixed-amount codes.
type PromoCode struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"`
	ValidFrom     time.Time  `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	UsageLimit    *int       `json:"usage_limit,omitempty"`
	UsageCount    int        `json:"usage_count"`
	IsActive      bool       `json:"is_active"`
}

// NormalizeCode trims and uppercases a user-supplied code before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByCode fetches a promo code by its normalized form.
func GetByCode(ctx context.Context, q shared_models.Querier, code string) (*PromoCode, error) {
	promo := &PromoCode{}
	err := q.QueryRow(ctx,
		`SELECT id, code, discount_type, discount_value, valid_from, valid_until, usage_limit, usage_count, is_active
		 FROM promo_codes WHERE code = $1`,
		NormalizeCode(code)).Scan(
		&promo.ID, &promo.Code, &promo.DiscountType, &promo.DiscountValue,
		&promo.ValidFrom, &promo.ValidUntil, &promo.UsageLimit, &promo.UsageCount, &promo.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewValidationError(utils.ReasonInvalidPromoCode, "promo code not found")
		}
		logger.ErrorLogger.Errorf("Failed to fetch promo code: %v", err)
		return nil, fmt.Errorf("database error fetching promo code: %w", err)
	}
	return promo, nil
}

// Validate checks a code against the failure precedence (not found, then
// inactive, not yet valid, expired, usage limit reached; first match wins)
// and returns the discount amount in minor units on success. Validity
// windows compare against now, not the booking date.
func Validate(ctx context.Context, q shared_models.Querier, code string, subtotal int64, now time.Time) (*PromoCode, int64, error) {
	promo, err := GetByCode(ctx, q, code)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case !promo.IsActive:
		return nil, 0, utils.NewValidationError(utils.ReasonInvalidPromoCode, "promo code is not active")
	case now.Before(promo.ValidFrom):
		return nil, 0, utils.NewValidationError(utils.ReasonInvalidPromoCode, "promo code is not yet valid")
	case promo.ValidUntil != nil && now.After(*promo.ValidUntil):
		return nil, 0, utils.NewValidationError(utils.ReasonInvalidPromoCode, "promo code has expired")
	case promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit:
		return nil, 0, utils.NewValidationError(utils.ReasonInvalidPromoCode, "promo code usage limit reached")
	}

	return promo, ComputeDiscount(promo.DiscountType, promo.DiscountValue, subtotal), nil
}

// ComputeDiscount computes the discount in minor units. Percentage amounts
// round half-up to the minor unit; fixed amounts never exceed the subtotal.
func ComputeDiscount(discountType string, value, subtotal int64) int64 {
	switch discountType {
	case shared_models.DiscountTypePercentage:
		return int64(math.Round(float64(subtotal) * float64(value) / 100))
	case shared_models.DiscountTypeFixedAmount:
		if value > subtotal {
			return subtotal
		}
		return value
	default:
		return 0
	}
}

// ConsumeUsage increments the code's usage count inside the booking
// transaction. The usage_count guard makes the limit hold under concurrent
// bookings with the same discipline as the inventory decrement: zero rows
// affected means another transaction took the last use.
func ConsumeUsage(ctx context.Context, tx shared_models.Querier, promoID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE promo_codes
		 SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE id = $1 AND is_active = TRUE
		   AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		promoID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to consume promo code %s: %v", promoID, err)
		return fmt.Errorf("database error consuming promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewConflictError(utils.ReasonInvalidPromoCode, "promo code usage limit reached")
	}
	return nil
}
