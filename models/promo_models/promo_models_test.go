package promo_models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumehall/booking/models/shared_models"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER10", NormalizeCode("summer10"))
	assert.Equal(t, "SUMMER10", NormalizeCode("  Summer10 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name         string
		discountType string
		value        int64
		subtotal     int64
		want         int64
	}{
		{"PercentageExact", shared_models.DiscountTypePercentage, 10, 10000, 1000},
		{"PercentageRoundsHalfUp", shared_models.DiscountTypePercentage, 15, 333, 50},
		{"PercentageRoundsDown", shared_models.DiscountTypePercentage, 10, 14, 1},
		{"PercentageFull", shared_models.DiscountTypePercentage, 100, 5500, 5500},
		{"PercentageZeroSubtotal", shared_models.DiscountTypePercentage, 50, 0, 0},
		{"FixedWithinSubtotal", shared_models.DiscountTypeFixedAmount, 500, 10000, 500},
		{"FixedClampedToSubtotal", shared_models.DiscountTypeFixedAmount, 5000, 3000, 3000},
		{"FixedEqualToSubtotal", shared_models.DiscountTypeFixedAmount, 3000, 3000, 3000},
		{"UnknownType", "buy_one_get_one", 50, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.discountType, tt.value, tt.subtotal)
			assert.Equal(t, tt.want, got)
		})
	}
}
