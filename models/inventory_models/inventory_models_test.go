package inventory_models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumehall/booking/utils"
)

func testRules(t *testing.T) Rules {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return Rules{
		Weekdays: []time.Weekday{time.Friday, time.Saturday},
		Location: loc,
	}
}

func TestValidateDate(t *testing.T) {
	rules := testRules(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) // Tuesday

	tests := []struct {
		name       string
		date       time.Time
		wantReason string
	}{
		{"FutureFriday", time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), ""},
		{"FutureSaturday", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), ""},
		{"Monday", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), utils.ReasonUnsupportedDay},
		{"Sunday", time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC), utils.ReasonUnsupportedDay},
		{"PastFriday", time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), utils.ReasonPastDate},
		// Weekday gate wins over the past-date gate.
		{"PastMonday", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), utils.ReasonUnsupportedDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.date, now, rules)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			var reasonErr *utils.ReasonError
			require.True(t, errors.As(err, &reasonErr), "expected a ReasonError, got %v", err)
			assert.Equal(t, tt.wantReason, reasonErr.Code)
		})
	}
}

func TestLineDescribe(t *testing.T) {
	line := Line{Kind: "package", ItemName: "Gold Package"}
	assert.Equal(t, `package "Gold Package"`, line.describe())

	unnamed := Line{Kind: "extra"}
	assert.Contains(t, unnamed.describe(), "extra ")
}
