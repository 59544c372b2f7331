package bookingdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fridaySaturday = []time.Weekday{time.Friday, time.Saturday}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-04")
	require.NoError(t, err)
	assert.Equal(t, time.September, d.Month())

	for _, bad := range []string{"", "04/09/2026", "2026-13-01", "2026-02-30", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestIsBookableWeekday(t *testing.T) {
	// 2026-09-04 is a Friday; walk the whole week from it.
	friday := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	expected := map[time.Weekday]bool{
		time.Friday:    true,
		time.Saturday:  true,
		time.Sunday:    false,
		time.Monday:    false,
		time.Tuesday:   false,
		time.Wednesday: false,
		time.Thursday:  false,
	}
	for i := 0; i < 7; i++ {
		d := friday.AddDate(0, 0, i)
		assert.Equal(t, expected[d.Weekday()], IsBookableWeekday(d, fridaySaturday), "weekday %s", d.Weekday())
	}
}

func TestIsPastDate(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	now := time.Date(2026, 9, 4, 12, 0, 0, 0, london)

	assert.True(t, IsPastDate(time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), now, london))
	// The event date itself is not past, even late in the day.
	assert.False(t, IsPastDate(time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), now, london))
	assert.False(t, IsPastDate(time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), now, london))
}

func TestCutoffPassed(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	t.Run("SummerTimeUsesLocalWallClock", func(t *testing.T) {
		// 2026-07-03 is a Friday in British Summer Time (UTC+1). A 17:00
		// cutoff in London is 16:00 UTC, so 16:30 UTC is already past it.
		eventDate := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
		now := time.Date(2026, 7, 3, 16, 30, 0, 0, time.UTC)

		passed, err := CutoffPassed(eventDate, "17:00", now, london)
		require.NoError(t, err)
		assert.True(t, passed)
	})

	t.Run("WinterTimeUsesLocalWallClock", func(t *testing.T) {
		// 2026-01-09 is a Friday in GMT (UTC+0). The same 16:30 UTC is
		// 16:30 local, still before the 17:00 cutoff.
		eventDate := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
		now := time.Date(2026, 1, 9, 16, 30, 0, 0, time.UTC)

		passed, err := CutoffPassed(eventDate, "17:00", now, london)
		require.NoError(t, err)
		assert.False(t, passed)
	})

	t.Run("ExactCutoffCountsAsPassed", func(t *testing.T) {
		eventDate := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
		now := time.Date(2026, 1, 9, 17, 0, 0, 0, london)

		passed, err := CutoffPassed(eventDate, "17:00", now, london)
		require.NoError(t, err)
		assert.True(t, passed)
	})

	t.Run("InvalidCutoffTime", func(t *testing.T) {
		_, err := CutoffPassed(time.Now(), "25:99", time.Now(), london)
		assert.Error(t, err)
	})
}
