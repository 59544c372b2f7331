package reference

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("Shape", func(t *testing.T) {
		at := time.Date(2026, 9, 4, 18, 30, 0, 0, time.UTC)
		ref, err := Generate("LH", at)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "LH-20260904-"))
		assert.Len(t, ref, len("LH-20260904-")+6)
	})

	t.Run("LowercasePrefixNormalized", func(t *testing.T) {
		ref, err := Generate("lh", time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "LH-"))
	})

	t.Run("DateIsUTC", func(t *testing.T) {
		// 23:30 in UTC+2 is 21:30 UTC the same day; the reference always
		// carries the UTC calendar date.
		loc := time.FixedZone("UTC+2", 2*3600)
		at := time.Date(2026, 9, 5, 0, 30, 0, 0, loc)
		ref, err := Generate("LH", at)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "LH-20260904-"))
	})

	t.Run("ThousandSamplesValidAndUnique", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			ref, err := Generate("LH", time.Time{})
			require.NoError(t, err)
			assert.True(t, Validate(ref), "generated reference %q must validate", ref)
			_, dup := seen[ref]
			require.False(t, dup, "duplicate reference %q", ref)
			seen[ref] = struct{}{}
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		parsed, err := Parse("LH-20260904-A1B2C3")
		require.NoError(t, err)
		assert.Equal(t, "LH", parsed.Prefix)
		assert.Equal(t, "A1B2C3", parsed.Suffix)
		assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), parsed.Date)
		assert.Equal(t, "LH-20260904-A1B2C3", parsed.String())
	})

	malformed := []string{
		"",
		"LH-20260904",
		"LH-20260904-A1B2C3-EXTRA",
		"-20260904-A1B2C3",
		"lh-20260904-A1B2C3",
		"LH-2026094-A1B2C3",
		"LH-2026090X-A1B2C3",
		"LH-20260904-a1b2c3",
		"LH-20260904-A1B2",
	}
	for _, ref := range malformed {
		t.Run("Malformed_"+ref, func(t *testing.T) {
			_, err := Parse(ref)
			assert.ErrorIs(t, err, ErrMalformedReference)
		})
	}

	invalidDates := []string{
		"LH-20260230-A1B2C3", // February 30th
		"LH-20261341-A1B2C3", // month 13
		"LH-20260900-A1B2C3", // day 0
	}
	for _, ref := range invalidDates {
		t.Run("InvalidDate_"+ref, func(t *testing.T) {
			_, err := Parse(ref)
			assert.ErrorIs(t, err, ErrInvalidCalendarDate)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("LH-20260904-A1B2C3"))
	assert.False(t, Validate("not-a-reference"))
	assert.False(t, Validate("LH-20260230-A1B2C3"))
	assert.False(t, Validate(""))
}
