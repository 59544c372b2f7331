// Package bookingdate holds the calendar rules for event dates: which
// weekdays are bookable, what counts as a past date, and when the booking
// cutoff for a weekday has passed. All comparisons happen in the venue's
// timezone so daylight-saving transitions are handled by the tz database,
// not by a fixed-hour shift.
package bookingdate

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses an event date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// IsBookableWeekday reports whether date falls on one of the configured
// bookable weekdays.
func IsBookableWeekday(date time.Time, weekdays []time.Weekday) bool {
	for _, wd := range weekdays {
		if date.Weekday() == wd {
			return true
		}
	}
	return false
}

// IsPastDate reports whether date is strictly before today in the venue's
// local calendar. The event date itself is still bookable (subject to the
// cutoff rule).
func IsPastDate(date time.Time, now time.Time, loc *time.Location) bool {
	localNow := now.In(loc)
	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)
	eventDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return eventDay.Before(today)
}

// CutoffPassed reports whether the booking cutoff for the event date has
// passed. cutoffTime is venue-local wall clock in "15:04" form; building the
// deadline with time.Date in the venue location keeps it correct across
// standard/daylight-saving transitions.
func CutoffPassed(date time.Time, cutoffTime string, now time.Time, loc *time.Location) (bool, error) {
	t, err := time.Parse("15:04", cutoffTime)
	if err != nil {
		return false, fmt.Errorf("invalid cutoff time %q: %w", cutoffTime, err)
	}

	deadline := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return !now.Before(deadline), nil
}
