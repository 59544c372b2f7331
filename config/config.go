package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file when present. Missing files are fine in
// production, where configuration comes from the environment.
func LoadEnv() {
	_ = godotenv.Load()
}

// VenueLocation returns the venue's IANA timezone. All cutoff and past-date
// comparisons are made against venue wall-clock time, never a fixed offset.
func VenueLocation() *time.Location {
	name := os.Getenv("VENUE_TIMEZONE")
	if name == "" {
		name = "Europe/London"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BookableWeekdays returns the weekdays bookings may be created for.
// Configured as comma-separated time.Weekday numbers (0=Sunday); the venue
// runs Friday/Saturday events by default.
func BookableWeekdays() []time.Weekday {
	raw := os.Getenv("BOOKABLE_WEEKDAYS")
	if raw == "" {
		return []time.Weekday{time.Friday, time.Saturday}
	}

	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	if len(days) == 0 {
		return []time.Weekday{time.Friday, time.Saturday}
	}
	return days
}

// ReferencePrefix returns the prefix used in booking references.
func ReferencePrefix() string {
	prefix := os.Getenv("BOOKING_REFERENCE_PREFIX")
	if prefix == "" {
		prefix = "LH"
	}
	return strings.ToUpper(prefix)
}

// Currency returns the ISO 4217 code all bookings are priced in.
func Currency() string {
	currency := os.Getenv("PAYMENT_CURRENCY")
	if currency == "" {
		currency = "GBP"
	}
	return strings.ToUpper(currency)
}

// PaymentWebhookSecret returns the shared secret webhook signatures are
// verified against. Empty means the webhook endpoint is misconfigured.
func PaymentWebhookSecret() string {
	return os.Getenv("PAYMENT_WEBHOOK_SECRET")
}
