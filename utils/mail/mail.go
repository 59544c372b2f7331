package mail

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/booking_models"
)

// SendBookingConfirmation emails the customer after a successful payment.
// Delivery is best-effort: failures are logged, never surfaced to the
// webhook handler, and never block a transition.
func SendBookingConfirmation(booking *booking_models.Booking) {
	to := recipient(booking)
	if to == "" {
		// Registered customers get their address from the identity
		// service; nothing to do here without it.
		return
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		logger.WarnLogger.Warnf("SMTP not configured, skipping confirmation mail for %s", booking.Reference)
		return
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "bookings@lumehall.com"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Booking %s confirmed", booking.Reference))
	m.SetBody("text/plain", fmt.Sprintf(
		"Your booking %s for %s is confirmed.\nAmount paid: %.2f %s\n",
		booking.Reference,
		booking.EventDate.Format("Monday, 2 January 2006"),
		float64(booking.FinalAmount)/100,
		booking.Currency,
	))

	d := gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"))
	if err := d.DialAndSend(m); err != nil {
		logger.ErrorLogger.Errorf("Failed to send confirmation mail for %s: %v", booking.Reference, err)
		return
	}
	logger.InfoLogger.Infof("Confirmation mail sent for booking %s", booking.Reference)
}

func recipient(booking *booking_models.Booking) string {
	if booking.GuestEmail != nil {
		return *booking.GuestEmail
	}
	return ""
}
