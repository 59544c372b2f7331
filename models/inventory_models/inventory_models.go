// Package inventory_models owns the per-(item, date) stock counters and the
// calendar gates around them: bookable weekdays, blackout dates, and
// weekday cutoff rules. Reservation is all-or-nothing and relies on the
// surrounding transaction plus a conditional decrement per row, never on
// in-process locks.
package inventory_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumehall/booking/config"
	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/shared_models"
	"github.com/lumehall/booking/utils"
	"github.com/lumehall/booking/utils/bookingdate"
)

// Line is one requested (item, quantity) pair.
type Line struct {
	Kind     string
	ItemID   uuid.UUID
	ItemName string
	Quantity int
}

// Rules carries the venue calendar configuration. Taking it as a value
// keeps the resolver testable without environment juggling.
type Rules struct {
	Weekdays []time.Weekday
	Location *time.Location
}

// DefaultRules loads the venue calendar from configuration.
func DefaultRules() Rules {
	return Rules{
		Weekdays: config.BookableWeekdays(),
		Location: config.VenueLocation(),
	}
}

// ValidateDate runs the pure calendar gates (bookable weekday, not in the
// past). It needs no database access and runs before any row is touched.
func ValidateDate(date time.Time, now time.Time, rules Rules) error {
	if !bookingdate.IsBookableWeekday(date, rules.Weekdays) {
		return utils.NewValidationError(utils.ReasonUnsupportedDay,
			fmt.Sprintf("bookings are not taken for %ss", date.Weekday()))
	}
	if bookingdate.IsPastDate(date, now, rules.Location) {
		return utils.NewValidationError(utils.ReasonPastDate, "the requested date has already passed")
	}
	return nil
}

// GetBlackoutReason returns the blackout reason for a date, or ("", false)
// when the date is not blacked out.
func GetBlackoutReason(ctx context.Context, q shared_models.Querier, date time.Time) (string, bool, error) {
	var reason string
	err := q.QueryRow(ctx, `SELECT reason FROM blackout_dates WHERE event_date = $1`, date).Scan(&reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to fetch blackout date %s: %v", date.Format("2006-01-02"), err)
		return "", false, fmt.Errorf("database error fetching blackout date: %w", err)
	}
	return reason, true, nil
}

// CheckCutoff enforces the active cutoff rule for the event date's weekday,
// evaluated in the venue's timezone. No active rule means no cutoff.
func CheckCutoff(ctx context.Context, q shared_models.Querier, date time.Time, now time.Time, rules Rules) error {
	var cutoffTime string
	err := q.QueryRow(ctx,
		`SELECT cutoff_time FROM cutoff_rules WHERE day_of_week = $1 AND is_active = TRUE`,
		int(date.Weekday())).Scan(&cutoffTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to fetch cutoff rule for weekday %d: %v", int(date.Weekday()), err)
		return fmt.Errorf("database error fetching cutoff rule: %w", err)
	}

	passed, err := bookingdate.CutoffPassed(date, cutoffTime, now, rules.Location)
	if err != nil {
		return fmt.Errorf("invalid cutoff rule for weekday %d: %w", int(date.Weekday()), err)
	}
	if passed {
		return utils.NewValidationError(utils.ReasonPastCutoff,
			fmt.Sprintf("bookings for this date closed at %s venue time", cutoffTime))
	}
	return nil
}

// CheckAndReserve validates the date and every requested line, then
// decrements inventory. It must run inside the booking transaction: the
// per-row conditional decrement (available_quantity >= quantity) is the
// compare-and-swap that resolves races. When another transaction claims
// the stock first, zero rows are affected and the whole reservation is
// rolled back with the transaction.
func CheckAndReserve(ctx context.Context, tx shared_models.Querier, date time.Time, lines []Line, now time.Time, rules Rules) error {
	if err := ValidateDate(date, now, rules); err != nil {
		return err
	}

	reason, blackedOut, err := GetBlackoutReason(ctx, tx, date)
	if err != nil {
		return err
	}
	if blackedOut {
		msg := "this date is not available for bookings"
		if reason != "" {
			msg = fmt.Sprintf("this date is not available for bookings: %s", reason)
		}
		return utils.NewValidationError(utils.ReasonBlackoutDate, msg)
	}

	if err := CheckCutoff(ctx, tx, date, now, rules); err != nil {
		return err
	}

	// First pass: read-only checks so failures name the offending item
	// without touching any row.
	for _, line := range lines {
		var available int
		var isAvailable bool
		err := tx.QueryRow(ctx,
			`SELECT available_quantity, is_available FROM dated_inventory
			 WHERE item_kind = $1 AND item_id = $2 AND event_date = $3`,
			line.Kind, line.ItemID, date).Scan(&available, &isAvailable)
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing row is a policy decision, not a server error: no
			// availability was published for this item and date.
			return utils.NewValidationError(utils.ReasonNoAvailabilityData,
				fmt.Sprintf("no availability data for %s on %s", line.describe(), date.Format(bookingdate.DateLayout)))
		}
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to fetch inventory for %s %s: %v", line.Kind, line.ItemID, err)
			return fmt.Errorf("database error fetching inventory: %w", err)
		}
		if !isAvailable || line.Quantity > available {
			return utils.NewConflictError(utils.ReasonInsufficientAvailability,
				fmt.Sprintf("only %d of %s left for %s", available, line.describe(), date.Format(bookingdate.DateLayout)))
		}
	}

	// Second pass: conditional decrements. A zero-row update means a
	// concurrent reservation won between our check and this write; failing
	// here aborts the caller's transaction and undoes earlier decrements.
	for _, line := range lines {
		tag, err := tx.Exec(ctx,
			`UPDATE dated_inventory
			 SET available_quantity = available_quantity - $4, updated_at = NOW()
			 WHERE item_kind = $1 AND item_id = $2 AND event_date = $3
			   AND is_available = TRUE AND available_quantity >= $4`,
			line.Kind, line.ItemID, date, line.Quantity)
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to decrement inventory for %s %s: %v", line.Kind, line.ItemID, err)
			return fmt.Errorf("database error reserving inventory: %w", err)
		}
		if tag.RowsAffected() == 0 {
			logger.WarnLogger.Warnf("Lost inventory race for %s %s on %s", line.Kind, line.ItemID, date.Format(bookingdate.DateLayout))
			return utils.NewConflictError(utils.ReasonInsufficientAvailability,
				fmt.Sprintf("%s was claimed by another booking, try a different quantity or date", line.describe()))
		}
	}

	return nil
}

func (l Line) describe() string {
	if l.ItemName != "" {
		return fmt.Sprintf("%s %q", l.Kind, l.ItemName)
	}
	return fmt.Sprintf("%s %s", l.Kind, l.ItemID)
}

// ItemAvailability is one row of the read-only availability report.
type ItemAvailability struct {
	ItemRef           uuid.UUID `json:"itemRef"`
	Kind              string    `json:"kind"`
	Name              string    `json:"name"`
	IsAvailable       bool      `json:"isAvailable"`
	AvailableQuantity int       `json:"availableQuantity"`
	Message           string    `json:"message,omitempty"`
}

// QueryAvailability builds the availability report for a date without
// mutating anything. When the date is blacked out every item reports
// unavailable regardless of its counters.
func QueryAvailability(ctx context.Context, q shared_models.Querier, date time.Time, items []Item) ([]ItemAvailability, bool, error) {
	_, blackedOut, err := GetBlackoutReason(ctx, q, date)
	if err != nil {
		return nil, false, err
	}

	report := make([]ItemAvailability, 0, len(items))
	for _, item := range items {
		entry := ItemAvailability{ItemRef: item.ID, Kind: item.Kind, Name: item.Name}

		var available int
		var isAvailable bool
		err := q.QueryRow(ctx,
			`SELECT available_quantity, is_available FROM dated_inventory
			 WHERE item_kind = $1 AND item_id = $2 AND event_date = $3`,
			item.Kind, item.ID, date).Scan(&available, &isAvailable)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			entry.Message = "no availability data for this date"
		case err != nil:
			logger.ErrorLogger.Errorf("Failed to fetch inventory for %s %s: %v", item.Kind, item.ID, err)
			return nil, false, fmt.Errorf("database error fetching inventory: %w", err)
		default:
			entry.AvailableQuantity = available
			entry.IsAvailable = isAvailable && available > 0
		}

		if blackedOut {
			entry.IsAvailable = false
			if entry.Message == "" {
				entry.Message = "date is blacked out"
			}
		}
		report = append(report, entry)
	}
	return report, blackedOut, nil
}

// Item is the minimal catalog shape the availability report needs.
type Item struct {
	ID   uuid.UUID
	Kind string
	Name string
}
