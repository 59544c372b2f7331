// utils/errors.go
package utils

import "net/http"

// Stable machine-readable reason codes surfaced by the booking API.
// Clients and the admin dashboard branch on these, so they never change.
const (
	ReasonInvalidDate              = "InvalidDate"
	ReasonUnsupportedDay           = "UnsupportedDay"
	ReasonPastDate                 = "PastDate"
	ReasonBlackoutDate             = "BlackoutDate"
	ReasonPastCutoff               = "PastCutoff"
	ReasonNoAvailabilityData       = "NoAvailabilityData"
	ReasonInsufficientAvailability = "InsufficientAvailability"
	ReasonInvalidCustomer          = "InvalidCustomer"
	ReasonInvalidPromoCode         = "InvalidPromoCode"
	ReasonItemNotFound             = "ItemNotFound"
	ReasonItemInactive             = "ItemInactive"
	ReasonNoPricingAvailable       = "NoPricingAvailable"
	ReasonBookingNotFound          = "BookingNotFound"
)

// ReasonError is an error with a stable reason code and the HTTP status it
// maps to. Validation and conflict failures travel through the stack as
// ReasonErrors so the handler can report them without coalescing; anything
// else is treated as a persistence failure and reported generically.
type ReasonError struct {
	Code    string
	Message string
	Status  int
}

func (e *ReasonError) Error() string {
	return e.Message
}

// NewValidationError reports malformed or unbookable input.
func NewValidationError(code, message string) *ReasonError {
	return &ReasonError{Code: code, Message: message, Status: http.StatusBadRequest}
}

// NewConflictError reports a race lost to a concurrent request: exhausted
// inventory, a promo usage limit hit, a racing decrement.
func NewConflictError(code, message string) *ReasonError {
	return &ReasonError{Code: code, Message: message, Status: http.StatusConflict}
}

// NewNotFoundError reports a lookup miss.
func NewNotFoundError(code, message string) *ReasonError {
	return &ReasonError{Code: code, Message: message, Status: http.StatusNotFound}
}
