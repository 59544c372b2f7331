package booking_controller

import "errors"

var (
	ErrInvalidCustomer    = errors.New("guest bookings require a name and email")
	ErrMissingIdentity    = errors.New("registered bookings require an authenticated customer")
	ErrReferenceExhausted = errors.New("could not generate a unique booking reference")
)
