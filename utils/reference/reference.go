// Package reference generates and validates booking references of the form
// PREFIX-YYYYMMDD-XXXXXX, where the date segment is the booking's creation
// date in UTC and the suffix is cryptographically random.
package reference

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	suffixLength = 6
	suffixChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrMalformedReference  = errors.New("malformed booking reference")
	ErrInvalidCalendarDate = errors.New("booking reference date is not a real calendar date")
)

// Reference is a parsed booking reference.
type Reference struct {
	Prefix string
	Date   time.Time
	Suffix string
}

func (r Reference) String() string {
	return fmt.Sprintf("%s-%s-%s", r.Prefix, r.Date.Format("20060102"), r.Suffix)
}

// Generate produces a new reference for the given instant. A zero time means
// "now". The suffix comes from crypto/rand so references are not guessable.
func Generate(prefix string, at time.Time) (string, error) {
	if at.IsZero() {
		at = time.Now()
	}

	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reference suffix: %w", err)
	}
	for i := range buf {
		buf[i] = suffixChars[int(buf[i])%len(suffixChars)]
	}

	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(prefix), at.UTC().Format("20060102"), string(buf)), nil
}

// Parse splits a reference into its segments. It fails with
// ErrMalformedReference when the shape is wrong and ErrInvalidCalendarDate
// when the date digits do not name a real date (e.g. February 30th).
func Parse(ref string) (Reference, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 3 {
		return Reference{}, ErrMalformedReference
	}

	prefix, dateSeg, suffix := parts[0], parts[1], parts[2]
	if prefix == "" || !isUpperAlnum(prefix) {
		return Reference{}, ErrMalformedReference
	}
	if len(dateSeg) != 8 || !isDigits(dateSeg) {
		return Reference{}, ErrMalformedReference
	}
	if len(suffix) != suffixLength || !isUpperAlnum(suffix) {
		return Reference{}, ErrMalformedReference
	}

	// time.Parse normalizes out-of-range days (Feb 30 -> Mar 1 or errors
	// depending on input), so round-trip the parsed value to be strict.
	date, err := time.ParseInLocation("20060102", dateSeg, time.UTC)
	if err != nil || date.Format("20060102") != dateSeg {
		return Reference{}, ErrInvalidCalendarDate
	}

	return Reference{Prefix: prefix, Date: date, Suffix: suffix}, nil
}

// Validate reports whether ref is a well-formed booking reference. It never
// returns an error; malformed input is simply false.
func Validate(ref string) bool {
	_, err := Parse(ref)
	return err == nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isUpperAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
