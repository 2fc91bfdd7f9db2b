package seatapi

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedScheme is returned for base URLs that are not http or https
var ErrUnsupportedScheme = errors.New("seatapi: scheme must be http or https")

// ErrInvalidBaseURL returns an error for an unusable base URL
func ErrInvalidBaseURL(raw string, err error) error {
	return fmt.Errorf("seatapi: invalid base url %q: %w", raw, err)
}

// ErrInvalidTimeout returns an error for a negative timeout
func ErrInvalidTimeout(d time.Duration) error {
	return fmt.Errorf("seatapi: invalid timeout: %v (must be >= 0)", d)
}

// ErrInvalidMinInterval returns an error for a negative request interval
func ErrInvalidMinInterval(d time.Duration) error {
	return fmt.Errorf("seatapi: invalid min interval: %v (must be >= 0)", d)
}

// ErrInvalidMaxBodyBytes returns an error for a negative body limit
func ErrInvalidMaxBodyBytes(n int64) error {
	return fmt.Errorf("seatapi: invalid max body bytes: %d (must be >= 0)", n)
}

// ErrDecode returns an error for a response body that is not a seat list
func ErrDecode(err error) error {
	return fmt.Errorf("seatapi: failed to decode seats: %w", err)
}

// ErrEmptyEventID is returned when FetchSeats is called without an id
var ErrEmptyEventID = errors.New("seatapi: empty event id")
