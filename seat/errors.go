package seat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinels matched with errors.Is against the typed errors below
var (
	ErrNetwork     = errors.New("seat: network error")
	ErrServer      = errors.New("seat: server error")
	ErrRateLimited = errors.New("seat: rate limited")
)

// ErrUnknownStatus is returned when the API sends a status outside the fixed set
func ErrUnknownStatus(status string) error {
	return fmt.Errorf("seat: unknown status %q", status)
}

// NetworkError is a transport level failure where no response was received
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("seat: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError is a non-2xx, non-429 response from the seat API
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("seat: server error: status %d", e.Status)
	}
	return fmt.Sprintf("seat: server error: status %d: %s", e.Status, e.Message)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// RateLimitedError is a 429 response, or a refresh refused locally because
// the key is inside its cool-down window.
type RateLimitedError struct {
	// RetryAfter is the server supplied wait, zero when absent
	RetryAfter time.Duration
	// Until is the end of the local cool-down window, set for local refusals
	Until time.Time
	// Local is true when no request was sent
	Local   bool
	Message string
}

func (e *RateLimitedError) Error() string {
	switch {
	case e.Local:
		return fmt.Sprintf("seat: rate limited until %s", e.Until.Format(time.RFC3339))
	case e.RetryAfter > 0:
		return fmt.Sprintf("seat: rate limited, retry after %s", e.RetryAfter)
	case e.Message != "":
		return "seat: rate limited: " + e.Message
	}
	return "seat: rate limited"
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// StatusCode returns the HTTP-style status carried by err, 0 for transport
// failures and unclassified errors.
func StatusCode(err error) int {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// RetryAfter reports whether err is a rate-limit response and the server
// supplied wait, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		return 0, false
	}
	return rl.RetryAfter, true
}

// Classify maps an arbitrary fetch error onto the taxonomy. Typed errors and
// context errors are returned unchanged, anything else becomes a NetworkError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		ne *NetworkError
		se *ServerError
		rl *RateLimitedError
	)
	if errors.As(err, &ne) || errors.As(err, &se) || errors.As(err, &rl) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &NetworkError{Err: err}
}
