package cache

import (
	"errors"
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrEmptyKey is returned when an operation is given an empty event key
	ErrEmptyKey = errors.New("cache: empty key")
	// ErrClosed is returned by Refresh after Close
	ErrClosed = errors.New("cache: cache is closed")
	// ErrNilFetcher is returned by New without a fetcher
	ErrNilFetcher = errors.New("cache: fetcher is required")
)

// ErrInvalidCacheDuration returns an error for a negative cache duration
func ErrInvalidCacheDuration(d time.Duration) error {
	return fmt.Errorf("cache: invalid cache duration: %v (must be >= 0)", d)
}

// ErrInvalidSinkTimeout returns an error for a negative sink timeout
func ErrInvalidSinkTimeout(d time.Duration) error {
	return fmt.Errorf("cache: invalid sink timeout: %v (must be >= 0)", d)
}
