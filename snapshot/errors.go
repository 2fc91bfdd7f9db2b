package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAddr is returned when no Redis address is configured
var ErrInvalidAddr = errors.New("snapshot: redis addr is required")

// ErrInvalidDB returns an error for a negative database index
func ErrInvalidDB(db int) error {
	return fmt.Errorf("snapshot: invalid redis db: %d (must be >= 0)", db)
}

// ErrInvalidTTL returns an error for a negative ttl
func ErrInvalidTTL(d time.Duration) error {
	return fmt.Errorf("snapshot: invalid ttl: %v (must be >= 0)", d)
}

// ErrConnect returns an error for a failed startup ping
func ErrConnect(addr string, err error) error {
	return fmt.Errorf("snapshot: failed to connect to redis %s: %w", addr, err)
}

// ErrEncode returns an error for a snapshot that cannot be encoded
func ErrEncode(key string, err error) error {
	return fmt.Errorf("snapshot: failed to encode %s: %w", key, err)
}

// ErrDecode returns an error for a stored value that cannot be decoded
func ErrDecode(key string, err error) error {
	return fmt.Errorf("snapshot: failed to decode %s: %w", key, err)
}
