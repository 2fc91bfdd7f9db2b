package db

import (
	"errors"
	"fmt"
)

// ErrConnectionNotEstablished is returned by a Database whose open failed
var ErrConnectionNotEstablished = errors.New("db: connection not established")

func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("db: invalid config: %s", msg)
}

func ErrConnection(err error) error {
	return fmt.Errorf("db: connect to event catalogue: %w", err)
}

// ErrQuery wraps a failed event catalogue query
func ErrQuery(err error) error {
	return fmt.Errorf("db: query events: %w", err)
}
