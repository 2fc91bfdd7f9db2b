// Package db reads the event catalogue from MySQL. Seatsync only needs the
// list of events worth warming, so the package exposes a small read-only
// EventSource on top of a pooled gorm connection.
package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Database is the interface for the database
type Database interface {
	DB() (*gorm.DB, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventSource lists events whose seat maps should be kept warm
type EventSource interface {
	// ActiveEventIDs returns ids of events with a seat layout that have not
	// ended and start within horizon, soonest first
	ActiveEventIDs(ctx context.Context, horizon time.Duration) ([]string, error)
}
