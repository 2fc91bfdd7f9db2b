package cache

import (
	"context"
	"time"

	"github.com/dailyyoga/seatsync/seat"
)

// Outcome describes one completed fetch
type Outcome struct {
	Key              string
	Seats            []seat.Record
	Err              error
	RateLimitedUntil time.Time
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Succeeded reports whether the fetch returned seats
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Sink receives every fetch outcome after subscribers have been notified.
// Sinks run on their own goroutine; errors are logged, never propagated.
type Sink interface {
	Name() string
	Record(ctx context.Context, o Outcome) error
}

// SnapshotLoader returns a previously stored snapshot for key. ok is false
// when nothing is stored.
type SnapshotLoader interface {
	Load(ctx context.Context, key string) (seats []seat.Record, updatedAt time.Time, ok bool, err error)
}
