// Package cache keeps per-event seat availability fresh for many concurrent
// observers while the seat API may rate-limit requests.
//
// Components, leaves first:
// - Store: keyed table of entries, the single source of truth
// - Backoff: rate-limit cool-down window per key
// - Coordinator: at most one fetch per key, writes results into Store
// - Hub: per-key listener sets and fan-out notification
// - Poller: staleness-on-activate and interval refresh per subscription
package cache

import (
	"context"
	"time"

	"github.com/dailyyoga/seatsync/seat"
)

// Fetcher performs the remote seat query for one event
type Fetcher interface {
	FetchSeats(ctx context.Context, eventID string) ([]seat.Record, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, eventID string) ([]seat.Record, error)

// FetchSeats calls f
func (f FetcherFunc) FetchSeats(ctx context.Context, eventID string) ([]seat.Record, error) {
	return f(ctx, eventID)
}

// Snapshot is a read-only copy of an entry's observable state
type Snapshot struct {
	Key              string
	Seats            []seat.Record
	Loading          bool
	Err              error
	UpdatedAt        time.Time
	RateLimitedUntil time.Time

	version uint64
}

// Listener is invoked synchronously on every state transition of a key
type Listener func(Snapshot)

// SeatCache is the entry point used by UIs and background jobs
type SeatCache interface {
	// Subscribe registers listener for key and activates staleness and
	// interval refresh for it. The returned Subscription must be closed
	// when the observer goes away.
	Subscribe(key string, listener Listener, opts ...SubscribeOption) *Subscription

	// Refresh fetches key now, joining an in-flight fetch if there is one.
	// It fails immediately with *seat.RateLimitedError while the key is in
	// its cool-down window unless IgnoreRateLimit is given.
	// Cancelling ctx abandons the wait, not the shared fetch.
	Refresh(ctx context.Context, key string, opts ...RefreshOption) ([]seat.Record, error)

	// Read returns the current snapshot, Idle defaults before the first fetch
	Read(key string) Snapshot

	// Known reports whether the cache holds an entry for key. Unlike Read it
	// never creates one.
	Known(key string) bool

	// Watch is a channel form of Subscribe. The current snapshot is sent
	// first; the channel is closed once ctx is done.
	Watch(ctx context.Context, key string, opts ...SubscribeOption) <-chan Snapshot

	// Preload seeds never-fetched keys from the configured SnapshotLoader
	Preload(ctx context.Context, keys []string) int

	// Close stops every poller and waits for in-flight fetches and sinks
	Close()
}
