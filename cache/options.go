package cache

import (
	"time"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/routine"
)

type subscribeOptions struct {
	enabled         bool
	refreshInterval time.Duration
	cacheDuration   time.Duration
}

// SubscribeOption configures one subscription
type SubscribeOption func(*subscribeOptions)

// WithEnabled turns every automatic refresh of the subscription on or off.
// A disabled subscription still receives notifications but reports
// Loading as false.
func WithEnabled(enabled bool) SubscribeOption {
	return func(o *subscribeOptions) {
		o.enabled = enabled
	}
}

// WithRefreshInterval polls the key every d. Ticks that fall inside the
// cool-down window are skipped. d <= 0 disables polling.
func WithRefreshInterval(d time.Duration) SubscribeOption {
	return func(o *subscribeOptions) {
		o.refreshInterval = d
	}
}

// WithCacheDuration overrides the TTL used for staleness-on-activate
func WithCacheDuration(d time.Duration) SubscribeOption {
	return func(o *subscribeOptions) {
		o.cacheDuration = d
	}
}

type refreshOptions struct {
	ignoreRateLimit bool
}

// RefreshOption configures one Refresh call
type RefreshOption func(*refreshOptions)

// IgnoreRateLimit sends the request even inside the cool-down window
func IgnoreRateLimit() RefreshOption {
	return func(o *refreshOptions) {
		o.ignoreRateLimit = true
	}
}

// Option configures the cache
type Option func(*seatCache)

// WithClock replaces the wall clock, for tests
func WithClock(c clock.Clock) Option {
	return func(sc *seatCache) {
		sc.clock = c
	}
}

// WithRunner replaces the goroutine runner
func WithRunner(r routine.Runner) Option {
	return func(sc *seatCache) {
		sc.runner = r
	}
}

// WithSinks registers sinks receiving every fetch outcome
func WithSinks(sinks ...Sink) Option {
	return func(sc *seatCache) {
		sc.sinks = append(sc.sinks, sinks...)
	}
}

// WithSnapshotLoader sets the source used by Preload
func WithSnapshotLoader(l SnapshotLoader) Option {
	return func(sc *seatCache) {
		sc.loader = l
	}
}

// WithStore shares an existing store, e.g. with a second facade in tests
func WithStore(s *Store) Option {
	return func(sc *seatCache) {
		sc.store = s
	}
}
