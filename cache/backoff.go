package cache

import "time"

const (
	// MinBackoff is the floor of the rate-limit cool-down window
	MinBackoff = 15 * time.Second
	// MaxBackoff is the ceiling of the doubled cool-down window
	MaxBackoff = 120 * time.Second
	// DefaultCacheDuration is the TTL used for staleness-on-activate
	DefaultCacheDuration = 15 * time.Second
)

// Backoff tracks the rate-limit cool-down window of an entry.
//
// Each rate-limit failure doubles the recorded window up to MaxBackoff,
// starting from MinBackoff on an entry that never recorded one. A server
// supplied retry-after is used verbatim and becomes the base of the next
// doubling. A successful fetch resets the recorded window to MinBackoff.
type Backoff struct{}

// OnSuccess clears the window and resets the magnitude to the floor
func (Backoff) OnSuccess(e *Entry) {
	e.RateLimitedUntil = time.Time{}
	e.RateLimitBackoff = MinBackoff
}

// OnRateLimited opens a new window starting at now and returns its length.
// retryAfter <= 0 means the origin gave no explicit wait.
func (Backoff) OnRateLimited(e *Entry, retryAfter time.Duration, now time.Time) time.Duration {
	next := retryAfter
	if next <= 0 {
		next = nextWindow(e)
	}
	e.RateLimitedUntil = now.Add(next)
	e.RateLimitBackoff = next
	return next
}

// nextWindow doubles the recorded magnitude. Only an entry that never
// recorded one starts at the floor; OnSuccess records the floor, so the
// first failure after a success waits twice the floor.
func nextWindow(e *Entry) time.Duration {
	if e.RateLimitBackoff <= 0 {
		return MinBackoff
	}
	return min(e.RateLimitBackoff*2, MaxBackoff)
}
