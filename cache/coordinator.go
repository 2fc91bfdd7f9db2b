package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

// call is the in-flight fetch of one key. Every refresh issued while it is
// pending joins it and receives the same outcome.
type call struct {
	done      chan struct{}
	seats     []seat.Record
	err       error
	cancel    context.CancelFunc
	startedAt time.Time
	// waiters counts Refresh callers blocked on done, guarded by the Store lock
	waiters int
}

func (c *call) wait(ctx context.Context) ([]seat.Record, error) {
	select {
	case <-c.done:
		return c.seats, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Coordinator issues at most one fetch per key at a time and writes the
// result into the Store. It is the only writer of entries.
type Coordinator struct {
	logger  logger.Logger
	store   *Store
	hub     *Hub
	backoff Backoff
	fetcher Fetcher
	clock   clock.Clock
	runner  routine.Runner

	sinks       []Sink
	sinkTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator. Fetches run under ctx; cancelling it
// aborts every pending fetch.
func NewCoordinator(ctx context.Context, log logger.Logger, store *Store, hub *Hub, fetcher Fetcher,
	clk clock.Clock, runner routine.Runner, sinks []Sink, sinkTimeout time.Duration) *Coordinator {
	ctx, cancel := context.WithCancel(ctx)
	return &Coordinator{
		logger:      log,
		store:       store,
		hub:         hub,
		fetcher:     fetcher,
		clock:       clk,
		runner:      runner,
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Refresh fetches key, joining the in-flight fetch if one exists. While key
// is inside its cool-down window it fails with *seat.RateLimitedError and
// issues no request, unless ignoreRateLimit is set. Cancelling ctx abandons
// the wait only.
func (co *Coordinator) Refresh(ctx context.Context, key string, ignoreRateLimit bool) ([]seat.Record, error) {
	c, err := co.trigger(key, ignoreRateLimit, true)
	if err != nil {
		return nil, err
	}
	defer co.store.Update(key, func(*Entry) { c.waiters-- })
	return c.wait(ctx)
}

// Trigger starts a fetch for key without waiting for it and returns the
// pending call, which may be one started earlier.
func (co *Coordinator) Trigger(key string, ignoreRateLimit bool) (*call, error) {
	return co.trigger(key, ignoreRateLimit, false)
}

func (co *Coordinator) trigger(key string, ignoreRateLimit, waiter bool) (*call, error) {
	c, _, err := co.start(key, true, waiter, func(e *Entry, now time.Time) error {
		if !ignoreRateLimit && now.Before(e.RateLimitedUntil) {
			return &seat.RateLimitedError{Local: true, Until: e.RateLimitedUntil}
		}
		return nil
	})
	return c, err
}

// TriggerIfStale starts a fetch when key was never fetched or is older than
// ttl and nothing is in flight. It reports whether a fetch was started.
// The cool-down window is honored.
func (co *Coordinator) TriggerIfStale(key string, ttl time.Duration) (bool, error) {
	_, started, err := co.start(key, false, false, func(e *Entry, now time.Time) error {
		if !e.UpdatedAt.IsZero() && now.Sub(e.UpdatedAt) <= ttl {
			return errFresh
		}
		if now.Before(e.RateLimitedUntil) {
			return &seat.RateLimitedError{Local: true, Until: e.RateLimitedUntil}
		}
		return nil
	})
	if errors.Is(err, errFresh) {
		return false, nil
	}
	return started, err
}

var errFresh = errors.New("cache: entry is fresh")

// start checks and sets the in-flight marker in one store update so two
// concurrent callers can never both start a fetch. When a fetch is already
// in flight it is returned if join is set; otherwise admit decides, and a
// non-nil result leaves the entry untouched. waiter registers the caller
// as blocked on the returned call.
func (co *Coordinator) start(key string, join, waiter bool, admit func(e *Entry, now time.Time) error) (*call, bool, error) {
	if co.ctx.Err() != nil {
		return nil, false, ErrClosed
	}

	var (
		c        *call
		started  bool
		rejected error
		fetchCtx context.Context
	)
	now := co.clock.Now()
	co.store.Update(key, func(e *Entry) {
		if e.inFlight != nil {
			if join {
				c = e.inFlight
				if waiter {
					c.waiters++
				}
			} else {
				rejected = errFresh
			}
			return
		}
		if rejected = admit(e, now); rejected != nil {
			return
		}
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithCancel(co.ctx)
		c = &call{done: make(chan struct{}), cancel: cancel, startedAt: now}
		if waiter {
			c.waiters = 1
		}
		e.inFlight = c
		e.Loading = true
		e.Err = nil
		started = true
	})
	if rejected != nil {
		if isRateLimited(rejected) {
			co.logger.Debug("refresh short-circuited",
				zap.String("event_id", key),
				zap.Error(rejected),
			)
		}
		return nil, false, rejected
	}
	if !started {
		return c, false, nil
	}

	co.hub.Notify(key)
	co.runner.Go("seat-fetch:"+key, func() {
		co.run(fetchCtx, key, c)
	})
	return c, true, nil
}

// run performs the fetch and records its outcome. The in-flight marker is
// cleared and waiters are released on every path, panics included.
func (co *Coordinator) run(ctx context.Context, key string, c *call) {
	defer c.cancel()

	seats, err := co.fetch(ctx, key)
	now := co.clock.Now()
	abandoned := err != nil && ctx.Err() != nil

	var (
		until  time.Time
		window time.Duration
	)
	co.store.Update(key, func(e *Entry) {
		defer func() {
			if e.inFlight == c {
				e.inFlight = nil
				e.Loading = false
			}
		}()
		switch {
		case err == nil:
			e.Seats = seats
			e.UpdatedAt = now
			e.Err = nil
			co.backoff.OnSuccess(e)
		case abandoned:
			// nobody is left to see it; keep the previous state
		default:
			e.Err = err
			if retryAfter, ok := seat.RetryAfter(err); ok {
				window = co.backoff.OnRateLimited(e, retryAfter, now)
				until = e.RateLimitedUntil
			}
		}
	})

	switch {
	case err == nil:
		co.logger.Debug("seats fetched",
			zap.String("event_id", key),
			zap.Int("seats", len(seats)),
			zap.Duration("took", now.Sub(c.startedAt)),
		)
	case abandoned:
		co.logger.Debug("fetch abandoned", zap.String("event_id", key), zap.Error(err))
	case !until.IsZero():
		co.logger.Warn("seat api rate limited",
			zap.String("event_id", key),
			zap.Duration("backoff", window),
			zap.Time("rate_limited_until", until),
		)
	default:
		co.logger.Warn("seat fetch failed", zap.String("event_id", key), zap.Error(err))
	}

	c.seats, c.err = seats, err
	co.hub.Notify(key)
	close(c.done)

	if !abandoned {
		co.dispatch(Outcome{
			Key:              key,
			Seats:            seats,
			Err:              err,
			RateLimitedUntil: until,
			StartedAt:        c.startedAt,
			FinishedAt:       now,
		})
	}
}

func (co *Coordinator) fetch(ctx context.Context, key string) ([]seat.Record, error) {
	var seats []seat.Record
	err := routine.Safe(func() error {
		var ferr error
		seats, ferr = co.fetcher.FetchSeats(ctx, key)
		return ferr
	})
	if err != nil {
		if errors.Is(err, routine.ErrPanicRecovered) {
			co.logger.Error("fetcher panicked", zap.String("event_id", key), zap.Error(err))
		}
		return nil, seat.Classify(err)
	}
	return seats, nil
}

// dispatch hands o to every sink on its own goroutine
func (co *Coordinator) dispatch(o Outcome) {
	for _, s := range co.sinks {
		co.runner.Go("seat-sink:"+s.Name(), func() {
			ctx, cancel := context.WithTimeout(context.Background(), co.sinkTimeout)
			defer cancel()
			if err := s.Record(ctx, o); err != nil {
				co.logger.Warn("sink failed",
					zap.String("sink", s.Name()),
					zap.String("event_id", o.Key),
					zap.Error(err),
				)
			}
		})
	}
}

// Cancel aborts the in-flight fetch of key, if any, unless a Refresh caller
// is waiting for it. The entry keeps its previous data.
func (co *Coordinator) Cancel(key string) bool {
	var c *call
	co.store.Update(key, func(e *Entry) {
		if e.inFlight != nil && e.inFlight.waiters == 0 {
			c = e.inFlight
		}
	})
	if c == nil {
		return false
	}
	c.cancel()
	return true
}

// Seed stores seats fetched elsewhere for a key that has never been fetched
// and has nothing in flight. It reports whether the entry was seeded.
func (co *Coordinator) Seed(key string, seats []seat.Record, updatedAt time.Time) bool {
	seeded := false
	co.store.Update(key, func(e *Entry) {
		if e.inFlight != nil || !e.UpdatedAt.IsZero() {
			return
		}
		e.Seats = seats
		e.UpdatedAt = updatedAt
		seeded = true
	})
	if seeded {
		co.hub.Notify(key)
	}
	return seeded
}

// Stop aborts every pending fetch and refuses new ones
func (co *Coordinator) Stop() {
	co.cancel()
}

func isRateLimited(err error) bool {
	return errors.Is(err, seat.ErrRateLimited)
}
