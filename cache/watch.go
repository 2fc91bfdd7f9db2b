package cache

import (
	"context"
	"sync"

	"github.com/smallnest/chanx"
)

// Watch streams snapshots of key until ctx is done or the cache is closed.
// The first value is the state of key once the listener is registered. The
// channel is unbounded so a slow reader never blocks notification of other
// subscribers.
func (sc *seatCache) Watch(ctx context.Context, key string, opts ...SubscribeOption) <-chan Snapshot {
	ch := chanx.NewUnboundedChan[Snapshot](context.Background(), 8)

	var (
		mu     sync.Mutex
		ready  bool
		closed bool
		last   uint64
	)
	send := func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if !ready || closed || s.version < last {
			return
		}
		last = s.version
		ch.In <- s
	}

	sub := sc.Subscribe(key, send, opts...)

	// Read only after registering: a transition that completes around the
	// subscription is either in this snapshot or notified after it. A
	// notification taken before this read carries an older version and is
	// dropped.
	mu.Lock()
	first := sub.Snapshot()
	last = first.version
	ch.In <- first
	ready = true
	mu.Unlock()

	sc.runner.Go("seat-watch:"+key, func() {
		select {
		case <-ctx.Done():
		case <-sc.ctx.Done():
		}
		sub.Close()
		mu.Lock()
		closed = true
		close(ch.In)
		mu.Unlock()
	})
	return ch.Out
}
