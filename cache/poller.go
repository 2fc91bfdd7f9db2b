package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"go.uber.org/zap"
)

// Poller drives automatic refreshes for active subscriptions: a staleness
// check when the subscription starts and an optional interval ticker.
type Poller struct {
	logger logger.Logger
	store  *Store
	coord  *Coordinator
	clock  clock.Clock
	runner routine.Runner
}

// NewPoller creates a poller
func NewPoller(log logger.Logger, store *Store, coord *Coordinator, clk clock.Clock, runner routine.Runner) *Poller {
	return &Poller{logger: log, store: store, coord: coord, clock: clk, runner: runner}
}

// Activate starts automatic refresh of key for one subscription. The
// returned stop disposes the ticker and may be called more than once.
func (p *Poller) Activate(ctx context.Context, key string, ttl, interval time.Duration) (stop func()) {
	if _, err := p.coord.TriggerIfStale(key, ttl); err != nil {
		p.logger.Debug("staleness refresh skipped", zap.String("event_id", key), zap.Error(err))
	}
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := p.clock.NewTicker(interval)
	p.runner.GoContext(ctx, "seat-poll:"+key, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				p.tick(key)
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			cancel()
		})
	}
}

func (p *Poller) tick(key string) {
	if p.rateLimited(key) {
		return
	}
	if _, err := p.coord.Trigger(key, false); err != nil {
		p.logger.Debug("poll refresh skipped", zap.String("event_id", key), zap.Error(err))
	}
}

func (p *Poller) rateLimited(key string) bool {
	until := p.store.Get(key).RateLimitedUntil
	return p.clock.Now().Before(until)
}
