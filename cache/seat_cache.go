package cache

import (
	"context"
	"sync"

	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

type seatCache struct {
	logger logger.Logger
	config *Config

	store  *Store
	hub    *Hub
	coord  *Coordinator
	poller *Poller

	clock  clock.Clock
	runner routine.Runner
	sinks  []Sink
	loader SnapshotLoader

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a seat cache fetching through fetcher
func New(log logger.Logger, cfg *Config, fetcher Fetcher, opts ...Option) (SeatCache, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sc := &seatCache{
		logger: log,
		config: cfg,
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.runner == nil {
		sc.runner = routine.New(log)
	}
	if sc.store == nil {
		sc.store = NewStore()
	}

	sc.ctx, sc.cancel = context.WithCancel(context.Background())
	sc.hub = NewHub(log, sc.store)
	sc.coord = NewCoordinator(sc.ctx, log, sc.store, sc.hub, fetcher, sc.clock, sc.runner, sc.sinks, cfg.SinkTimeout)
	sc.poller = NewPoller(log, sc.store, sc.coord, sc.clock, sc.runner)

	log.Info("seat cache initialized",
		zap.Duration("cache_duration", cfg.CacheDuration),
		zap.Bool("cancel_when_idle", cfg.CancelWhenIdle),
		zap.Int("sinks", len(sc.sinks)),
	)
	return sc, nil
}

func (sc *seatCache) resolve(opts []SubscribeOption) subscribeOptions {
	o := subscribeOptions{enabled: true, cacheDuration: sc.config.CacheDuration}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (sc *seatCache) Subscribe(key string, listener Listener, opts ...SubscribeOption) *Subscription {
	o := sc.resolve(opts)
	sub := &Subscription{key: key, sc: sc, enabled: o.enabled}
	if key == "" {
		return sub
	}

	unsubscribe := sc.hub.Subscribe(key, func(s Snapshot) {
		listener(sub.mask(s))
	})
	sub.release = append(sub.release, unsubscribe)

	ok := false
	defer func() {
		if !ok {
			sub.Close()
		}
	}()
	if o.enabled {
		stop := sc.poller.Activate(sc.ctx, key, o.cacheDuration, o.refreshInterval)
		sub.release = append(sub.release, stop)
	}
	ok = true
	return sub
}

func (sc *seatCache) Refresh(ctx context.Context, key string, opts ...RefreshOption) ([]seat.Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	var o refreshOptions
	for _, opt := range opts {
		opt(&o)
	}
	return sc.coord.Refresh(ctx, key, o.ignoreRateLimit)
}

func (sc *seatCache) Read(key string) Snapshot {
	if key == "" {
		return Snapshot{}
	}
	return sc.store.Snapshot(key)
}

func (sc *seatCache) Known(key string) bool {
	return key != "" && sc.store.Has(key)
}

func (sc *seatCache) Preload(ctx context.Context, keys []string) int {
	if sc.loader == nil {
		return 0
	}
	seeded := 0
	for _, key := range keys {
		if key == "" {
			continue
		}
		seats, updatedAt, ok, err := sc.loader.Load(ctx, key)
		if err != nil {
			sc.logger.Warn("snapshot load failed", zap.String("event_id", key), zap.Error(err))
			continue
		}
		if ok && sc.coord.Seed(key, seats, updatedAt) {
			seeded++
		}
	}
	sc.logger.Info("seat cache preloaded", zap.Int("requested", len(keys)), zap.Int("seeded", seeded))
	return seeded
}

func (sc *seatCache) Close() {
	sc.closeOnce.Do(func() {
		sc.cancel()
		sc.coord.Stop()
		sc.runner.Wait()
		sc.logger.Info("seat cache closed", zap.Int("entries", sc.store.Len()))
	})
}

// idle is called after a subscription released its listener. A fetch a
// Refresh caller is still waiting for is left to finish.
func (sc *seatCache) idle(key string) {
	if !sc.config.CancelWhenIdle || sc.hub.Count(key) > 0 {
		return
	}
	if sc.coord.Cancel(key) {
		sc.logger.Debug("cancelled fetch without subscribers", zap.String("event_id", key))
	}
}

// Subscription is one observer's interest in a key. Close releases the
// listener and the subscription's pollers; it is safe to call more than once.
type Subscription struct {
	key     string
	sc      *seatCache
	enabled bool

	once    sync.Once
	release []func()
}

// Key returns the subscribed key
func (s *Subscription) Key() string { return s.key }

// Snapshot returns the current state of the key as this subscription sees it
func (s *Subscription) Snapshot() Snapshot {
	return s.mask(s.sc.Read(s.key))
}

// Refresh refreshes the subscribed key
func (s *Subscription) Refresh(ctx context.Context, opts ...RefreshOption) ([]seat.Record, error) {
	return s.sc.Refresh(ctx, s.key, opts...)
}

// Close unsubscribes
func (s *Subscription) Close() {
	s.once.Do(func() {
		for i := len(s.release) - 1; i >= 0; i-- {
			s.release[i]()
		}
		if len(s.release) > 0 {
			s.sc.idle(s.key)
		}
	})
}

func (s *Subscription) mask(snap Snapshot) Snapshot {
	if !s.enabled {
		snap.Loading = false
	}
	return snap
}
