package main

import (
	"context"
	"errors"
	"slices"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/ch"
	"github.com/dailyyoga/seatsync/config"
	"github.com/dailyyoga/seatsync/cron"
	"github.com/dailyyoga/seatsync/db"
	"github.com/dailyyoga/seatsync/httpapi"
	"github.com/dailyyoga/seatsync/kafka"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seatapi"
	"github.com/dailyyoga/seatsync/snapshot"
	"go.uber.org/zap"
)

// app is the fully wired service. Integrations left out of the config are
// nil.
type app struct {
	cfg    *config.Config
	logger logger.Logger

	cache    cache.SeatCache
	snapshot *snapshot.RedisStore
	producer kafka.Producer
	consumer kafka.Consumer
	chClient ch.Client
	fetchLog *ch.FetchLog
	database db.Database
	events   db.EventSource
	cron     cron.Cron
	server   *httpapi.Server

	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// buildApp connects every configured integration. On failure everything
// already opened is closed again.
func buildApp(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	api, err := seatapi.New(log, cfg.API)
	if err != nil {
		return nil, err
	}

	var (
		sinks []cache.Sink
		opts  []cache.Option
	)
	if cfg.Redis != nil {
		if a.snapshot, err = snapshot.New(ctx, log, cfg.Redis); err != nil {
			return nil, err
		}
		a.onClose(a.snapshot.Close)
		sinks = append(sinks, a.snapshot)
		opts = append(opts, cache.WithSnapshotLoader(a.snapshot))
	}
	if cfg.Kafka != nil && cfg.Kafka.Producer != nil {
		if a.producer, err = kafka.NewProducer(log, cfg.Kafka.Producer); err != nil {
			return nil, err
		}
		a.onClose(a.producer.Close)
		sinks = append(sinks, kafka.NewPublisher(a.producer, cfg.Kafka.Producer.Topic))
	}
	if cfg.CH != nil {
		if a.chClient, err = ch.NewClient(cfg.CH, log); err != nil {
			return nil, err
		}
		a.onClose(a.chClient.Close)
		if err = a.chClient.EnsureTable(ctx); err != nil {
			return nil, err
		}
		a.fetchLog = ch.NewFetchLog(a.chClient, cfg.CH.WriterConfig, log)
		a.fetchLog.Start()
		a.onClose(a.fetchLog.Close)
		sinks = append(sinks, a.fetchLog)
	}
	opts = append(opts, cache.WithSinks(sinks...))

	if a.cache, err = cache.New(log, cfg.Cache, api, opts...); err != nil {
		return nil, err
	}
	a.onClose(func() error {
		a.cache.Close()
		return nil
	})

	if cfg.MySQL != nil {
		if a.database, err = db.NewMySQL(log, cfg.MySQL); err != nil {
			return nil, err
		}
		a.onClose(a.database.Close)
		gdb, err := a.database.DB()
		if err != nil {
			return nil, err
		}
		a.events = db.NewEventSource(log, gdb, cfg.MySQL.EventTable, nil)
	}

	a.cron = cron.NewCron(log, cron.TimeoutMiddleware(cfg.Warmup.Timeout))
	a.onClose(func() error {
		a.cron.Close()
		return nil
	})
	if a.events != nil || len(cfg.Warmup.EventIDs) > 0 {
		if err = a.cron.AddChain(cron.WarmupChain(log, cfg.Warmup, a.events, a.cache)); err != nil {
			return nil, err
		}
	}

	if cfg.Kafka != nil && cfg.Kafka.Consumer != nil {
		if a.consumer, err = kafka.NewConsumer(log, cfg.Kafka.Consumer); err != nil {
			return nil, err
		}
		a.onClose(a.consumer.Close)
	}

	if a.server, err = httpapi.NewServer(log, cfg.HTTP, a.cache, nil); err != nil {
		return nil, err
	}
	return a, nil
}

// warmIDs lists the events to preload at startup
func (a *app) warmIDs(ctx context.Context) []string {
	ids := slices.Clone(a.cfg.Warmup.EventIDs)
	if a.events != nil {
		found, err := a.events.ActiveEventIDs(ctx, a.cfg.Warmup.Horizon)
		if err != nil {
			a.logger.Warn("failed to list events for preload", zap.Error(err))
		}
		ids = append(ids, found...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// run preloads snapshots, starts the background feeds and serves HTTP
// until ctx is done
func (a *app) run(ctx context.Context) error {
	if a.snapshot != nil {
		if ids := a.warmIDs(ctx); len(ids) > 0 {
			n := a.cache.Preload(ctx, ids)
			a.logger.Info("snapshots preloaded", zap.Int("requested", len(ids)), zap.Int("seeded", n))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Start(ctx, kafka.InvalidationHandler(a.logger, a.cache)); err != nil {
			return err
		}
	}
	a.cron.Start()

	return a.server.Run(ctx)
}

// Close releases integrations in reverse order of creation
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
