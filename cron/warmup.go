package cron

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

// Warm-up chain and task names
const (
	WarmupChainName   = "warmup"
	ListEventsTask    = "list-events"
	RefreshEventsTask = "refresh-events"

	// eventIDsKey holds the []string produced by list-events
	eventIDsKey = "event_ids"
)

// WarmupConfig controls the scheduled warm-up of upcoming events
type WarmupConfig struct {
	// Spec is a six field cron spec
	// default: "0 */5 * * * *"
	Spec string `mapstructure:"spec"`
	// Horizon bounds how far ahead events from the event source are warmed
	// default: 48h
	Horizon time.Duration `mapstructure:"horizon"`
	// EventIDs are always warmed, in addition to the event source
	EventIDs []string `mapstructure:"event_ids"`
	// Timeout bounds each task of the chain
	// default: 2m
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultWarmupConfig returns the default warm-up configuration
func DefaultWarmupConfig() *WarmupConfig {
	return &WarmupConfig{
		Spec:    "0 */5 * * * *",
		Horizon: 48 * time.Hour,
		Timeout: 2 * time.Minute,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *WarmupConfig) MergeDefaults() *WarmupConfig {
	d := DefaultWarmupConfig()
	if c.Spec == "" {
		c.Spec = d.Spec
	}
	if c.Horizon == 0 {
		c.Horizon = d.Horizon
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// Validate validates the configuration
func (c *WarmupConfig) Validate() error {
	if c.Horizon < 0 {
		return ErrInvalidConfig("horizon cannot be negative")
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig("timeout cannot be negative")
	}
	return nil
}

// EventLister lists the events worth warming, db.EventSource implements it
type EventLister interface {
	ActiveEventIDs(ctx context.Context, horizon time.Duration) ([]string, error)
}

// Refresher is the part of cache.SeatCache the warm-up needs
type Refresher interface {
	Refresh(ctx context.Context, key string, opts ...cache.RefreshOption) ([]seat.Record, error)
}

// WarmupChain builds the list-events → refresh-events chain. source may be
// nil, in which case only the configured event ids are warmed.
func WarmupChain(log logger.Logger, cfg *WarmupConfig, source EventLister, r Refresher) Chain {
	return Chain{
		Name: WarmupChainName,
		Spec: cfg.Spec,
		Tasks: []Task{
			&listEvents{logger: log, ids: cfg.EventIDs, horizon: cfg.Horizon, source: source},
			&refreshEvents{logger: log, refresher: r},
		},
	}
}

// EventIDs returns the ids stored by list-events in the chain context
func EventIDs(ctx context.Context) []string {
	ids, _ := Value[[]string](GetSharedData(ctx), eventIDsKey)
	return ids
}

type listEvents struct {
	logger  logger.Logger
	ids     []string
	horizon time.Duration
	source  EventLister
}

func (t *listEvents) Name() string { return ListEventsTask }

func (t *listEvents) Run(ctx context.Context) error {
	ids := slices.Clone(t.ids)
	if t.source != nil {
		found, err := t.source.ActiveEventIDs(ctx, t.horizon)
		if err != nil {
			return ErrListEvents(err)
		}
		ids = append(ids, found...)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return ErrNoEvents
	}

	shared := GetSharedData(ctx)
	if shared == nil {
		return ErrInvalidConfig("list-events must run inside a chain")
	}
	shared.Set(eventIDsKey, ids)
	t.logger.Info("events listed for warm-up", zap.Int("count", len(ids)))
	return nil
}

type refreshEvents struct {
	logger    logger.Logger
	refresher Refresher
}

func (t *refreshEvents) Name() string { return RefreshEventsTask }

// Run refreshes every listed event. Individual fetch failures are logged and
// skipped, a refresh refused by the cool-down window is not a failure.
func (t *refreshEvents) Run(ctx context.Context) error {
	ids := EventIDs(ctx)
	var refreshed, limited, failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := t.refresher.Refresh(ctx, id)
		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, seat.ErrRateLimited):
			limited++
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			failed++
			t.logger.Warn("warm-up refresh failed", zap.String("event_id", id), zap.Error(err))
		}
	}
	t.logger.Info("warm-up refresh finished",
		zap.Int("refreshed", refreshed),
		zap.Int("rate_limited", limited),
		zap.Int("failed", failed),
	)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
