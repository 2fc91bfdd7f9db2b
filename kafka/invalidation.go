package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

// Invalidation announces that the seats of an event changed upstream
type Invalidation struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason,omitempty"`
	// Force refreshes even inside the cool-down window
	Force bool `json:"force,omitempty"`
}

// Refresher is the part of cache.SeatCache the invalidation feed needs
type Refresher interface {
	Refresh(ctx context.Context, key string, opts ...cache.RefreshOption) ([]seat.Record, error)
}

// InvalidationHandler refreshes the event named by each message.
//
// Undecodable messages and failed fetches are acknowledged: the failure is
// recorded on the cache entry and polling will retry, so redelivery would
// only add load. A refresh refused by the cool-down window is acknowledged
// too. Only cancellation of ctx leaves the message uncommitted.
func InvalidationHandler(log logger.Logger, r Refresher) ConsumerMsgHandler {
	return func(ctx context.Context, msg *Message) error {
		var inv Invalidation
		if err := json.Unmarshal(msg.Value, &inv); err != nil {
			log.Warn("dropping undecodable invalidation", zap.Error(err), zap.ByteString("value", msg.Value))
			return nil
		}
		if inv.EventID == "" {
			inv.EventID = string(msg.Key)
		}
		if inv.EventID == "" {
			log.Warn("dropping invalidation without event id", zap.ByteString("value", msg.Value))
			return nil
		}

		var opts []cache.RefreshOption
		if inv.Force {
			opts = append(opts, cache.IgnoreRateLimit())
		}
		seats, err := r.Refresh(ctx, inv.EventID, opts...)
		switch {
		case err == nil:
			log.Debug("invalidation applied",
				zap.String("event_id", inv.EventID),
				zap.String("reason", inv.Reason),
				zap.Int("seats", len(seats)),
			)
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, seat.ErrRateLimited):
			log.Info("invalidation deferred by rate limit",
				zap.String("event_id", inv.EventID),
				zap.Error(err),
			)
			return nil
		default:
			log.Warn("invalidation refresh failed",
				zap.String("event_id", inv.EventID),
				zap.Error(err),
			)
			return nil
		}
	}
}
