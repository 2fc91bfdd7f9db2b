// Package snapshot keeps the last successfully fetched seats of each event
// in Redis, so a restarted process can serve last-known-good inventory
// before its first fetch completes.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seat"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Redis-backed snapshot store. It is a cache.Sink that saves
// successful fetches and a cache.SnapshotLoader used by Preload.
type RedisStore struct {
	logger logger.Logger
	config *Config
	client redis.UniversalClient
}

var (
	_ cache.Sink           = (*RedisStore)(nil)
	_ cache.SnapshotLoader = (*RedisStore)(nil)
)

// New connects to Redis and verifies the connection with a ping
func New(ctx context.Context, log logger.Logger, cfg *Config) (*RedisStore, error) {
	if cfg == nil {
		return nil, ErrInvalidAddr
	}
	cfg = cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrConnect(cfg.Addr, err)
	}

	log.Info("snapshot store connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Duration("ttl", cfg.TTL),
	)
	return NewWithClient(log, cfg, client), nil
}

// NewWithClient wraps an existing client. cfg defaults are applied.
func NewWithClient(log logger.Logger, cfg *Config, client redis.UniversalClient) *RedisStore {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	return &RedisStore{logger: log, config: cfg, client: client}
}

func (s *RedisStore) key(eventID string) string {
	return s.config.KeyPrefix + eventID
}

// Save stores seats for eventID, replacing any previous snapshot
func (s *RedisStore) Save(ctx context.Context, eventID string, seats []seat.Record, updatedAt time.Time) error {
	data, err := encode(seats, updatedAt)
	if err != nil {
		return ErrEncode(eventID, err)
	}
	return s.client.Set(ctx, s.key(eventID), data, s.config.TTL).Err()
}

// Load returns the stored snapshot of eventID. ok is false when none exists.
func (s *RedisStore) Load(ctx context.Context, eventID string) ([]seat.Record, time.Time, bool, error) {
	data, err := s.client.Get(ctx, s.key(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	seats, updatedAt, err := decode(data)
	if err != nil {
		return nil, time.Time{}, false, ErrDecode(eventID, err)
	}
	return seats, updatedAt, true, nil
}

// Delete removes the snapshot of eventID
func (s *RedisStore) Delete(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, s.key(eventID)).Err()
}

// Name implements cache.Sink
func (s *RedisStore) Name() string { return "redis-snapshot" }

// Record implements cache.Sink. Failed fetches are ignored so the stored
// snapshot stays the last good one.
func (s *RedisStore) Record(ctx context.Context, o cache.Outcome) error {
	if !o.Succeeded() {
		return nil
	}
	if err := s.Save(ctx, o.Key, o.Seats, o.FinishedAt); err != nil {
		return err
	}
	s.logger.Debug("snapshot saved", zap.String("event_id", o.Key), zap.Int("seats", len(o.Seats)))
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
