package ch

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
)

type defaultClient struct {
	config *Config
	logger logger.Logger

	conn driver.Conn

	closed bool
	mu     sync.RWMutex
}

// NewClient connects to ClickHouse and verifies the connection
func NewClient(config *Config, log logger.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.MergeDefaults()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: config.Hosts,
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		DialTimeout: config.DialTimeout,
		Debug:       config.Debug,
		Settings:    config.Settings,
	})
	if err != nil {
		return nil, ErrConnection(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, ErrConnection(err)
	}

	log.Info("clickhouse client initialized",
		zap.Strings("hosts", config.Hosts),
		zap.String("database", config.Database),
		zap.String("table", config.Table),
	)
	return &defaultClient{config: config, logger: log, conn: conn}, nil
}

// createTableSQL returns the DDL of the fetch log table
func createTableSQL(table string, ttlDays int) string {
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
		"  event_id LowCardinality(String),\n"+
		"  started_at DateTime64(3, 'UTC'),\n"+
		"  finished_at DateTime64(3, 'UTC'),\n"+
		"  duration_ms UInt32,\n"+
		"  outcome LowCardinality(String),\n"+
		"  status_code UInt16,\n"+
		"  seats_total UInt32,\n"+
		"  seats_available UInt32,\n"+
		"  rate_limited_until DateTime64(3, 'UTC'),\n"+
		"  error String\n"+
		") ENGINE = MergeTree\n"+
		"PARTITION BY toYYYYMMDD(finished_at)\n"+
		"ORDER BY (event_id, finished_at)", table)
	if ttlDays > 0 {
		ddl += fmt.Sprintf("\nTTL toDateTime(finished_at) + INTERVAL %d DAY", ttlDays)
	}
	return ddl
}

func (c *defaultClient) EnsureTable(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.conn.Exec(ctx, createTableSQL(c.config.Table, c.config.TTLDays)); err != nil {
		return ErrQuery(c.config.Table, err)
	}
	return nil
}

func (c *defaultClient) InsertFetchRows(ctx context.Context, rows []FetchRow) error {
	if len(rows) == 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}

	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO `%s`", c.config.Table))
	if err != nil {
		return ErrInsert(c.config.Table, err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			_ = batch.Abort()
			return ErrInsert(c.config.Table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return ErrInsert(c.config.Table, err)
	}
	return nil
}

func (c *defaultClient) RecentFetches(ctx context.Context, eventID string, limit int) ([]FetchRow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}

	var rows []FetchRow
	query := fmt.Sprintf("SELECT * FROM `%s` WHERE event_id = ? ORDER BY finished_at DESC LIMIT ?", c.config.Table)
	if err := c.conn.Select(ctx, &rows, query, eventID, limit); err != nil {
		c.logger.Error("query failed", zap.String("query", query), zap.Error(err))
		return nil, ErrQuery(c.config.Table, err)
	}
	return rows, nil
}

func (c *defaultClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.conn.Close(); err != nil {
		c.logger.Error("failed to close clickhouse connection", zap.Error(err))
		return err
	}
	c.logger.Info("clickhouse client closed")
	return nil
}
