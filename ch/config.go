package ch

import (
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config holds configuration for the ClickHouse fetch log
type Config struct {
	Hosts       []string      `mapstructure:"hosts"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Debug       bool          `mapstructure:"debug"`
	// clickhouse settings (https://clickhouse.com/docs/operations/settings/settings)
	Settings clickhouse.Settings `mapstructure:"settings"`
	// Table is the fetch log table
	// default: "seat_fetch_log"
	Table string `mapstructure:"table"`
	// TTLDays drops rows older than this many days, 0 keeps them forever
	// default: 30
	TTLDays int `mapstructure:"ttl_days"`

	WriterConfig *WriterConfig `mapstructure:"writer"`
}

// WriterConfig controls batching of the fetch log
type WriterConfig struct {
	// default: 10s
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	// FlushSize flushes as soon as this many rows are buffered
	// default: 1000
	FlushSize int `mapstructure:"flush_size"`
	// MinFlushSize is the minimum batch for an interval flush.
	// 0 flushes on every interval.
	// default: 50
	MinFlushSize int `mapstructure:"min_flush_size"`
	// MaxWaitTime forces an interval flush of a small batch once its first
	// row is this old. 0 waits for MinFlushSize indefinitely.
	// default: 60s
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
	// InsertTimeout bounds one batch insert
	// default: 30s
	InsertTimeout time.Duration `mapstructure:"insert_timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database:     "default",
		DialTimeout:  10 * time.Second,
		Table:        "seat_fetch_log",
		TTLDays:      30,
		WriterConfig: DefaultWriterConfig(),
	}
}

// DefaultWriterConfig returns the default writer config
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		FlushInterval: 10 * time.Second,
		FlushSize:     1000,
		MinFlushSize:  50,
		MaxWaitTime:   60 * time.Second,
		InsertTimeout: 30 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.Table == "" {
		c.Table = d.Table
	}
	if c.WriterConfig == nil {
		c.WriterConfig = d.WriterConfig
	} else {
		c.WriterConfig.MergeDefaults()
	}
	return c
}

// MergeDefaults fills zero values with defaults and returns the config
func (w *WriterConfig) MergeDefaults() *WriterConfig {
	d := DefaultWriterConfig()
	if w.FlushInterval == 0 {
		w.FlushInterval = d.FlushInterval
	}
	if w.FlushSize == 0 {
		w.FlushSize = d.FlushSize
	}
	if w.InsertTimeout == 0 {
		w.InsertTimeout = d.InsertTimeout
	}
	return w
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return ErrInvalidConfig("hosts are required")
	}
	if c.Username == "" {
		return ErrInvalidConfig("username is required")
	}
	if !tableName.MatchString(c.Table) {
		return ErrInvalidTable
	}
	if c.TTLDays < 0 {
		return ErrInvalidConfig("ttl_days cannot be negative")
	}
	if c.WriterConfig != nil {
		return c.WriterConfig.Validate()
	}
	return nil
}

// Validate validates the writer configuration
func (w *WriterConfig) Validate() error {
	if w.FlushInterval <= 0 {
		return ErrInvalidConfig("writer.flush_interval is required")
	}
	if w.FlushSize <= 0 {
		return ErrInvalidConfig("writer.flush_size is required")
	}
	if w.MinFlushSize < 0 {
		return ErrInvalidConfig("writer.min_flush_size cannot be negative")
	}
	if w.MinFlushSize > w.FlushSize {
		return ErrInvalidConfig("writer.min_flush_size cannot be greater than writer.flush_size")
	}
	if w.MaxWaitTime < 0 {
		return ErrInvalidConfig("writer.max_wait_time cannot be negative")
	}
	return nil
}
