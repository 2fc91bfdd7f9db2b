package httpapi

import (
	"fmt"
	"time"
)

// Config holds configuration for the HTTP read surface
type Config struct {
	// Addr is the listen address
	// default: ":8080"
	Addr string `mapstructure:"addr"`
	// ReadHeaderTimeout bounds reading request headers
	// default: 5s
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	// default: 10s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MinStreamInterval is the shortest polling interval a stream may request
	// default: 2s
	MinStreamInterval time.Duration `mapstructure:"min_stream_interval"`
	// Heartbeat is the keep-alive comment interval of a stream
	// default: 15s
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	// KnownEventsOnly serves only events the cache already tracks
	// (warmed, preloaded or subscribed) and answers 404 for the rest
	// default: false
	KnownEventsOnly bool `mapstructure:"known_events_only"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MinStreamInterval: 2 * time.Second,
		Heartbeat:         15 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MinStreamInterval == 0 {
		c.MinStreamInterval = d.MinStreamInterval
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = d.Heartbeat
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidConfig("addr is required")
	}
	if c.MinStreamInterval < 0 {
		return ErrInvalidConfig("min_stream_interval cannot be negative")
	}
	if c.Heartbeat <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("heartbeat must be positive, got %v", c.Heartbeat))
	}
	return nil
}
