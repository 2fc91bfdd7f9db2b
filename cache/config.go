package cache

import "time"

// Config holds configuration for the seat cache
type Config struct {
	// CacheDuration is the default TTL used for staleness-on-activate.
	// Subscribers may override it with WithCacheDuration.
	// default: 15 * time.Second
	CacheDuration time.Duration `mapstructure:"cache_duration"`
	// CancelWhenIdle cancels the in-flight fetch of a key once its last
	// subscriber leaves.
	// default: false
	CancelWhenIdle bool `mapstructure:"cancel_when_idle"`
	// SinkTimeout bounds each outcome delivery to a sink
	// default: 10 * time.Second
	SinkTimeout time.Duration `mapstructure:"sink_timeout"`
}

// DefaultConfig returns the default configuration for the seat cache
func DefaultConfig() *Config {
	return &Config{
		CacheDuration: DefaultCacheDuration,
		SinkTimeout:   10 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.CacheDuration == 0 {
		c.CacheDuration = defaults.CacheDuration
	}
	if c.SinkTimeout == 0 {
		c.SinkTimeout = defaults.SinkTimeout
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CacheDuration < 0 {
		return ErrInvalidCacheDuration(c.CacheDuration)
	}
	if c.SinkTimeout < 0 {
		return ErrInvalidSinkTimeout(c.SinkTimeout)
	}
	return nil
}
