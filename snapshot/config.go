package snapshot

import "time"

// Config holds configuration for the Redis snapshot store
type Config struct {
	// Addr is the Redis address (required)
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// KeyPrefix is prepended to every event id
	// default: "seatsync:seats:"
	KeyPrefix string `mapstructure:"key_prefix"`
	// TTL is how long a snapshot survives without being refreshed
	// default: 24 * time.Hour
	TTL time.Duration `mapstructure:"ttl"`
	// DialTimeout bounds connecting and the startup ping
	// default: 5 * time.Second
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// DefaultConfig returns the default configuration for the snapshot store
// Note: Addr has no default and must be set explicitly
func DefaultConfig() *Config {
	return &Config{
		KeyPrefix:   "seatsync:seats:",
		TTL:         24 * time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaults.KeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = defaults.TTL
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DialTimeout
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.DB < 0 {
		return ErrInvalidDB(c.DB)
	}
	if c.TTL < 0 {
		return ErrInvalidTTL(c.TTL)
	}
	return nil
}
