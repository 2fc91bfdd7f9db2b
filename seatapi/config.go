package seatapi

import (
	"net/url"
	"time"
)

// Config holds configuration for the seat API client
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:5010/api"
	BaseURL string `mapstructure:"base_url"`
	// Token is sent as a Bearer token when set
	Token string `mapstructure:"token"`
	// Timeout bounds one request including reading the body
	// default: 10 * time.Second
	Timeout time.Duration `mapstructure:"timeout"`
	// MinInterval is the minimum spacing between two requests of this client
	// default: 200 * time.Millisecond
	MinInterval time.Duration `mapstructure:"min_interval"`
	// MaxBodyBytes caps the response body size
	// default: 8 MiB
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DefaultConfig returns the default configuration for the seat API client
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:5010/api",
		Timeout:      10 * time.Second,
		MinInterval:  200 * time.Millisecond,
		MaxBodyBytes: 8 << 20,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MinInterval == 0 {
		c.MinInterval = defaults.MinInterval
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaults.MaxBodyBytes
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ErrInvalidBaseURL(c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidBaseURL(c.BaseURL, ErrUnsupportedScheme)
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout(c.Timeout)
	}
	if c.MinInterval < 0 {
		return ErrInvalidMinInterval(c.MinInterval)
	}
	if c.MaxBodyBytes < 0 {
		return ErrInvalidMaxBodyBytes(c.MaxBodyBytes)
	}
	return nil
}
