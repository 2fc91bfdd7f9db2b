package logger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

var (
	levels    = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}
	encodings = []string{"json", "console"}
)

// Config selects level, encoding and sinks of the process logger. The
// serve command logs JSON to stdout; the CLI commands use console on stderr.
type Config struct {
	Level    string `mapstructure:"level"`    // default: "info"
	Encoding string `mapstructure:"encoding"` // json or console, default: "json"
	// Name, when set, becomes the zap logger name
	Name             string   `mapstructure:"name"`
	OutputPaths      []string `mapstructure:"output_paths"`       // default: stdout
	ErrorOutputPaths []string `mapstructure:"error_output_paths"` // default: stderr
}

func DefaultConfig() *Config {
	return &Config{
		Level:            "info",
		Encoding:         "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// MergeDefaults fills empty fields from DefaultConfig and returns c
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	c.Level = cmp.Or(c.Level, d.Level)
	c.Encoding = cmp.Or(c.Encoding, d.Encoding)
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = d.OutputPaths
	}
	if len(c.ErrorOutputPaths) == 0 {
		c.ErrorOutputPaths = d.ErrorOutputPaths
	}
	return c
}

func (c *Config) Validate() error {
	if !slices.Contains(levels, strings.ToLower(c.Level)) {
		return ErrInvalidLevel(c.Level, fmt.Errorf("want one of %s", strings.Join(levels, ", ")))
	}
	if !slices.Contains(encodings, c.Encoding) {
		return ErrInvalidEncoding(c.Encoding)
	}
	return nil
}
