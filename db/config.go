package db

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config locates the MySQL event catalogue used to pick the events that the
// warm-up job refreshes
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"` // default: 3306
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// EventTable holds one row per event, see Event
	// default: "events"
	EventTable string `mapstructure:"event_table"`

	// pool sizing
	// defaults: 25 open, 10 idle, 30m lifetime, 10m idle time
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// LogLevel is one of silent, error, warn or info
	// default: "warn"
	LogLevel string `mapstructure:"log_level"`
	// SlowThreshold marks queries slower than it as slow in the log
	// default: 1s
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`

	Charset string `mapstructure:"charset"` // default: "utf8mb4"
	Loc     string `mapstructure:"loc"`     // default: "UTC"
}

var (
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	logLevels  = []string{"silent", "error", "warn", "info"}
)

// DefaultConfig returns the defaults, without a host or credentials
func DefaultConfig() *Config {
	return &Config{
		Port:            3306,
		EventTable:      "events",
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		LogLevel:        "warn",
		SlowThreshold:   time.Second,
		Charset:         "utf8mb4",
		Loc:             "UTC",
	}
}

func (c *Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the go-sql-driver/mysql data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=True&loc=%s",
		c.User, c.Password, c.addr(), c.Database, c.Charset, url.QueryEscape(c.Loc))
}

func (c *Config) applyPool(pool *sql.DB) {
	pool.SetMaxOpenConns(c.MaxOpenConns)
	pool.SetMaxIdleConns(c.MaxIdleConns)
	pool.SetConnMaxLifetime(c.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(c.ConnMaxIdleTime)
}

func (c *Config) Validate() error {
	required := []struct {
		name  string
		empty bool
	}{
		{"host", c.Host == ""},
		{"port", c.Port <= 0},
		{"user", c.User == ""},
		{"password", c.Password == ""},
		{"database", c.Database == ""},
	}
	for _, r := range required {
		if r.empty {
			return ErrInvalidConfig(r.name + " is required")
		}
	}
	if !identifier.MatchString(c.EventTable) {
		return ErrInvalidConfig(fmt.Sprintf("event_table %q is not a valid identifier", c.EventTable))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return ErrInvalidConfig(fmt.Sprintf("log_level %q must be one of: %s", c.LogLevel, strings.Join(logLevels, ", ")))
	}
	return nil
}

// MergeDefaults fills zero fields from DefaultConfig and returns c
func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	setDefault(&c.Port, d.Port)
	setDefault(&c.EventTable, d.EventTable)
	setDefault(&c.MaxOpenConns, d.MaxOpenConns)
	setDefault(&c.MaxIdleConns, d.MaxIdleConns)
	setDefault(&c.ConnMaxLifetime, d.ConnMaxLifetime)
	setDefault(&c.ConnMaxIdleTime, d.ConnMaxIdleTime)
	setDefault(&c.LogLevel, d.LogLevel)
	setDefault(&c.SlowThreshold, d.SlowThreshold)
	setDefault(&c.Charset, d.Charset)
	setDefault(&c.Loc, d.Loc)
	return c
}

func setDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}
