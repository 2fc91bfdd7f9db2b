// Package config loads the seatsync application configuration from a YAML
// file and SEATSYNC_* environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/ch"
	"github.com/dailyyoga/seatsync/cron"
	"github.com/dailyyoga/seatsync/db"
	"github.com/dailyyoga/seatsync/httpapi"
	"github.com/dailyyoga/seatsync/kafka"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seatapi"
	"github.com/dailyyoga/seatsync/snapshot"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SEATSYNC_API_TOKEN
const EnvPrefix = "SEATSYNC"

// Config aggregates the configuration of every component. A nil optional
// section (Redis, Kafka, ClickHouse, MySQL) disables that integration.
type Config struct {
	Logger *logger.Config      `mapstructure:"logger"`
	API    *seatapi.Config     `mapstructure:"api"`
	Cache  *cache.Config       `mapstructure:"cache"`
	Warmup *cron.WarmupConfig  `mapstructure:"warmup"`
	HTTP   *httpapi.Config     `mapstructure:"http"`
	Redis  *snapshot.Config    `mapstructure:"redis"`
	Kafka  *KafkaConfig        `mapstructure:"kafka"`
	CH     *ch.Config          `mapstructure:"clickhouse"`
	MySQL  *db.Config          `mapstructure:"mysql"`
}

// KafkaConfig pairs the invalidation consumer with the availability
// producer. Either side may be left out.
type KafkaConfig struct {
	Consumer *kafka.ConsumerConfig `mapstructure:"consumer"`
	Producer *kafka.ProducerConfig `mapstructure:"producer"`
}

// envKeys can be set from the environment without a config file entry.
// Setting any key of an optional section enables that section.
var envKeys = []string{
	"logger.level",
	"logger.encoding",
	"api.base_url",
	"api.token",
	"api.timeout",
	"api.min_interval",
	"cache.cache_duration",
	"cache.cancel_when_idle",
	"warmup.spec",
	"warmup.horizon",
	"warmup.event_ids",
	"http.addr",
	"http.known_events_only",
	"redis.addr",
	"redis.password",
	"redis.db",
	"kafka.consumer.brokers",
	"kafka.consumer.group_id",
	"kafka.consumer.topics",
	"kafka.producer.brokers",
	"kafka.producer.topic",
	"clickhouse.hosts",
	"clickhouse.database",
	"clickhouse.username",
	"clickhouse.password",
	"mysql.host",
	"mysql.port",
	"mysql.user",
	"mysql.password",
	"mysql.database",
}

// Load reads path, or ./seatsync.yaml when path is empty, applies
// environment overrides, fills defaults and validates every section. A
// missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("seatsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, ErrLoad(err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, ErrLoad(err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ErrLoad(err)
	}
	if err := cfg.MergeDefaults().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeDefaults fills the mandatory sections and the zero values of every
// present section
func (c *Config) MergeDefaults() *Config {
	if c.Logger == nil {
		c.Logger = logger.DefaultConfig()
	} else {
		c.Logger.MergeDefaults()
	}
	if c.API == nil {
		c.API = seatapi.DefaultConfig()
	} else {
		c.API.MergeDefaults()
	}
	if c.Cache == nil {
		c.Cache = cache.DefaultConfig()
	} else {
		c.Cache.MergeDefaults()
	}
	if c.Warmup == nil {
		c.Warmup = cron.DefaultWarmupConfig()
	} else {
		c.Warmup.MergeDefaults()
	}
	if c.HTTP == nil {
		c.HTTP = httpapi.DefaultConfig()
	} else {
		c.HTTP.MergeDefaults()
	}
	if c.Redis != nil {
		c.Redis.MergeDefaults()
	}
	if c.Kafka != nil {
		if c.Kafka.Consumer != nil {
			c.Kafka.Consumer.MergeDefaults()
		}
		if c.Kafka.Producer != nil {
			c.Kafka.Producer.MergeDefaults()
		}
	}
	if c.CH != nil {
		c.CH.MergeDefaults()
	}
	if c.MySQL != nil {
		c.MySQL.MergeDefaults()
	}
	return c
}

type sectionCheck struct {
	section string
	check   func() error
}

// Validate validates every present section
func (c *Config) Validate() error {
	checks := []sectionCheck{
		{"logger", c.Logger.Validate},
		{"api", c.API.Validate},
		{"cache", c.Cache.Validate},
		{"warmup", c.Warmup.Validate},
		{"http", c.HTTP.Validate},
	}
	if c.Redis != nil {
		checks = append(checks, sectionCheck{"redis", c.Redis.Validate})
	}
	if c.Kafka != nil && c.Kafka.Consumer != nil {
		checks = append(checks, sectionCheck{"kafka.consumer", c.Kafka.Consumer.Validate})
	}
	if c.Kafka != nil && c.Kafka.Producer != nil {
		checks = append(checks, sectionCheck{"kafka.producer", c.Kafka.Producer.Validate})
	}
	if c.CH != nil {
		checks = append(checks, sectionCheck{"clickhouse", c.CH.Validate})
	}
	if c.MySQL != nil {
		checks = append(checks, sectionCheck{"mysql", c.MySQL.Validate})
	}

	for _, sc := range checks {
		if err := sc.check(); err != nil {
			return ErrSection(sc.section, err)
		}
	}
	return nil
}
