package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seatsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5010/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Cache.CacheDuration)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "0 */5 * * * *", cfg.Warmup.Spec)
	assert.Nil(t, cfg.Redis)
	assert.Nil(t, cfg.Kafka)
	assert.Nil(t, cfg.CH)
	assert.Nil(t, cfg.MySQL)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
api:
  base_url: https://tickets.example.com/api
  min_interval: 500ms
cache:
  cache_duration: 30s
  cancel_when_idle: true
warmup:
  event_ids: [evt-1, evt-2]
  horizon: 24h
redis:
  addr: localhost:6379
kafka:
  consumer:
    brokers: [localhost:9092]
mysql:
  host: db
  user: seatsync
  password: secret
  database: tickets
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "https://tickets.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.API.MinInterval)
	assert.Equal(t, 30*time.Second, cfg.Cache.CacheDuration)
	assert.True(t, cfg.Cache.CancelWhenIdle)
	assert.Equal(t, []string{"evt-1", "evt-2"}, cfg.Warmup.EventIDs)
	assert.Equal(t, 24*time.Hour, cfg.Warmup.Horizon)

	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "seatsync:seats:", cfg.Redis.KeyPrefix)
	require.NotNil(t, cfg.Kafka)
	require.NotNil(t, cfg.Kafka.Consumer)
	assert.Nil(t, cfg.Kafka.Producer)
	assert.Equal(t, []string{"seat-invalidations"}, cfg.Kafka.Consumer.Topics)
	require.NotNil(t, cfg.MySQL)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Nil(t, cfg.CH)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  token: from-file
`)
	t.Setenv("SEATSYNC_API_TOKEN", "from-env")
	t.Setenv("SEATSYNC_HTTP_ADDR", ":9090")
	t.Setenv("SEATSYNC_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.API.Token)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	require.NotNil(t, cfg.Redis, "env should enable the redis section")
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad api url", "api:\n  base_url: ftp://example.com\n"},
		{"negative cache duration", "cache:\n  cache_duration: -1s\n"},
		{"mysql without user", "mysql:\n  host: db\n  password: p\n  database: d\n"},
		{"producer without brokers", "kafka:\n  producer:\n    topic: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
