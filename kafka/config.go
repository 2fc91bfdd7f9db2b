package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConsumerConfig configures the invalidation feed consumer
type ConsumerConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topics  []string `mapstructure:"topics"`

	// MaxRetries is the number of handler attempts per message
	// default: 3
	MaxRetries int `mapstructure:"max_retries"`

	// InstanceNum is the number of consumer instances in the group
	// default: 1
	InstanceNum int `mapstructure:"instance_num"`

	// AutoOffsetReset is "earliest" or "latest"
	// default: "latest"
	AutoOffsetReset string `mapstructure:"auto_offset_reset"`

	// default: false
	EnableAutoCommit bool `mapstructure:"enable_auto_commit"`

	// default: 5s
	AutoCommitInterval time.Duration `mapstructure:"auto_commit_interval"`

	// default: 30s
	SessionTimeout time.Duration `mapstructure:"session_timeout"`

	// default: 120s
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`

	// PollTimeout bounds one Poll so the loop notices cancellation
	// default: 500ms
	PollTimeout time.Duration `mapstructure:"poll_timeout"`

	// HandlerTimeout bounds one handler attempt, which includes a seat fetch
	// default: 30s
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`

	// only PLAINTEXT is supported for now
	// default: "PLAINTEXT"
	SecurityProtocol string `mapstructure:"security_protocol"`

	Debug bool `mapstructure:"debug"`
}

// DefaultConsumerConfig returns the default consumer configuration
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		GroupID:            "seatsync",
		Topics:             []string{"seat-invalidations"},
		MaxRetries:         3,
		InstanceNum:        1,
		AutoOffsetReset:    "latest",
		AutoCommitInterval: 5 * time.Second,
		SessionTimeout:     30 * time.Second,
		MaxPollInterval:    120 * time.Second,
		PollTimeout:        500 * time.Millisecond,
		HandlerTimeout:     30 * time.Second,
		SecurityProtocol:   "PLAINTEXT",
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (c *ConsumerConfig) MergeDefaults() *ConsumerConfig {
	d := DefaultConsumerConfig()
	if c.GroupID == "" {
		c.GroupID = d.GroupID
	}
	if len(c.Topics) == 0 {
		c.Topics = d.Topics
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InstanceNum == 0 {
		c.InstanceNum = d.InstanceNum
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = d.AutoOffsetReset
	}
	if c.AutoCommitInterval == 0 {
		c.AutoCommitInterval = d.AutoCommitInterval
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = d.SessionTimeout
	}
	if c.MaxPollInterval == 0 {
		c.MaxPollInterval = d.MaxPollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.HandlerTimeout == 0 {
		c.HandlerTimeout = d.HandlerTimeout
	}
	if c.SecurityProtocol == "" {
		c.SecurityProtocol = d.SecurityProtocol
	}
	return c
}

// Validate validates the configuration
func (c *ConsumerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if c.GroupID == "" {
		return ErrInvalidConfig("group_id is required")
	}
	if len(c.Topics) == 0 {
		return ErrInvalidConfig("topics are required")
	}
	if c.AutoOffsetReset != "earliest" && c.AutoOffsetReset != "latest" {
		return ErrInvalidConfig(
			fmt.Sprintf("invalid auto_offset_reset: %s, must be either 'earliest' or 'latest'", c.AutoOffsetReset),
		)
	}
	if c.EnableAutoCommit && c.AutoCommitInterval <= 0 {
		return ErrInvalidConfig("auto_commit_interval must be greater than 0 when enable_auto_commit is true")
	}
	if c.MaxRetries < 1 {
		return ErrInvalidConfig("max_retries must be at least 1")
	}
	if c.InstanceNum < 1 {
		return ErrInvalidConfig("instance_num must be at least 1")
	}
	if c.SessionTimeout <= 0 || c.MaxPollInterval <= 0 || c.PollTimeout <= 0 || c.HandlerTimeout <= 0 {
		return ErrInvalidConfig("timeouts must be greater than 0")
	}
	return nil
}

// BuildConfigMap converts the config into librdkafka properties
func (c *ConsumerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":    strings.Join(c.Brokers, ","),
		"group.id":             c.GroupID,
		"auto.offset.reset":    strings.ToLower(c.AutoOffsetReset),
		"enable.auto.commit":   c.EnableAutoCommit,
		"session.timeout.ms":   int(c.SessionTimeout.Milliseconds()),
		"max.poll.interval.ms": int(c.MaxPollInterval.Milliseconds()),
		"security.protocol":    c.SecurityProtocol,
	}
	if c.EnableAutoCommit {
		_ = configMap.SetKey("auto.commit.interval.ms", int(c.AutoCommitInterval.Milliseconds()))
	}
	if c.Debug {
		_ = configMap.SetKey("debug", "consumer,cgrp,topic,fetch")
	}
	return configMap
}

// ProducerConfig configures the availability publisher
type ProducerConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`

	// Topic receives one availability message per successful fetch
	// default: "seat-availability"
	Topic string `mapstructure:"topic"`

	// Acks is "all", "1" or "0"
	// default: "all"
	Acks string `mapstructure:"acks"`

	// Compression is none, gzip, snappy, lz4 or zstd
	// default: "none"
	Compression string `mapstructure:"compression"`

	// default: 0
	LingerMs int `mapstructure:"linger_ms"`

	// default: 100KB
	BatchSize int `mapstructure:"batch_size"`

	// default: "PLAINTEXT"
	SecurityProtocol string `mapstructure:"security_protocol"`

	// default: 3
	MaxRetries int `mapstructure:"max_retries"`

	// FlushTimeout bounds the flush on Close
	// default: 10s
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

// DefaultProducerConfig returns the default producer configuration
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		ClientID:         "seatsync",
		Topic:            "seat-availability",
		Acks:             "all",
		Compression:      "none",
		BatchSize:        100 * 1024,
		SecurityProtocol: "PLAINTEXT",
		MaxRetries:       3,
		FlushTimeout:     10 * time.Second,
	}
}

// MergeDefaults fills zero values with defaults and returns the config
func (p *ProducerConfig) MergeDefaults() *ProducerConfig {
	d := DefaultProducerConfig()
	if p.ClientID == "" {
		p.ClientID = d.ClientID
	}
	if p.Topic == "" {
		p.Topic = d.Topic
	}
	if p.Acks == "" {
		p.Acks = d.Acks
	}
	if p.Compression == "" {
		p.Compression = d.Compression
	}
	if p.BatchSize == 0 {
		p.BatchSize = d.BatchSize
	}
	if p.SecurityProtocol == "" {
		p.SecurityProtocol = d.SecurityProtocol
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.FlushTimeout == 0 {
		p.FlushTimeout = d.FlushTimeout
	}
	return p
}

// Validate validates the configuration
func (p *ProducerConfig) Validate() error {
	if len(p.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if p.Topic == "" {
		return ErrInvalidConfig("topic is required")
	}
	switch strings.ToLower(p.Acks) {
	case "all", "-1", "0", "1":
	default:
		return ErrInvalidConfig(fmt.Sprintf("invalid acks: %s", p.Acks))
	}
	return nil
}

// BuildConfigMap converts the config into librdkafka properties
func (p *ProducerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(p.Brokers, ","),
		"compression.type":  strings.ToLower(p.Compression),
		"acks":              strings.ToLower(p.Acks),
		"linger.ms":         p.LingerMs,
		"batch.size":        p.BatchSize,
		"retries":           p.MaxRetries,
		"security.protocol": p.SecurityProtocol,
	}
	if p.ClientID != "" {
		_ = configMap.SetKey("client.id", p.ClientID)
	}
	return configMap
}
