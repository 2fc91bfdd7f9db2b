// Package kafka connects the seat cache to Kafka: an invalidation feed that
// triggers refreshes, and a publisher that emits an availability summary
// after every successful fetch.
package kafka

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// PartitionAny lets the producer pick the partition
const PartitionAny = kafka.PartitionAny

// Offset of a message within its partition
type Offset int64

// TopicPartition locates a message
type TopicPartition struct {
	Topic     *string
	Partition int32
	Offset    Offset
}

// Header is a message header
type Header struct {
	Key   string
	Value []byte
}

// Message decouples handlers and tests from the librdkafka types
type Message struct {
	TopicPartition TopicPartition
	Key            []byte
	Value          []byte
	Headers        []Header
	Timestamp      time.Time
}

// GetHeader returns the value of the first header named k, nil when absent
func (m *Message) GetHeader(k string) []byte {
	for _, h := range m.Headers {
		if h.Key == k {
			return h.Value
		}
	}
	return nil
}

func toMessage(km *kafka.Message) *Message {
	m := &Message{
		TopicPartition: TopicPartition{
			Topic:     km.TopicPartition.Topic,
			Partition: km.TopicPartition.Partition,
			Offset:    Offset(km.TopicPartition.Offset),
		},
		Key:       km.Key,
		Value:     km.Value,
		Timestamp: km.Timestamp,
	}
	if len(km.Headers) > 0 {
		m.Headers = make([]Header, len(km.Headers))
		for i, h := range km.Headers {
			m.Headers[i] = Header{Key: h.Key, Value: h.Value}
		}
	}
	return m
}

func (m *Message) toKafka() *kafka.Message {
	km := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: m.TopicPartition.Topic, Partition: m.TopicPartition.Partition},
		Key:            m.Key,
		Value:          m.Value,
	}
	for _, h := range m.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}
	return km
}

// ConsumerMsgHandler handles one message. A nil return commits the offset.
type ConsumerMsgHandler func(ctx context.Context, msg *Message) error

// Consumer reads messages from the subscribed topics
type Consumer interface {
	Start(ctx context.Context, handler ConsumerMsgHandler) error
	Close() error
}

// Producer writes messages
type Producer interface {
	Produce(ctx context.Context, msg *Message) error
	Close() error
}
