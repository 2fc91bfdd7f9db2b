package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"go.uber.org/zap"
)

type defaultProducer struct {
	logger logger.Logger
	config *ProducerConfig
	runner routine.Runner

	p *kafka.Producer

	done      chan struct{}
	closeOnce sync.Once
	stopOnce  sync.Once
}

// NewProducer validates the cluster and creates a producer
func NewProducer(log logger.Logger, config *ProducerConfig) (Producer, error) {
	if config == nil {
		config = DefaultProducerConfig()
	} else {
		config = config.MergeDefaults()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := probeBrokers(log, config.Brokers); err != nil {
		return nil, err
	}

	producer, err := retryCreate(log, "producer", func() (*kafka.Producer, error) {
		return kafka.NewProducer(config.BuildConfigMap())
	})
	if err != nil {
		return nil, err
	}

	kp := &defaultProducer{
		logger: log,
		config: config,
		runner: routine.New(log),
		p:      producer,
		done:   make(chan struct{}),
	}
	kp.runner.Go("kafka-delivery-reports", kp.handleDeliveryReports)

	log.Info("kafka producer initialized",
		zap.Strings("brokers", config.Brokers),
		zap.String("topic", config.Topic),
	)
	return kp, nil
}

func (kp *defaultProducer) stop() {
	kp.stopOnce.Do(func() { close(kp.done) })
}

// handleDeliveryReports drains the librdkafka event channel until Close or
// until every broker is down
func (kp *defaultProducer) handleDeliveryReports() {
	for {
		select {
		case <-kp.done:
			return
		case e := <-kp.p.Events():
			if kp.report(e) {
				kp.stop()
				return
			}
		}
	}
}

// report logs one producer event and tells whether the producer is unusable
func (kp *defaultProducer) report(e kafka.Event) bool {
	switch ev := e.(type) {
	case *kafka.Message:
		if err := ev.TopicPartition.Error; err != nil {
			topic := ""
			if ev.TopicPartition.Topic != nil {
				topic = *ev.TopicPartition.Topic
			}
			kp.logger.Error("availability message not delivered",
				zap.String("topic", topic),
				zap.ByteString("event_id", ev.Key),
				zap.Error(err),
			)
		}
	case kafka.Error:
		kp.logger.Error("kafka producer error",
			zap.Int("code", int(ev.Code())),
			zap.String("error", ev.String()),
		)
		return ev.Code() == kafka.ErrAllBrokersDown
	default:
		kp.logger.Debug("ignored producer event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
	return false
}

// Produce enqueues msg. Delivery failures are reported asynchronously to the log.
func (kp *defaultProducer) Produce(ctx context.Context, msg *Message) error {
	select {
	case <-kp.done:
		return ErrProducerClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.TopicPartition.Topic == nil {
		return ErrInvalidConfig("topic is required")
	}
	if msg.Value == nil {
		return ErrInvalidConfig("value is required")
	}

	return kp.p.Produce(msg.toKafka(), nil)
}

// Close flushes pending messages and closes the producer
func (kp *defaultProducer) Close() error {
	kp.closeOnce.Do(func() {
		kp.stop()
		kp.runner.Wait()

		if remaining := kp.p.Flush(int(kp.config.FlushTimeout.Milliseconds())); remaining > 0 {
			kp.logger.Warn("producer closed with undelivered messages", zap.Int("remaining", remaining))
		}
		kp.p.Close()
	})
	return nil
}
