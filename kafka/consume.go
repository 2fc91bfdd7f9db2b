package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"go.uber.org/zap"
)

// consumeInstance is one group member polling its assigned partitions
type consumeInstance struct {
	logger logger.Logger
	runner routine.Runner

	config *ConsumerConfig
	name   string
	c      *kafka.Consumer

	stopping atomic.Bool
	closed   atomic.Bool
}

func newConsumeInstance(name string, config *ConsumerConfig, log logger.Logger, runner routine.Runner) (*consumeInstance, error) {
	consumer, err := kafka.NewConsumer(config.BuildConfigMap())
	if err != nil {
		return nil, ErrConnection(err)
	}
	if err := consumer.SubscribeTopics(config.Topics, nil); err != nil {
		consumer.Close()
		return nil, ErrSubscribe(config.Topics, err)
	}

	return &consumeInstance{
		logger: log,
		runner: runner,
		config: config,
		name:   name,
		c:      consumer,
	}, nil
}

// Start runs the poll loop until ctx is done
func (c *consumeInstance) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	c.runner.GoContext(ctx, "kafka-consume:"+c.name, func(ctx context.Context) {
		if err := c.consumeLoop(ctx, handler); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka consumer loop exited with error",
				zap.String("instance_name", c.name),
				zap.Error(err))
		}
	})
	c.logger.Info("kafka consumer instance started",
		zap.String("instance_name", c.name),
		zap.Strings("topics", c.config.Topics),
	)
	return nil
}

// stop asks the poll loop to return after the current poll
func (c *consumeInstance) stop() {
	c.stopping.Store(true)
}

// Close closes the underlying consumer, leaving the group. The poll loop
// must have returned.
func (c *consumeInstance) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.c.Close(); err != nil {
		return err
	}
	c.logger.Info("kafka consumer instance closed", zap.String("instance_name", c.name))
	return nil
}

func (c *consumeInstance) consumeLoop(ctx context.Context, handler ConsumerMsgHandler) error {
	pollMs := int(c.config.PollTimeout.Milliseconds())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.stopping.Load() {
			return nil
		}

		ev := c.c.Poll(pollMs)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := c.handleMessage(ctx, e, handler); err != nil {
				c.logger.Error("kafka consumer handle message failed",
					zap.String("topic", *e.TopicPartition.Topic),
					zap.Int32("partition", e.TopicPartition.Partition),
					zap.Int64("offset", int64(e.TopicPartition.Offset)),
					zap.Error(err),
				)
			}
		case kafka.Error:
			c.logger.Error("kafka consumer error", zap.Int("code", int(e.Code())), zap.String("error", e.String()))
			if e.Code() == kafka.ErrAllBrokersDown {
				return ErrConsume(e)
			}
		case kafka.OffsetsCommitted:
			if e.Error != nil {
				c.logger.Error("failed to commit offsets", zap.Error(e.Error))
			}
		default:
			c.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", e)))
		}
	}
}

// handleMessage runs handler with retries and commits the offset on success
func (c *consumeInstance) handleMessage(ctx context.Context, msg *kafka.Message, handler ConsumerMsgHandler) error {
	startTime := time.Now()

	err := runHandler(ctx, toMessage(msg), handler, c.config.MaxRetries, c.config.HandlerTimeout)
	if err != nil {
		return err
	}

	if !c.config.EnableAutoCommit {
		if _, err := c.c.CommitMessage(msg); err != nil {
			return ErrCommit(err)
		}
	}

	c.logger.Debug("kafka message processed",
		zap.String("topic", *msg.TopicPartition.Topic),
		zap.Int32("partition", msg.TopicPartition.Partition),
		zap.Int64("offset", int64(msg.TopicPartition.Offset)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// runHandler calls handler up to attempts times, each bounded by timeout.
// A panic counts as a failed attempt. It stops early once ctx is done.
func runHandler(ctx context.Context, msg *Message, handler ConsumerMsgHandler, attempts int, timeout time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = routine.Safe(func() error {
			hctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return handler(hctx, msg)
		})
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	return err
}
