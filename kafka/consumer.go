package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
)

type defaultConsumer struct {
	consumerInstances []*consumeInstance
	runner            routine.Runner

	closed atomic.Bool
}

// NewConsumer validates the cluster and creates InstanceNum group members
func NewConsumer(log logger.Logger, config *ConsumerConfig) (Consumer, error) {
	if config == nil {
		config = DefaultConsumerConfig()
	} else {
		config = config.MergeDefaults()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := probeBrokers(log, config.Brokers); err != nil {
		return nil, err
	}

	runner := routine.New(log)
	instances := make([]*consumeInstance, 0, config.InstanceNum)
	for i := 0; i < config.InstanceNum; i++ {
		name := fmt.Sprintf("%s-instance-%d", config.GroupID, i+1)
		instance, err := newConsumeInstance(name, config, log, runner)
		if err != nil {
			for _, created := range instances {
				_ = created.Close()
			}
			return nil, err
		}
		instances = append(instances, instance)
	}

	return &defaultConsumer{consumerInstances: instances, runner: runner}, nil
}

// Start starts every instance
func (c *defaultConsumer) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}
	for _, instance := range c.consumerInstances {
		if err := instance.Start(ctx, handler); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every instance and waits for the poll loops to return
func (c *defaultConsumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	for _, instance := range c.consumerInstances {
		instance.stop()
	}
	c.runner.Wait()

	var errs []error
	for _, instance := range c.consumerInstances {
		if err := instance.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
