package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
)

const (
	createAttempts   = 3
	createRetryDelay = 2 * time.Second
	metadataTimeout  = 10 * time.Second
)

// retryCreate calls create up to createAttempts times. librdkafka client
// construction fails transiently while DNS for the brokers settles.
func retryCreate[T any](log logger.Logger, what string, create func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		if v, err = create(); err == nil {
			return v, nil
		}
		if attempt < createAttempts {
			log.Warn("kafka client creation failed, retrying",
				zap.String("client", what),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			time.Sleep(createRetryDelay)
		}
	}
	return v, ErrConnection(fmt.Errorf("create %s after %d attempts: %w", what, createAttempts, err))
}

// probeBrokers fetches cluster metadata once so a bad broker list fails at
// startup rather than on the first message
func probeBrokers(log logger.Logger, brokers []string) error {
	conf := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(brokers, ","),
		"request.timeout.ms": int(metadataTimeout.Milliseconds()),
	}
	admin, err := retryCreate(log, "admin client", func() (*kafka.AdminClient, error) {
		return kafka.NewAdminClient(conf)
	})
	if err != nil {
		return err
	}
	defer admin.Close()

	if _, err := admin.GetMetadata(nil, true, int(metadataTimeout.Milliseconds())); err != nil {
		return ErrConnection(err)
	}
	log.Info("kafka brokers reachable", zap.Strings("brokers", brokers))
	return nil
}
