package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer     *kafka.Writer
	maxRetries int
	log        *slog.Logger
}

func NewDefaultKafkaPublisher(brokers []string, log *slog.Logger) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		maxRetries: 3,
		log:        log,
	}
}

// Publish writes msgs to topic, retrying the whole batch with a linear
// backoff. Messages sharing a key land on the same partition.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}

	var err error
	for attempt := 1; attempt <= k.maxRetries; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = k.writer.WriteMessages(writeCtx, km...)
		cancel()
		if err == nil {
			return nil
		}

		k.log.Warn("kafka publish attempt failed",
			slog.String("topic", topic),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < k.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return fmt.Errorf("publish %d messages to %s: %w", len(km), topic, err)
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
