package kafka

import (
	"context"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	brokers []string
}

func NewDefaultKafkaSubscriber(brokers []string) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers}
}

// Subscribe streams messages until ctx is cancelled or the reader fails,
// then closes the channel. Offsets are not committed on read: the consumer
// calls Message.Ack once the message is handled, so an unhandled message is
// redelivered to the group after a restart.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer reader.Close()
		defer close(out)
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				return
			}
			msg := domain.Message{
				Key:   m.Key,
				Value: m.Value,
				Commit: func(ctx context.Context) error {
					return reader.CommitMessages(ctx, m)
				},
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
