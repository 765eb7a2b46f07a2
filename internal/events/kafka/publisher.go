package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

// Publisher writes outbox events to one topic per event type, keyed by
// aggregate so events for the same transaction or customer stay ordered.
type Publisher struct {
	writer      *kafka.Writer
	topicPrefix string
}

func NewPublisher(brokers []string, topicPrefix string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		topicPrefix: topicPrefix,
	}
}

func (p *Publisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	if err := p.writer.WriteMessages(ctx, messageFor(p.topicPrefix, event)); err != nil {
		return fmt.Errorf("Publish: %s: %w", event.EventType, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func messageFor(topicPrefix string, event domain.OutboxEvent) kafka.Message {
	return kafka.Message{
		Topic: topicPrefix + string(event.EventType),
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
		Time: event.CreatedAt,
	}
}
