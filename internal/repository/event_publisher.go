package repository

import (
	"context"
	"fmt"

	"Astrolabe/internal/domain/models"
	domrepo "Astrolabe/internal/domain/repository"
	pkgkafka "Astrolabe/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher writes each sky event as one JSON message keyed by the
// event id, so all versions of an event land on one partition.
type KafkaEventPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, events []models.SkyEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(e.ID), Value: e})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("kafka publish %d events: %w", len(events), err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
