package repository

import (
	"context"
	"fmt"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
)

// Producer is the publishing side of pkg/kafka.Producer.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSignalPublisher writes signal events to a topic keyed by instrument,
// so one symbol's events stay ordered on one partition.
type KafkaSignalPublisher struct {
	p     Producer
	topic string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(p Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{p: p, topic: topic}
}

func (k *KafkaSignalPublisher) Publish(ctx context.Context, ev models.SignalEvent) error {
	if err := k.p.Publish(ctx, k.topic, []byte(ev.Instrument), ev); err != nil {
		return fmt.Errorf("publish signal %s: %w", ev.ID, err)
	}
	return nil
}

func (k *KafkaSignalPublisher) Close() error {
	return k.p.Close()
}

// NopSignalPublisher drops every event. Used when Kafka is disabled.
type NopSignalPublisher struct{}

var _ domrepo.SignalPublisher = NopSignalPublisher{}

func (NopSignalPublisher) Publish(context.Context, models.SignalEvent) error { return nil }

func (NopSignalPublisher) Close() error { return nil }
