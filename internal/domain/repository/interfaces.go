package repository

import (
	"context"

	"ChronoSignal/internal/domain/models"
)

// SignalPublisher delivers computed signal events to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, ev models.SignalEvent) error
	Close() error
}

type Metrics interface {
	RecordSignal(backend, symbol string)
	RecordError(kind string)
	RecordLastSignal(symbol string, strength, confidence float64)
	RecordLatency(op string, seconds float64)
}
