package repository

import (
	"context"

	"Astrolabe/internal/domain/models"
)

// EventPublisher ships sky events to downstream consumers.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []models.SkyEvent) error
	Close() error
}

// EventStore keeps the history of scanned sky events.
type EventStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreEvents(ctx context.Context, events []models.SkyEvent) error
	QueryEvents(ctx context.Context, filter models.SkyEventFilter) ([]models.SkyEvent, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordCacheResult(kind string, hit bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordHouseFallback(body string)
}
