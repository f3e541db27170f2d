package repository

import (
	"context"

	"Astrolabe/internal/domain/models"
)

// NopPublisher drops events; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEvents(context.Context, []models.SkyEvent) error { return nil }
func (NopPublisher) Close() error                                           { return nil }

// NopEventStore discards writes and reports history as disabled.
type NopEventStore struct{}

func (NopEventStore) Init(context.Context) error                           { return nil }
func (NopEventStore) StoreEvents(context.Context, []models.SkyEvent) error { return nil }
func (NopEventStore) QueryEvents(context.Context, models.SkyEventFilter) ([]models.SkyEvent, error) {
	return nil, models.ErrHistoryDisabled
}
func (NopEventStore) Health(context.Context) error { return nil }
func (NopEventStore) Close() error                 { return nil }
