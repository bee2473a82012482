package ports

import (
	"context"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// EventPublisher publishes extraction events to a message broker.
type EventPublisher interface {
	PublishFeatures(ctx context.Context, source string, features []*domain.GeoFeature) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// DocumentSubscriber delivers scraped documents from a message broker.
type DocumentSubscriber interface {
	SubscribeDocuments(ctx context.Context, handler func(ctx context.Context, doc *domain.ScrapedDocument) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// DocumentQueue hands scraped documents to the extraction workers.
type DocumentQueue interface {
	PublishDocument(ctx context.Context, doc *domain.ScrapedDocument) error
}
