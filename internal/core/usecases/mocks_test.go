package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

var errCacheMiss = errors.New("cache miss")

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
	gets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// --- Mock EventPublisher ---

type published struct {
	source   string
	features []*domain.GeoFeature
}

type mockPublisher struct {
	publishFn func(ctx context.Context, source string, features []*domain.GeoFeature) error
	calls     []published
}

func (m *mockPublisher) PublishFeatures(ctx context.Context, source string, features []*domain.GeoFeature) error {
	m.calls = append(m.calls, published{source: source, features: features})
	if m.publishFn != nil {
		return m.publishFn(ctx, source, features)
	}
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Mock SRSCatalog ---

type mockCatalog struct {
	definitionsFn func(ctx context.Context) ([]domain.SRSDefinition, error)
}

func (m *mockCatalog) Definitions(ctx context.Context) ([]domain.SRSDefinition, error) {
	if m.definitionsFn != nil {
		return m.definitionsFn(ctx)
	}
	return nil, nil
}
