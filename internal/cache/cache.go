package cache

import (
	"context"
	"time"

	"posales/backend/internal/domain"
)

// CatalogKey holds the last product sheet fetched from the provider.
const CatalogKey = "posales:catalog"

type CatalogCache interface {
	Get(ctx context.Context, key string) (*domain.CatalogTable, bool, error)
	Set(ctx context.Context, key string, value *domain.CatalogTable, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) (*domain.CatalogTable, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ *domain.CatalogTable, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Delete(_ context.Context, _ string) error {
	return nil
}
