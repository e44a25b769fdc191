package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grocerycalc/backend/internal/domain"
)

// DefaultCatalogKey is the slot the catalog snapshot lives in
const DefaultCatalogKey = "products"

// CatalogStore persists the catalog snapshot as one JSON value in a blob store
type CatalogStore struct {
	blobs domain.BlobStore
	key   string
}

// NewCatalogStore wraps a blob store. An empty key uses DefaultCatalogKey.
func NewCatalogStore(blobs domain.BlobStore, key string) *CatalogStore {
	if key == "" {
		key = DefaultCatalogKey
	}
	return &CatalogStore{blobs: blobs, key: key}
}

// Load returns the stored snapshot, or an empty catalog if nothing was saved yet
func (s *CatalogStore) Load(ctx context.Context) ([]domain.Product, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, domain.ErrSlotEmpty) {
		return []domain.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", domain.ErrStoreUnavailable, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Save replaces the stored snapshot with products
func (s *CatalogStore) Save(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.blobs.Put(ctx, s.key, data)
}
