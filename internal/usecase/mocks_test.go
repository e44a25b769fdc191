package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// MockCatalogSource is a mock implementation of domain.CatalogSource
type MockCatalogSource struct {
	products   []domain.Product
	fetchError error
	fetchDelay time.Duration
	writeError error
	fetchCalls int
	inserted   []domain.ProductInput
	updated    map[string]domain.ProductUpdate
	deleted    []string
	nextID     string
}

func NewMockCatalogSource(products ...domain.Product) *MockCatalogSource {
	return &MockCatalogSource{
		products: products,
		updated:  make(map[string]domain.ProductUpdate),
		nextID:   "100",
	}
}

func (m *MockCatalogSource) FetchAll(ctx context.Context) ([]domain.Product, error) {
	m.fetchCalls++
	if m.fetchDelay > 0 {
		select {
		case <-time.After(m.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fetchError != nil {
		return nil, m.fetchError
	}
	return domain.CloneCatalog(m.products), nil
}

func (m *MockCatalogSource) Insert(ctx context.Context, input domain.ProductInput) (string, error) {
	if m.writeError != nil {
		return "", m.writeError
	}
	m.inserted = append(m.inserted, input)
	m.products = append([]domain.Product{{
		ID:      m.nextID,
		Name:    input.Name,
		Barcode: input.Barcode,
		Price:   input.Price,
	}}, m.products...)
	return m.nextID, nil
}

func (m *MockCatalogSource) Update(ctx context.Context, id string, update domain.ProductUpdate) error {
	if m.writeError != nil {
		return m.writeError
	}
	m.updated[id] = update
	return nil
}

func (m *MockCatalogSource) Delete(ctx context.Context, id string) error {
	if m.writeError != nil {
		return m.writeError
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// MockCatalogStore is a mock implementation of domain.CatalogStore
type MockCatalogStore struct {
	products  []domain.Product
	loadError error
	saveError error
	saveCalls int
}

func NewMockCatalogStore(products ...domain.Product) *MockCatalogStore {
	return &MockCatalogStore{products: products}
}

func (m *MockCatalogStore) Load(ctx context.Context) ([]domain.Product, error) {
	if m.loadError != nil {
		return nil, m.loadError
	}
	return domain.CloneCatalog(m.products), nil
}

func (m *MockCatalogStore) Save(ctx context.Context, products []domain.Product) error {
	m.saveCalls++
	if m.saveError != nil {
		return m.saveError
	}
	m.products = domain.CloneCatalog(products)
	return nil
}

// staticCatalog is a CatalogProvider over a fixed slice
type staticCatalog []domain.Product

func (s staticCatalog) Current() []domain.Product {
	return domain.CloneCatalog(s)
}

func product(id, name, barcode string, price int64) domain.Product {
	return domain.Product{
		ID:      id,
		Name:    name,
		Barcode: barcode,
		Price:   decimal.NewFromInt(price),
	}
}
