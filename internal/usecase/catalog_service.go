package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	// FetchTimeout bounds the remote fetch during a sync
	FetchTimeout time.Duration
}

// SyncResult is what a sync hands back to the presentation layer
type SyncResult struct {
	Outcome     domain.Outcome
	Catalog     []domain.Product
	NewProducts []domain.Product
	// Offline is set when the remote fetch failed and the stored snapshot was used
	Offline  bool
	FetchErr error
	// SaveErr is set when a refreshed snapshot could not be persisted; the
	// refreshed catalog is still served from memory.
	SaveErr error
}

// CatalogService owns the device's current catalog snapshot and keeps it in
// step with the remote source.
type CatalogService struct {
	source       domain.CatalogSource
	store        domain.CatalogStore
	metrics      domain.MetricsRecorder
	fetchTimeout time.Duration

	// syncMu is held for a whole Sync, load through publish
	syncMu sync.Mutex

	mu      sync.RWMutex
	current []domain.Product
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	source domain.CatalogSource,
	store domain.CatalogStore,
	metrics domain.MetricsRecorder,
	config CatalogServiceConfig,
) *CatalogService {
	fetchTimeout := config.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 10 * time.Second
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}

	return &CatalogService{
		source:       source,
		store:        store,
		metrics:      metrics,
		fetchTimeout: fetchTimeout,
		current:      []domain.Product{},
	}
}

// Sync fetches the remote catalog and reconciles it with the stored snapshot.
// Flow: load stored -> fetch remote (bounded) -> reconcile -> save if new -> publish.
// A failed or slow fetch falls back to the stored snapshot; Sync never fails.
func (s *CatalogService) Sync(ctx context.Context) SyncResult {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	stored := s.loadStored(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	remote, err := s.source.FetchAll(fetchCtx)
	cancel()
	if err != nil {
		log.Printf("[Sync] Fetch failed, using stored snapshot (%d products): %v", len(stored), err)
		s.publish(stored)
		s.metrics.ObserveSync(domain.OutcomeNoChange, true)
		return SyncResult{
			Outcome:  domain.OutcomeNoChange,
			Catalog:  domain.CloneCatalog(stored),
			Offline:  true,
			FetchErr: err,
		}
	}

	result := Reconcile(remote, stored)
	out := SyncResult{
		Outcome:     result.Outcome(),
		Catalog:     domain.CloneCatalog(result.Merged),
		NewProducts: result.NewProducts,
	}

	if result.HasNewItems {
		log.Printf("[Sync] %d new products found, replacing snapshot with %d products",
			len(result.NewProducts), len(result.Merged))
		if err := s.store.Save(ctx, result.Merged); err != nil {
			log.Printf("[Sync] Failed to persist snapshot: %v", err)
			out.SaveErr = err
		}
	} else {
		log.Printf("[Sync] No new updates found")
	}

	s.publish(result.Merged)
	s.metrics.ObserveSync(out.Outcome, false)
	return out
}

// Current returns a copy of the catalog currently in use
func (s *CatalogService) Current() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneCatalog(s.current)
}

// ListRemote returns the remote catalog as-is, bypassing the snapshot
func (s *CatalogService) ListRemote(ctx context.Context) ([]domain.Product, error) {
	return s.source.FetchAll(ctx)
}

// CreateProduct validates the input, inserts it remotely and re-syncs.
// priceText comes straight from a form field.
func (s *CatalogService) CreateProduct(ctx context.Context, name, barcode, priceText string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return "", err
	}

	id, err := s.source.Insert(ctx, domain.ProductInput{
		Name:    name,
		Barcode: strings.TrimSpace(barcode),
		Price:   price,
	})
	if err != nil {
		return "", err
	}

	log.Printf("[Catalog] Product %s created", id)
	s.Sync(ctx)
	return id, nil
}

// UpdateProduct applies a partial edit. Nil arguments leave fields untouched.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, name, barcode, priceText *string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}

	var update domain.ProductUpdate
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidRequest)
		}
		update.Name = &trimmed
	}
	if barcode != nil {
		trimmed := strings.TrimSpace(*barcode)
		update.Barcode = &trimmed
	}
	if priceText != nil {
		price, err := ParsePrice(*priceText)
		if err != nil {
			return err
		}
		update.Price = &price
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidRequest)
	}

	if err := s.source.Update(ctx, id, update); err != nil {
		return err
	}

	log.Printf("[Catalog] Product %s updated", id)
	s.Sync(ctx)
	return nil
}

// DeleteProduct removes a product remotely and re-syncs
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	if err := s.source.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("[Catalog] Product %s deleted", id)
	s.Sync(ctx)
	return nil
}

// ParsePrice parses a user-entered price. Anything that is not a
// non-negative number is rejected with ErrInvalidPrice.
func ParsePrice(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", domain.ErrInvalidPrice)
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, text)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, text)
	}
	return price, nil
}

// loadStored reads the stored snapshot. A read failure falls back to the
// catalog already in memory.
func (s *CatalogService) loadStored(ctx context.Context) []domain.Product {
	stored, err := s.store.Load(ctx)
	if err != nil {
		log.Printf("[Sync] Failed to load stored snapshot: %v", err)
		return s.Current()
	}
	return stored
}

func (s *CatalogService) publish(products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = domain.CloneCatalog(products)
}
