package domain

import "context"

// BlobStore is a key-value store of opaque values. Put replaces the whole
// value atomically: readers see either the old or the new value.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// CatalogStore persists the last-known full catalog in a single slot
type CatalogStore interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}

// CatalogSource is the authoritative remote product list
type CatalogSource interface {
	// FetchAll returns every product ordered by AddedAt descending
	FetchAll(ctx context.Context) ([]Product, error)
	Insert(ctx context.Context, input ProductInput) (string, error)
	Update(ctx context.Context, id string, update ProductUpdate) error
	Delete(ctx context.Context, id string) error
}

// MetricsRecorder receives counters for sync and scan outcomes
type MetricsRecorder interface {
	ObserveSync(outcome Outcome, offline bool)
	ObserveScan(outcome Outcome)
	ObserveCartOperation(op string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ObserveSync(Outcome, bool)   {}
func (NopMetrics) ObserveScan(Outcome)         {}
func (NopMetrics) ObserveCartOperation(string) {}
