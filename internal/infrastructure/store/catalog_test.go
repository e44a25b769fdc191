package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerycalc/backend/internal/domain"
)

// failingBlobStore errors on every call
type failingBlobStore struct {
	err error
}

func (f failingBlobStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBlobStore) Put(context.Context, string, []byte) error   { return f.err }

func TestCatalogStore_LoadEmptySlot(t *testing.T) {
	s := NewCatalogStore(NewMemoryStore(), "")

	products, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestCatalogStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	added := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	want := []domain.Product{
		{ID: "2", Name: "Oil", Barcode: "B2", Price: decimal.RequireFromString("120.50"), AddedAt: added},
		{ID: "1", Name: "Rice", Barcode: "A1", Price: decimal.NewFromInt(50), AddedAt: added.Add(-time.Hour)},
	}

	for name, blobs := range blobStores(t) {
		t.Run(name, func(t *testing.T) {
			s := NewCatalogStore(blobs, "products")
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID)
				assert.Equal(t, want[i].Name, got[i].Name)
				assert.Equal(t, want[i].Barcode, got[i].Barcode)
				assert.True(t, want[i].Price.Equal(got[i].Price), "price %s != %s", want[i].Price, got[i].Price)
				assert.True(t, want[i].AddedAt.Equal(got[i].AddedAt))
			}
		})
	}
}

func TestCatalogStore_SaveReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore(NewMemoryStore(), "")

	require.NoError(t, s.Save(ctx, []domain.Product{{ID: "1", Name: "Rice"}, {ID: "2", Name: "Oil"}}))
	require.NoError(t, s.Save(ctx, []domain.Product{{ID: "3", Name: "Salt"}}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestCatalogStore_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, DefaultCatalogKey, []byte(`{not json`)))

	_, err := NewCatalogStore(blobs, "").Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCatalogStore_PropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	s := NewCatalogStore(failingBlobStore{err: boom}, "")

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Save(ctx, nil), boom)
}
