package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record as owned by the remote catalog source
type Product struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
	AddedAt time.Time       `json:"addedAt"`
}

// ProductInput carries the fields needed to create a product remotely
type ProductInput struct {
	Name    string          `json:"name"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
}

// ProductUpdate carries a partial edit. Nil fields are left untouched.
type ProductUpdate struct {
	Name    *string          `json:"name,omitempty"`
	Barcode *string          `json:"barcode,omitempty"`
	Price   *decimal.Decimal `json:"price,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Barcode == nil && u.Price == nil
}

// CloneCatalog returns a copy of the catalog slice so callers cannot
// mutate a snapshot they do not own.
func CloneCatalog(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// Validate checks the invariants every ingested product must satisfy
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product %s has no name", ErrMalformedRecord, p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product %s has negative price %s", ErrMalformedRecord, p.ID, p.Price)
	}
	return nil
}

// UniqueByID keeps the first product for every id and returns the ids that were dropped
func UniqueByID(products []Product) ([]Product, []string) {
	seen := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	var dropped []string
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			dropped = append(dropped, p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, dropped
}
