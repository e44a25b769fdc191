package usecase

import "github.com/grocerycalc/backend/internal/domain"

// ResolveResult is the outcome of a barcode lookup
type ResolveResult struct {
	Outcome domain.Outcome
	Product *domain.Product
}

// Found reports whether the code matched a product
func (r ResolveResult) Found() bool {
	return r.Outcome == domain.OutcomeFound
}

// Resolve looks up code against the catalog. Barcodes are not unique by
// construction, so the first match in catalog order wins. A miss is an
// ordinary outcome, not an error.
func Resolve(code string, catalog []domain.Product) ResolveResult {
	for i := range catalog {
		if catalog[i].Barcode == code {
			p := catalog[i]
			return ResolveResult{Outcome: domain.OutcomeFound, Product: &p}
		}
	}
	return ResolveResult{Outcome: domain.OutcomeNotFound}
}
