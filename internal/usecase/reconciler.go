package usecase

import "github.com/grocerycalc/backend/internal/domain"

// ReconcileResult is the outcome of comparing a remote catalog with the stored snapshot
type ReconcileResult struct {
	HasNewItems bool
	Merged      []domain.Product
	// NewProducts are the remote products whose id is absent from the stored
	// snapshot, in remote order.
	NewProducts []domain.Product
}

// Outcome maps the result to the typed presentation outcome
func (r ReconcileResult) Outcome() domain.Outcome {
	if r.HasNewItems {
		return domain.OutcomeNewItemsAvailable
	}
	return domain.OutcomeNoChange
}

// Reconcile decides whether the stored snapshot must be replaced.
//
// A remote product is new when no stored product shares its id. When at least
// one is new the merged catalog is the entire remote catalog; otherwise the
// stored catalog is returned unchanged. Field edits on existing ids (price,
// name, barcode) are not detected and do not trigger a refresh.
func Reconcile(remote, stored []domain.Product) ReconcileResult {
	known := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		known[p.ID] = struct{}{}
	}

	var fresh []domain.Product
	for _, p := range remote {
		if _, ok := known[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}

	if len(fresh) == 0 {
		return ReconcileResult{Merged: stored}
	}
	return ReconcileResult{
		HasNewItems: true,
		Merged:      remote,
		NewProducts: fresh,
	}
}
