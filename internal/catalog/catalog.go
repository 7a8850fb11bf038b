// Package catalog prices order lines against the authoritative menu.
// Lookups run inside the caller's transaction so pricing is consistent
// with whatever concurrent catalog edits have committed.
package catalog

import (
	"context"
	"math"

	"restaurant-pos/internal/models"
)

// Tolerance is the maximum absolute drift allowed between a
// client-declared total and the computed one before the computed total
// wins. Covers client-side float rounding, nothing more.
const Tolerance = 0.01

// Store resolves an item id to its current price. Implementations must
// fail with a not-found error for unknown ids.
type Store interface {
	ItemPrice(ctx context.Context, productID int) (float64, error)
}

// PriceLines prices every requested line and returns the computed total,
// rounded to currency scale. Any unknown item fails the whole call.
func PriceLines(ctx context.Context, st Store, items []models.LineRequest) (float64, error) {
	var total float64
	for _, item := range items {
		price, err := st.ItemPrice(ctx, item.ProductID)
		if err != nil {
			return 0, err
		}
		total += price * float64(item.Quantity)
	}
	return Round(total), nil
}

// ReconcileTotal decides the stored total. A declared total within
// Tolerance of the computed one is kept (rounded); anything further off
// is silently replaced by the computed total.
func ReconcileTotal(computed float64, declared *float64) float64 {
	if declared == nil {
		return computed
	}
	if math.Abs(*declared-computed) <= Tolerance {
		return Round(*declared)
	}
	return computed
}

// Round rounds to two decimal places
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
