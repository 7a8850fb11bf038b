package tables

import (
	"context"
	"sort"

	"restaurant-pos/internal/models"
)

// Store is the slice of storage the allocator needs. LockTables must
// return the full roster with every row locked against concurrent
// reservation attempts for the remainder of the transaction.
type Store interface {
	LockTables(ctx context.Context) ([]models.Table, error)
	SetTableOccupancy(ctx context.Context, tableID int, occupied bool, orderID *int) error
}

// Allocator performs exclusive table reservation. Reservation is
// two-phase: Reserve marks the row occupied without an order id, so a
// failed order insert rolls back cleanly; Finalize stamps the order id
// once the order row exists in the same transaction.
type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Reserve claims a table for the order. With a label, the label is
// resolved against the roster and the call fails with a conflict if the
// table is held by a different order. Without a label the first free
// table wins, ordered by label length then lexicographically; no free
// table means no capacity. orderID may be zero during order creation,
// before the order row exists.
func (a *Allocator) Reserve(ctx context.Context, st Store, orderID int, requested string) (*models.Table, error) {
	roster, err := st.LockTables(ctx)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to lock tables", err)
	}

	if requested != "" {
		tbl := findByLabel(roster, requested)
		if tbl == nil {
			return nil, models.Errorf(models.KindNotFound, "no table matches label %q", requested)
		}
		if tbl.Occupied {
			if orderID != 0 && tbl.CurrentOrderID != nil && *tbl.CurrentOrderID == orderID {
				// The order already holds this table.
				return tbl, nil
			}
			return nil, models.Errorf(models.KindConflict, "table %s is occupied by another order", tbl.Number)
		}
		return a.occupy(ctx, st, tbl)
	}

	free := firstFree(roster)
	if free == nil {
		return nil, models.NewError(models.KindNoCapacity, "no free table available")
	}
	return a.occupy(ctx, st, free)
}

// Finalize stamps the owning order id onto a previously reserved table
func (a *Allocator) Finalize(ctx context.Context, st Store, tableID, orderID int) error {
	if err := st.SetTableOccupancy(ctx, tableID, true, &orderID); err != nil {
		return models.WrapError(models.KindStorage, "failed to finalize table reservation", err)
	}
	return nil
}

// Release frees a single table
func (a *Allocator) Release(ctx context.Context, st Store, tableID int) error {
	if err := st.SetTableOccupancy(ctx, tableID, false, nil); err != nil {
		return models.WrapError(models.KindStorage, "failed to release table", err)
	}
	return nil
}

// ReleaseForOrder frees every table currently held by the order
func (a *Allocator) ReleaseForOrder(ctx context.Context, st Store, orderID int) error {
	return a.releaseForOrderExcept(ctx, st, orderID, 0)
}

// ReleaseForOrderExcept frees tables held by the order, skipping the
// given table id. Used when moving an order: the new table is reserved
// first, then the old one is released.
func (a *Allocator) ReleaseForOrderExcept(ctx context.Context, st Store, orderID, keepTableID int) error {
	return a.releaseForOrderExcept(ctx, st, orderID, keepTableID)
}

// ReleaseByLabelForOrder frees the named table if the order holds it
func (a *Allocator) ReleaseByLabelForOrder(ctx context.Context, st Store, label string, orderID int) error {
	roster, err := st.LockTables(ctx)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to lock tables", err)
	}

	tbl := findByLabel(roster, label)
	if tbl == nil {
		return models.Errorf(models.KindNotFound, "no table matches label %q", label)
	}
	if !tbl.Occupied || tbl.CurrentOrderID == nil || *tbl.CurrentOrderID != orderID {
		return nil
	}
	return a.Release(ctx, st, tbl.ID)
}

func (a *Allocator) releaseForOrderExcept(ctx context.Context, st Store, orderID, keepTableID int) error {
	roster, err := st.LockTables(ctx)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to lock tables", err)
	}

	for _, tbl := range roster {
		if tbl.ID == keepTableID {
			continue
		}
		if tbl.CurrentOrderID != nil && *tbl.CurrentOrderID == orderID {
			if err := a.Release(ctx, st, tbl.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Allocator) occupy(ctx context.Context, st Store, tbl *models.Table) (*models.Table, error) {
	if err := st.SetTableOccupancy(ctx, tbl.ID, true, nil); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to reserve table", err)
	}
	reserved := *tbl
	reserved.Occupied = true
	reserved.CurrentOrderID = nil
	return &reserved, nil
}

func findByLabel(roster []models.Table, label string) *models.Table {
	key := NormalizeLabel(label)
	if key == "" {
		return nil
	}
	for i := range roster {
		if NormalizeLabel(roster[i].Number) == key {
			return &roster[i]
		}
	}
	return nil
}

func firstFree(roster []models.Table) *models.Table {
	candidates := make([]*models.Table, 0, len(roster))
	for i := range roster {
		if !roster[i].Occupied {
			candidates = append(candidates, &roster[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Number, candidates[j].Number
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return candidates[0]
}
