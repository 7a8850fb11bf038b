package order

import (
	"context"

	"restaurant-pos/internal/catalog"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/tables"
)

// Store is the storage surface of a single transaction. Every method
// sees the same uncommitted state; the pgx implementation maps each
// failure to a typed storage error.
type Store interface {
	catalog.Store
	tables.Store

	// LockIDAllocation serializes gap-filling id allocation between
	// concurrent creations. Held until the transaction ends.
	LockIDAllocation(ctx context.Context) error
	// OrderIDs returns all existing order ids in ascending order.
	OrderIDs(ctx context.Context) ([]int, error)

	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, id int) (*models.Order, error)
	UpdateOrderDetails(ctx context.Context, o *models.Order) error
	UpdateOrderStatus(ctx context.Context, id int, status models.OrderStatus, qrData *string, clearTable bool) error
	DeleteOrder(ctx context.Context, id int) error

	InsertOrderLines(ctx context.Context, orderID int, lines []models.LineRequest) error
	OrderLines(ctx context.Context, orderID int) ([]models.OrderLine, error)
	DeleteOrderLines(ctx context.Context, orderID int) error

	ListOrders(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	TablesOverview(ctx context.Context) ([]models.TableOverview, error)

	AppendStatusLog(ctx context.Context, orderID int, status models.OrderStatus, changedBy, notes string) error
}

// TxRunner executes fn inside one atomic unit of work. A non-nil error
// from fn rolls back every write fn performed.
type TxRunner interface {
	Within(ctx context.Context, fn func(st Store) error) error
}

// nextFreeID returns the lowest positive integer absent from ids.
// ids must be sorted ascending.
func nextFreeID(ids []int) int {
	expected := 1
	for _, id := range ids {
		if id != expected {
			return expected
		}
		expected++
	}
	return expected
}
