package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
)

// orderIDLockKey is the advisory lock key guarding id allocation.
const orderIDLockKey = 7201

// Runner executes units of work as PostgreSQL transactions
type Runner struct {
	db *database.DB
}

// NewRunner creates a transaction runner over the connection pool
func NewRunner(db *database.DB) *Runner {
	return &Runner{db: db}
}

// Within runs fn inside a transaction, committing on success and
// rolling back on any error
func (r *Runner) Within(ctx context.Context, fn func(st Store) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.WrapError(models.KindStorage, "failed to commit transaction", err)
	}
	return nil
}

// txStore implements Store over a single pgx transaction
type txStore struct {
	tx pgx.Tx
}

func (s *txStore) LockIDAllocation(ctx context.Context) error {
	if _, err := s.tx.Exec(ctx, database.AdvisoryXactLockSQL, orderIDLockKey); err != nil {
		return models.WrapError(models.KindStorage, "failed to acquire id allocation lock", err)
	}
	return nil
}

func (s *txStore) OrderIDs(ctx context.Context) ([]int, error) {
	rows, err := s.tx.Query(ctx, database.SelectOrderIDsSQL)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list order ids", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan order id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list order ids", err)
	}
	return ids, nil
}

func (s *txStore) InsertOrder(ctx context.Context, o *models.Order) error {
	err := s.tx.QueryRow(ctx, database.InsertOrderSQL,
		o.ID, o.CustomerName, o.TotalPrice, string(o.Status), o.OrderType,
		o.PaymentMethod, o.TableNumber, o.NeedsAssistance, o.Note,
		o.CustomerEmail, o.EmailReceipt, o.PaymentStatus,
	).Scan(&o.CreatedAt)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to insert order", err)
	}
	return nil
}

func (s *txStore) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	return s.scanOrder(s.tx.QueryRow(ctx, database.GetOrderSQL, id), id)
}

func (s *txStore) GetOrderForUpdate(ctx context.Context, id int) (*models.Order, error) {
	return s.scanOrder(s.tx.QueryRow(ctx, database.GetOrderForUpdateSQL, id), id)
}

func (s *txStore) scanOrder(row pgx.Row, id int) (*models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerName, &o.TotalPrice, &status, &o.OrderType,
		&o.PaymentMethod, &o.TableNumber, &o.NeedsAssistance, &o.Note,
		&o.CustomerEmail, &o.EmailReceipt, &o.PaymentStatus, &o.QRCodeData, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to load order", err)
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

func (s *txStore) UpdateOrderDetails(ctx context.Context, o *models.Order) error {
	tag, err := s.tx.Exec(ctx, database.UpdateOrderDetailsSQL,
		o.CustomerName, o.TotalPrice, o.NeedsAssistance, o.Note, o.TableNumber, o.ID)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to update order", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.KindNotFound, "order %d not found", o.ID)
	}
	return nil
}

func (s *txStore) UpdateOrderStatus(ctx context.Context, id int, status models.OrderStatus, qrData *string, clearTable bool) error {
	tag, err := s.tx.Exec(ctx, database.UpdateOrderStatusSQL, string(status), qrData, clearTable, id)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	return nil
}

func (s *txStore) DeleteOrder(ctx context.Context, id int) error {
	tag, err := s.tx.Exec(ctx, database.DeleteOrderSQL, id)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	return nil
}

func (s *txStore) InsertOrderLines(ctx context.Context, orderID int, lines []models.LineRequest) error {
	for _, line := range lines {
		options, err := encodeOptions(line.SelectedOptions)
		if err != nil {
			return models.WrapError(models.KindValidation, "invalid selected_options", err)
		}
		if _, err := s.tx.Exec(ctx, database.InsertOrderLineSQL, orderID, line.ProductID, line.Quantity, options); err != nil {
			return models.WrapError(models.KindStorage, "failed to insert order line", err)
		}
	}
	return nil
}

func (s *txStore) OrderLines(ctx context.Context, orderID int) ([]models.OrderLine, error) {
	rows, err := s.tx.Query(ctx, database.SelectOrderLinesSQL, orderID)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list order lines", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		var options *string
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &options, &line.Name, &line.Price); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan order line", err)
		}
		line.SelectedOptions = options
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list order lines", err)
	}
	return lines, nil
}

func (s *txStore) DeleteOrderLines(ctx context.Context, orderID int) error {
	if _, err := s.tx.Exec(ctx, database.DeleteOrderLinesSQL, orderID); err != nil {
		return models.WrapError(models.KindStorage, "failed to delete order lines", err)
	}
	return nil
}

func (s *txStore) ListOrders(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	var rows pgx.Rows
	var err error
	if len(statuses) == 0 {
		rows, err = s.tx.Query(ctx, database.ListOrdersSQL)
	} else {
		filter := make([]string, len(statuses))
		for i, st := range statuses {
			filter[i] = string(st)
		}
		rows, err = s.tx.Query(ctx, database.ListOrdersByStatusSQL, filter)
	}
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.TotalPrice, &status, &o.OrderType,
			&o.PaymentMethod, &o.TableNumber, &o.NeedsAssistance, &o.Note,
			&o.CustomerEmail, &o.EmailReceipt, &o.PaymentStatus, &o.QRCodeData, &o.CreatedAt); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan order", err)
		}
		o.Status = models.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list orders", err)
	}
	return orders, nil
}

func (s *txStore) ItemPrice(ctx context.Context, productID int) (float64, error) {
	var price float64
	err := s.tx.QueryRow(ctx, database.SelectProductPriceSQL, productID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.Errorf(models.KindNotFound, "product %d not found", productID)
	}
	if err != nil {
		return 0, models.WrapError(models.KindStorage, "failed to load product price", err)
	}
	return price, nil
}

func (s *txStore) LockTables(ctx context.Context) ([]models.Table, error) {
	rows, err := s.tx.Query(ctx, database.LockTablesSQL)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to lock tables", err)
	}
	defer rows.Close()

	return scanTables(rows)
}

func (s *txStore) SetTableOccupancy(ctx context.Context, tableID int, occupied bool, orderID *int) error {
	tag, err := s.tx.Exec(ctx, database.SetTableOccupancySQL, occupied, orderID, tableID)
	if err != nil {
		return models.WrapError(models.KindStorage, "failed to update table occupancy", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.KindNotFound, "table %d not found", tableID)
	}
	return nil
}

func (s *txStore) ListTables(ctx context.Context) ([]models.Table, error) {
	rows, err := s.tx.Query(ctx, database.ListTablesSQL)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list tables", err)
	}
	defer rows.Close()

	return scanTables(rows)
}

func scanTables(rows pgx.Rows) ([]models.Table, error) {
	var list []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.DisplayName, &t.Occupied, &t.CurrentOrderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan table", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list tables", err)
	}
	return list, nil
}

func (s *txStore) TablesOverview(ctx context.Context) ([]models.TableOverview, error) {
	rows, err := s.tx.Query(ctx, database.TablesOverviewSQL)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to load tables overview", err)
	}
	defer rows.Close()

	var list []models.TableOverview
	for rows.Next() {
		var v models.TableOverview
		var status *string
		if err := rows.Scan(&v.Number, &v.DisplayName, &v.Occupied, &v.OrderID,
			&status, &v.CustomerName, &v.TotalPrice, &v.PaymentStatus); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan tables overview", err)
		}
		if status != nil {
			st := models.OrderStatus(*status)
			v.OrderStatus = &st
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to load tables overview", err)
	}
	return list, nil
}

func (s *txStore) AppendStatusLog(ctx context.Context, orderID int, status models.OrderStatus, changedBy, notes string) error {
	var notesArg *string
	if notes != "" {
		notesArg = &notes
	}
	if _, err := s.tx.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, string(status), changedBy, notesArg); err != nil {
		return models.WrapError(models.KindStorage, "failed to append status log", err)
	}
	return nil
}
