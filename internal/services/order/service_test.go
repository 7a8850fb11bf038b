package order

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

type logEntry struct {
	orderID   int
	status    models.OrderStatus
	changedBy string
	notes     string
}

// fakeStore is an in-memory Store for exercising service semantics
// without a database.
type fakeStore struct {
	prices     map[int]float64
	names      map[int]string
	tables     []models.Table
	orders     map[int]*models.Order
	created    []int
	lines      map[int][]models.OrderLine
	statusLog  []logEntry
	nextLineID int

	failInsertOrder bool
	failInsertLines bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		prices: map[int]float64{1: 10.00, 2: 4.50, 3: 2.25},
		names:  map[int]string{1: "Phở bò", 2: "Gỏi cuốn", 3: "Trà đá"},
		tables: []models.Table{
			{ID: 1, Number: "T1", DisplayName: "Window 1"},
			{ID: 2, Number: "T2", DisplayName: "Window 2"},
		},
		orders:     map[int]*models.Order{},
		lines:      map[int][]models.OrderLine{},
		nextLineID: 1,
	}
}

func (f *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		prices:          f.prices,
		names:           f.names,
		tables:          make([]models.Table, len(f.tables)),
		orders:          make(map[int]*models.Order, len(f.orders)),
		created:         append([]int(nil), f.created...),
		lines:           make(map[int][]models.OrderLine, len(f.lines)),
		statusLog:       append([]logEntry(nil), f.statusLog...),
		nextLineID:      f.nextLineID,
		failInsertOrder: f.failInsertOrder,
		failInsertLines: f.failInsertLines,
	}
	copy(c.tables, f.tables)
	for id, o := range f.orders {
		cp := *o
		c.orders[id] = &cp
	}
	for id, ls := range f.lines {
		c.lines[id] = append([]models.OrderLine(nil), ls...)
	}
	return c
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.tables = snap.tables
	f.orders = snap.orders
	f.created = snap.created
	f.lines = snap.lines
	f.statusLog = snap.statusLog
	f.nextLineID = snap.nextLineID
}

// seed registers a pre-existing order, keeping insertion order intact
// for the newest-first listing contract.
func (f *fakeStore) seed(o *models.Order) {
	f.orders[o.ID] = o
	f.created = append(f.created, o.ID)
}

func (f *fakeStore) ItemPrice(_ context.Context, productID int) (float64, error) {
	price, ok := f.prices[productID]
	if !ok {
		return 0, models.Errorf(models.KindNotFound, "product %d not found", productID)
	}
	return price, nil
}

func (f *fakeStore) LockTables(context.Context) ([]models.Table, error) {
	out := make([]models.Table, len(f.tables))
	copy(out, f.tables)
	return out, nil
}

func (f *fakeStore) SetTableOccupancy(_ context.Context, tableID int, occupied bool, orderID *int) error {
	for i := range f.tables {
		if f.tables[i].ID == tableID {
			f.tables[i].Occupied = occupied
			f.tables[i].CurrentOrderID = orderID
			return nil
		}
	}
	return models.Errorf(models.KindNotFound, "table %d not found", tableID)
}

func (f *fakeStore) LockIDAllocation(context.Context) error { return nil }

func (f *fakeStore) OrderIDs(context.Context) ([]int, error) {
	ids := make([]int, 0, len(f.orders))
	for id := 1; len(ids) < len(f.orders); id++ {
		if _, ok := f.orders[id]; ok {
			ids = append(ids, id)
		}
		if id > 1_000_000 {
			break
		}
	}
	return ids, nil
}

func (f *fakeStore) InsertOrder(_ context.Context, o *models.Order) error {
	if f.failInsertOrder {
		return models.NewError(models.KindStorage, "insert failed")
	}
	cp := *o
	f.orders[o.ID] = &cp
	f.created = append(f.created, o.ID)
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, id int) (*models.Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeStore) UpdateOrderDetails(_ context.Context, o *models.Order) error {
	stored, ok := f.orders[o.ID]
	if !ok {
		return models.Errorf(models.KindNotFound, "order %d not found", o.ID)
	}
	stored.CustomerName = o.CustomerName
	stored.TotalPrice = o.TotalPrice
	stored.NeedsAssistance = o.NeedsAssistance
	stored.Note = o.Note
	stored.TableNumber = o.TableNumber
	return nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int, status models.OrderStatus, qrData *string, clearTable bool) error {
	stored, ok := f.orders[id]
	if !ok {
		return models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	stored.Status = status
	stored.QRCodeData = qrData
	if clearTable {
		stored.TableNumber = nil
	}
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, id int) error {
	if _, ok := f.orders[id]; !ok {
		return models.Errorf(models.KindNotFound, "order %d not found", id)
	}
	delete(f.orders, id)
	for i, createdID := range f.created {
		if createdID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) InsertOrderLines(_ context.Context, orderID int, lines []models.LineRequest) error {
	if f.failInsertLines {
		return models.NewError(models.KindStorage, "insert lines failed")
	}
	for _, l := range lines {
		options, err := encodeOptions(l.SelectedOptions)
		if err != nil {
			return models.WrapError(models.KindValidation, "invalid selected_options", err)
		}
		f.lines[orderID] = append(f.lines[orderID], models.OrderLine{
			ID:              f.nextLineID,
			OrderID:         orderID,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			SelectedOptions: options,
			Name:            f.names[l.ProductID],
			Price:           f.prices[l.ProductID],
		})
		f.nextLineID++
	}
	return nil
}

func (f *fakeStore) OrderLines(_ context.Context, orderID int) ([]models.OrderLine, error) {
	return append([]models.OrderLine(nil), f.lines[orderID]...), nil
}

func (f *fakeStore) DeleteOrderLines(_ context.Context, orderID int) error {
	delete(f.lines, orderID)
	return nil
}

// ListOrders returns newest first, matching the SQL ordering contract.
func (f *fakeStore) ListOrders(_ context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	for i := len(f.created) - 1; i >= 0; i-- {
		o, ok := f.orders[f.created[i]]
		if !ok {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if o.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) ListTables(ctx context.Context) ([]models.Table, error) {
	return f.LockTables(ctx)
}

func (f *fakeStore) TablesOverview(context.Context) ([]models.TableOverview, error) {
	var out []models.TableOverview
	for _, t := range f.tables {
		v := models.TableOverview{
			Number:      t.Number,
			DisplayName: t.DisplayName,
			Occupied:    t.Occupied,
			OrderID:     t.CurrentOrderID,
		}
		if t.CurrentOrderID != nil {
			if o, ok := f.orders[*t.CurrentOrderID]; ok {
				status := o.Status
				v.OrderStatus = &status
				v.CustomerName = &o.CustomerName
				v.TotalPrice = &o.TotalPrice
				v.PaymentStatus = &o.PaymentStatus
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeStore) AppendStatusLog(_ context.Context, orderID int, status models.OrderStatus, changedBy, notes string) error {
	f.statusLog = append(f.statusLog, logEntry{orderID, status, changedBy, notes})
	return nil
}

// fakeRunner rolls back by restoring a snapshot when fn fails, matching
// transactional semantics.
type fakeRunner struct {
	store *fakeStore
}

func (r *fakeRunner) Within(_ context.Context, fn func(st Store) error) error {
	snap := r.store.clone()
	if err := fn(r.store); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type fakePublisher struct {
	events []models.StatusUpdateEvent
	err    error
}

func (p *fakePublisher) PublishStatusUpdate(_ context.Context, event models.StatusUpdateEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakePublisher) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(&fakeRunner{store: store}, pub, logger.New("test"))
	return svc, store, pub
}

func strptr(s string) *string { return &s }

func TestNextFreeID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want int
	}{
		{"empty", nil, 1},
		{"contiguous", []int{1, 2, 3}, 4},
		{"gap in middle", []int{1, 3}, 2},
		{"gap at start", []int{2, 3}, 1},
		{"single", []int{1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextFreeID(tt.ids))
		})
	}
}

func TestCreateOrder_CatalogIsPricingAuthority(t *testing.T) {
	svc, store, _ := newTestService()

	declared := 5.00
	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		TotalPrice:   &declared,
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 2}},
	}, "req_test")
	require.NoError(t, err)
	assert.Equal(t, 20.00, resp.TotalPrice, "declared total far from computed is overwritten")
	assert.Equal(t, 20.00, store.orders[resp.OrderID].TotalPrice)
}

func TestCreateOrder_DeclaredTotalWithinTolerance(t *testing.T) {
	svc, _, _ := newTestService()

	declared := 19.99
	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		TotalPrice:   &declared,
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 2}},
	}, "req_test")
	require.NoError(t, err)
	assert.Equal(t, 19.99, resp.TotalPrice)
}

func TestCreateOrder_FillsIDGaps(t *testing.T) {
	svc, store, _ := newTestService()
	store.seed(&models.Order{ID: 1, Status: models.StatusPending})
	store.seed(&models.Order{ID: 3, Status: models.StatusPending})

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 3, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.OrderID)
}

func TestCreateOrder_DineInAutoAssignsTable(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)
	require.NotNil(t, resp.TableNumber)
	assert.Equal(t, "T1", *resp.TableNumber)

	tbl := store.tables[0]
	assert.True(t, tbl.Occupied)
	require.NotNil(t, tbl.CurrentOrderID)
	assert.Equal(t, resp.OrderID, *tbl.CurrentOrderID)
}

func TestCreateOrder_TakeoutSkipsTable(t *testing.T) {
	svc, store, _ := newTestService()

	for _, orderType := range []string{"takeout", "mang về", "delivery"} {
		resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
			CustomerName: "An",
			OrderType:    orderType,
			Items:        []models.LineRequest{{ProductID: 3, Quantity: 1}},
		}, "req_test")
		require.NoError(t, err)
		assert.Nil(t, resp.TableNumber)
	}
	for _, tbl := range store.tables {
		assert.False(t, tbl.Occupied)
	}
}

func TestCreateOrder_NoCapacity(t *testing.T) {
	svc, store, _ := newTestService()
	for i := range store.tables {
		store.tables[i].Occupied = true
	}

	_, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNoCapacity))
	assert.Empty(t, store.orders)
}

func TestCreateOrder_RequestedTableConflict(t *testing.T) {
	svc, store, _ := newTestService()
	other := 42
	store.tables[0].Occupied = true
	store.tables[0].CurrentOrderID = &other

	_, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))
	assert.Empty(t, store.orders)
}

func TestCreateOrder_FailureReleasesReservedTable(t *testing.T) {
	svc, store, _ := newTestService()
	store.failInsertLines = true

	_, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.Error(t, err)
	assert.Empty(t, store.orders)
	for _, tbl := range store.tables {
		assert.False(t, tbl.Occupied)
	}
}

func TestCreateOrder_UnknownProductRejected(t *testing.T) {
	svc, store, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 99, Quantity: 1}},
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.Empty(t, store.orders)
}

func TestCreateOrder_OptionsRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items: []models.LineRequest{
			{ProductID: 1, Quantity: 1, SelectedOptions: map[string]interface{}{"size": "L"}},
		},
	}, "req_test")
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	options, ok := order.Items[0].SelectedOptions.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "L", options["size"])
}

func TestUpdateOrderStatus_FullLifecycle(t *testing.T) {
	svc, store, pub := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 2}},
	}, "req_test")
	require.NoError(t, err)

	for _, target := range []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusSentToKitchen,
		models.StatusProcessing,
		models.StatusCompleted,
	} {
		updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(target), "req_test")
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status)
		assert.Nil(t, updated.QRCodeData)
		assert.NotNil(t, updated.TableNumber, "table held until served")
	}

	updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusServed), "req_test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusServed, updated.Status)
	assert.Nil(t, updated.TableNumber)
	assert.False(t, store.tables[0].Occupied)

	require.NotNil(t, updated.QRCodeData)
	var payload models.QRPayload
	require.NoError(t, json.Unmarshal([]byte(*updated.QRCodeData), &payload))
	assert.Equal(t, resp.OrderID, payload.OrderID)
	assert.Equal(t, 20.00, payload.Amount)

	// pending from creation plus five transitions.
	assert.Len(t, store.statusLog, 6)
	assert.Len(t, pub.events, 5)
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, string(models.StatusCompleted), last.OldStatus)
	assert.Equal(t, string(models.StatusServed), last.NewStatus)
	require.NotNil(t, last.TableNumber, "event carries the table held before release")
	assert.Equal(t, "T1", *last.TableNumber)
}

func TestUpdateOrderStatus_VietnameseAlias(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, "Đã xác nhận", "req_test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
}

func TestUpdateOrderStatus_IllegalTransition(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusProcessing), "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))

	assert.Equal(t, models.StatusPending, store.orders[resp.OrderID].Status)
	assert.True(t, store.tables[0].Occupied, "failed transition leaves the table held")
}

func TestUpdateOrderStatus_SelfTransitionIsNoOp(t *testing.T) {
	svc, store, pub := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)
	logged := len(store.statusLog)

	updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusPending), "req_test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Len(t, store.statusLog, logged, "no log entry for a no-op")
	assert.Empty(t, pub.events, "no event for a no-op")
	assert.True(t, store.tables[0].Occupied)
}

func TestUpdateOrderStatus_CancelReleasesTable(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusCancelled), "req_test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Nil(t, updated.TableNumber)
	assert.False(t, store.tables[0].Occupied)
}

func TestUpdateOrderStatus_PublishFailureDoesNotFail(t *testing.T) {
	svc, store, pub := newTestService()
	pub.err = models.NewError(models.KindStorage, "broker down")

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusConfirmed), "req_test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, models.StatusConfirmed, store.orders[resp.OrderID].Status)
}

func TestMarkServed_ReturnsQRPayload(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 2, Quantity: 2}},
	}, "req_test")
	require.NoError(t, err)

	for _, target := range []models.OrderStatus{
		models.StatusConfirmed, models.StatusSentToKitchen,
		models.StatusProcessing, models.StatusCompleted,
	} {
		_, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(target), "req_test")
		require.NoError(t, err)
	}

	qr, err := svc.MarkServed(context.Background(), resp.OrderID, "req_test")
	require.NoError(t, err)

	var payload models.QRPayload
	require.NoError(t, json.Unmarshal([]byte(qr), &payload))
	assert.Equal(t, resp.OrderID, payload.OrderID)
	assert.Equal(t, 9.00, payload.Amount)

	// Serving an already served order returns the same payload.
	again, err := svc.MarkServed(context.Background(), resp.OrderID, "req_test")
	require.NoError(t, err)
	assert.Equal(t, qr, again)
}

func TestUpdateOrderDetails_ReplacesItemsAndReprices(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		Items: []models.LineRequest{{ProductID: 2, Quantity: 2}, {ProductID: 3, Quantity: 1}},
		Note:  strptr("no peanuts"),
	}, "req_test")
	require.NoError(t, err)

	assert.Equal(t, 11.25, updated.TotalPrice)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "Gỏi cuốn", updated.Items[0].Name)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "no peanuts", *updated.Note)
	assert.Equal(t, 11.25, store.orders[resp.OrderID].TotalPrice)
}

func TestUpdateOrderDetails_MovesTable(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		TableNumber: strptr("T2"),
	}, "req_test")
	require.NoError(t, err)

	require.NotNil(t, updated.TableNumber)
	assert.Equal(t, "T2", *updated.TableNumber)
	assert.False(t, store.tables[0].Occupied)
	assert.True(t, store.tables[1].Occupied)
	require.NotNil(t, store.tables[1].CurrentOrderID)
	assert.Equal(t, resp.OrderID, *store.tables[1].CurrentOrderID)
}

func TestUpdateOrderDetails_MoveToOccupiedTableKeepsCurrent(t *testing.T) {
	svc, store, _ := newTestService()
	other := 42
	store.tables[1].Occupied = true
	store.tables[1].CurrentOrderID = &other

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		TableNumber: strptr("T2"),
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))

	// Still seated at the original table.
	assert.True(t, store.tables[0].Occupied)
	require.NotNil(t, store.orders[resp.OrderID].TableNumber)
	assert.Equal(t, "T1", *store.orders[resp.OrderID].TableNumber)
}

func TestUpdateOrderDetails_EmptyLabelReleasesTable(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	updated, err := svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		TableNumber: strptr(""),
	}, "req_test")
	require.NoError(t, err)
	assert.Nil(t, updated.TableNumber)
	assert.False(t, store.tables[0].Occupied)
}

func TestUpdateOrderDetails_TerminalOrderRejected(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(models.StatusCancelled), "req_test")
	require.NoError(t, err)

	// A cancelled order must never reacquire a table.
	_, err = svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		TableNumber: strptr("T2"),
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))
	assert.Nil(t, store.orders[resp.OrderID].TableNumber)
	for _, tbl := range store.tables {
		assert.False(t, tbl.Occupied)
	}

	// Any other edit is closed off too.
	_, err = svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		Note: strptr("late note"),
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))
	assert.Nil(t, store.orders[resp.OrderID].Note)
}

func TestUpdateOrderDetails_ServedOrderRejected(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	for _, target := range []models.OrderStatus{
		models.StatusConfirmed, models.StatusSentToKitchen,
		models.StatusProcessing, models.StatusCompleted, models.StatusServed,
	} {
		_, err := svc.UpdateOrderStatus(context.Background(), resp.OrderID, string(target), "req_test")
		require.NoError(t, err)
	}

	_, err = svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		TableNumber: strptr("T1"),
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))
	assert.False(t, store.tables[0].Occupied)
}

func TestUpdateOrderDetails_EmptyNameRejected(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.UpdateOrderDetails(context.Background(), resp.OrderID, &models.UpdateOrderDetailsRequest{
		CustomerName: strptr("   "),
	}, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindValidation))
}

func TestDeleteOrder_ReleasesTableAndLines(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(context.Background(), resp.OrderID, "req_test"))
	assert.Empty(t, store.orders)
	assert.Empty(t, store.lines[resp.OrderID])
	assert.False(t, store.tables[0].Occupied)

	err = svc.DeleteOrder(context.Background(), resp.OrderID, "req_test")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestListOrders_FilterByAlias(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)
	_, err = svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "Bình",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 2, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), first.OrderID, string(models.StatusConfirmed), "req_test")
	require.NoError(t, err)

	orders, err := svc.ListOrders(context.Background(), []string{"Đã xác nhận"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.OrderID, orders[0].ID)

	_, err = svc.ListOrders(context.Background(), []string{"nonsense"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindValidation))
}

func TestListOrders_NewestFirst(t *testing.T) {
	svc, store, _ := newTestService()
	store.seed(&models.Order{ID: 1, CustomerName: "An", Status: models.StatusPending})
	store.seed(&models.Order{ID: 3, CustomerName: "Bình", Status: models.StatusPending})

	// Fills the id gap, yet sorts as the most recent order.
	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "Chi",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 3, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)
	require.Equal(t, 2, resp.OrderID)

	orders, err := svc.ListOrders(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{orders[0].ID, orders[1].ID, orders[2].ID})
}

func TestQRCodeData_NotServed(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		OrderType:    "takeout",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	_, err = svc.QRCodeData(context.Background(), resp.OrderID)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestTablesOverview_ShowsSeatedOrder(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerName: "An",
		TableNumber:  "T1",
		Items:        []models.LineRequest{{ProductID: 1, Quantity: 1}},
	}, "req_test")
	require.NoError(t, err)

	overview, err := svc.TablesOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview, 2)

	seated := overview[0]
	assert.True(t, seated.Occupied)
	require.NotNil(t, seated.OrderID)
	assert.Equal(t, resp.OrderID, *seated.OrderID)
	require.NotNil(t, seated.CustomerName)
	assert.Equal(t, "An", *seated.CustomerName)
	assert.False(t, overview[1].Occupied)
}
